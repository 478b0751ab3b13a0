package core

import "sort"

// MergeDayPrices keeps the cheapest quote per date and returns the days in
// chronological order. On equal prices the quote seen first wins.
func MergeDayPrices(quotes []DayPrice) []DayPrice {
	best := make(map[string]int)
	var out []DayPrice
	for _, q := range quotes {
		if q.Date == "" {
			continue
		}
		i, ok := best[q.Date]
		if !ok {
			best[q.Date] = len(out)
			out = append(out, q)
			continue
		}
		if q.PriceUSD < out[i].PriceUSD {
			out[i] = q
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

// PriceSeries extracts the price per day, index 0 being the earliest day.
func PriceSeries(days []DayPrice) []float64 {
	prices := make([]float64, len(days))
	for i, d := range days {
		prices[i] = d.PriceUSD
	}
	return prices
}

// WithinWindow drops days outside the dates requested.
func WithinWindow(days []DayPrice, dates []string) []DayPrice {
	allowed := make(map[string]bool, len(dates))
	for _, d := range dates {
		allowed[d] = true
	}
	var out []DayPrice
	for _, d := range days {
		if allowed[d.Date] {
			out = append(out, d)
		}
	}
	return out
}
