package core

import (
	"errors"

	"github.com/shopspring/decimal"
)

// DefaultTolerance accepts up to 10% over the cheapest day.
const DefaultTolerance = 0.10

var ErrEmptySeries = errors.New("price series cannot be empty")

// SelectBookingDay returns the earliest day whose price is within tolerance of
// the cheapest day in prices. When no day qualifies, which can only happen with
// a negative tolerance, the first cheapest day is returned.
func SelectBookingDay(prices []float64, tolerance float64) (int, error) {
	if len(prices) == 0 {
		return 0, ErrEmptySeries
	}

	minDay := cheapestDay(prices)
	threshold := prices[minDay] * (1 + tolerance)

	for day, price := range prices {
		if price <= threshold {
			return day, nil
		}
	}
	return minDay, nil
}

// SelectBookingDayDefault is SelectBookingDay with DefaultTolerance.
func SelectBookingDayDefault(prices []float64) (int, error) {
	return SelectBookingDay(prices, DefaultTolerance)
}

// SelectBookingDayDecimal is SelectBookingDay over exact decimal prices.
func SelectBookingDayDecimal(prices []decimal.Decimal, tolerance decimal.Decimal) (int, error) {
	if len(prices) == 0 {
		return 0, ErrEmptySeries
	}

	minDay := cheapestDecimalDay(prices)
	threshold := prices[minDay].Mul(decimal.NewFromInt(1).Add(tolerance))

	for day, price := range prices {
		if price.LessThanOrEqual(threshold) {
			return day, nil
		}
	}
	return minDay, nil
}

// Recommend runs the same selection as SelectBookingDay and explains it.
func Recommend(prices []float64, tolerance float64) (*Recommendation, error) {
	day, err := SelectBookingDay(prices, tolerance)
	if err != nil {
		return nil, err
	}
	rec := explain(prices, tolerance, day, cheapestDay(prices))
	rec.Fallback = prices[day] > rec.Threshold
	return rec, nil
}

// RecommendDecimal selects with exact arithmetic and explains the result in float64.
func RecommendDecimal(prices []decimal.Decimal, tolerance decimal.Decimal) (*Recommendation, error) {
	day, err := SelectBookingDayDecimal(prices, tolerance)
	if err != nil {
		return nil, err
	}
	floats := make([]float64, len(prices))
	for i, p := range prices {
		floats[i] = p.InexactFloat64()
	}
	minDay := cheapestDecimalDay(prices)
	threshold := prices[minDay].Mul(decimal.NewFromInt(1).Add(tolerance))

	rec := explain(floats, tolerance.InexactFloat64(), day, minDay)
	rec.Threshold = threshold.InexactFloat64()
	rec.ExtraCost = prices[day].Sub(prices[minDay]).InexactFloat64()
	rec.Fallback = prices[day].GreaterThan(threshold)
	return rec, nil
}

func explain(prices []float64, tolerance float64, day, minDay int) *Recommendation {
	return &Recommendation{
		Day:         day,
		Price:       prices[day],
		MinDay:      minDay,
		MinPrice:    prices[minDay],
		Tolerance:   tolerance,
		Threshold:   prices[minDay] * (1 + tolerance),
		ExtraCost:   prices[day] - prices[minDay],
		DaysEarlier: minDay - day,
	}
}

// cheapestDay returns the first index holding the minimum price.
func cheapestDay(prices []float64) int {
	minDay := 0
	for day := 1; day < len(prices); day++ {
		if prices[day] < prices[minDay] {
			minDay = day
		}
	}
	return minDay
}

func cheapestDecimalDay(prices []decimal.Decimal) int {
	minDay := 0
	for day := 1; day < len(prices); day++ {
		if prices[day].LessThan(prices[minDay]) {
			minDay = day
		}
	}
	return minDay
}
