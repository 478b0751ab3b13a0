package mock

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/beetlebot/booking-cli/internal/core"
)

// CalendarAdapter fabricates a stable fare per route and day so the
// selector can be exercised without credentials.
type CalendarAdapter struct{}

func NewCalendarAdapter() *CalendarAdapter {
	return &CalendarAdapter{}
}

func (a *CalendarAdapter) Name() string            { return "mock_calendar" }
func (a *CalendarAdapter) Tier() core.ProviderTier { return core.TierEasySignup }
func (a *CalendarAdapter) Capabilities() []core.Capability {
	return []core.Capability{core.CapPriceCalendar}
}
func (a *CalendarAdapter) Available() (bool, string) { return true, "" }

// weekday surcharge in USD, Sunday first.
var weekdaySurcharge = [7]float64{90, 40, 0, -30, 20, 110, 60}

func (a *CalendarAdapter) DailyPrices(ctx context.Context, req core.CalendarRequest) ([]core.DayPrice, error) {
	dates, err := req.Dates()
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}

	base := 250.0 + float64(hashSeed(req.From+req.To)%900)
	cabin := cabinMultiplier(req.CabinClass)
	adults := req.Adults
	if adults < 1 {
		adults = 1
	}

	out := make([]core.DayPrice, 0, len(dates))
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		day, _ := time.Parse("2006-01-02", date)
		rng := rand.New(rand.NewSource(hashSeed(req.From + req.To + date)))

		price := base + weekdaySurcharge[day.Weekday()] + float64(rng.Intn(240)) - 120
		if price < 120 {
			price = 120
		}
		price *= cabin * float64(adults)

		out = append(out, core.DayPrice{
			Date:     date,
			PriceUSD: float64(int(price*100)) / 100,
			Source:   a.Name(),
		})
	}
	return out, nil
}

func cabinMultiplier(cabin string) float64 {
	switch cabin {
	case "premium_economy":
		return 1.6
	case "business":
		return 3.2
	case "first":
		return 5.5
	}
	return 1
}

// hashSeed is a non-negative seed derived from s.
func hashSeed(s string) int64 {
	return int64(xxhash.Sum64String(s) & math.MaxInt64)
}
