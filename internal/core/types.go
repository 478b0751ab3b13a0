package core

import (
	"context"
	"time"

	"github.com/beetlebot/booking-cli/internal/config"
)

type Capability string

const (
	CapPriceCalendar Capability = "prices.calendar"
	CapLiveFares     Capability = "prices.live"
	CapDeepLink      Capability = "deepLink"
)

type ProviderTier string

const (
	TierEasySignup      ProviderTier = "easySignup"
	TierPartnerRequired ProviderTier = "partnerRequired"
	TierEnterpriseOnly  ProviderTier = "enterpriseOnly"
)

// CalendarRequest asks for one fare per departure day, starting at StartDate.
type CalendarRequest struct {
	From       string `json:"from"`
	To         string `json:"to"`
	StartDate  string `json:"startDate"`
	Days       int    `json:"days"`
	Adults     int    `json:"adults,omitempty"`
	CabinClass string `json:"cabinClass,omitempty"`
}

// Dates lists the departure days covered by the request as YYYY-MM-DD.
func (r CalendarRequest) Dates() ([]string, error) {
	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, r.Days)
	for i := 0; i < r.Days; i++ {
		dates = append(dates, start.AddDate(0, 0, i).Format(dateLayout))
	}
	return dates, nil
}

const dateLayout = "2006-01-02"

type DayPrice struct {
	Date     string  `json:"date"`
	PriceUSD float64 `json:"priceUSD"`
	Source   string  `json:"source"`
}

// Recommendation explains a selected booking day against the cheapest day.
type Recommendation struct {
	Day         int     `json:"day"`
	Date        string  `json:"date,omitempty"`
	Price       float64 `json:"price"`
	MinDay      int     `json:"minDay"`
	MinPrice    float64 `json:"minPrice"`
	Tolerance   float64 `json:"tolerance"`
	Threshold   float64 `json:"threshold"`
	Fallback    bool    `json:"fallback"`
	ExtraCost   float64 `json:"extraCost"`
	DaysEarlier int     `json:"daysEarlier"`
}

type CalendarResult struct {
	Query          CalendarRequest `json:"query"`
	Mode           config.Mode     `json:"mode"`
	Providers      []string        `json:"providers"`
	Days           []DayPrice      `json:"days"`
	Prices         []float64       `json:"prices"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Errors         []ProviderError `json:"errors,omitempty"`
	Cached         bool            `json:"cached,omitempty"`
	FetchedAt      time.Time       `json:"fetchedAt"`
}

type ProviderError struct {
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
	Fallback string `json:"fallback,omitempty"`
}

type ProviderInfo struct {
	Name         string       `json:"name"`
	Capabilities []Capability `json:"capabilities"`
	Tier         ProviderTier `json:"tier"`
	Status       string       `json:"status"`
	Reason       string       `json:"reason,omitempty"`
}

type DoctorReport struct {
	Mode      config.Mode    `json:"mode"`
	Tolerance float64        `json:"tolerance"`
	Window    int            `json:"windowDays"`
	History   string         `json:"history"`
	Providers []ProviderInfo `json:"providers"`
	Healthy   bool           `json:"healthy"`
	Summary   string         `json:"summary"`
}

type PriceAdapter interface {
	Name() string
	Tier() ProviderTier
	Capabilities() []Capability
	Available() (bool, string)
	DailyPrices(ctx context.Context, req CalendarRequest) ([]DayPrice, error)
}

// CalendarCache stores merged calendars between runs. Entries are scoped to
// the mode and the sorted names of the providers that were queried.
type CalendarCache interface {
	GetCalendar(req CalendarRequest, mode config.Mode, providers []string, ttl time.Duration) (*CalendarResult, bool)
	SetCalendar(req CalendarRequest, mode config.Mode, providers []string, result *CalendarResult) error
}
