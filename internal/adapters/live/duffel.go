package live

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/beetlebot/booking-cli/internal/core"
)

const (
	duffelBaseURL = "https://api.duffel.com"
	duffelVersion = "v2"

	defaultConcurrency = 4
)

// DuffelCalendarAdapter builds a fare calendar from Duffel offer requests,
// one request per departure day, issued concurrently.
// Duffel is self-serve friendly: https://duffel.com (free tier available).
// Set DUFFEL_API_TOKEN to enable.
type DuffelCalendarAdapter struct {
	baseURL     string
	token       string
	client      *http.Client
	concurrency int
	log         zerolog.Logger
}

func NewDuffelCalendarAdapter() *DuffelCalendarAdapter {
	return &DuffelCalendarAdapter{
		baseURL:     duffelBaseURL,
		token:       os.Getenv("DUFFEL_API_TOKEN"),
		client:      &http.Client{Timeout: 30 * time.Second},
		concurrency: defaultConcurrency,
		log:         zerolog.Nop(),
	}
}

// WithBaseURL points the adapter at another Duffel-compatible endpoint.
func (a *DuffelCalendarAdapter) WithBaseURL(u string) *DuffelCalendarAdapter {
	a.baseURL = strings.TrimRight(u, "/")
	return a
}

func (a *DuffelCalendarAdapter) WithToken(token string) *DuffelCalendarAdapter {
	a.token = token
	return a
}

// WithConcurrency caps the number of offer requests in flight. Values
// below 1 keep the default.
func (a *DuffelCalendarAdapter) WithConcurrency(n int) *DuffelCalendarAdapter {
	if n > 0 {
		a.concurrency = n
	}
	return a
}

func (a *DuffelCalendarAdapter) WithLogger(log zerolog.Logger) *DuffelCalendarAdapter {
	a.log = log
	return a
}

func (a *DuffelCalendarAdapter) Name() string            { return "duffel" }
func (a *DuffelCalendarAdapter) Tier() core.ProviderTier { return core.TierEasySignup }
func (a *DuffelCalendarAdapter) Capabilities() []core.Capability {
	return []core.Capability{core.CapPriceCalendar, core.CapLiveFares}
}

func (a *DuffelCalendarAdapter) Available() (bool, string) {
	if a.token == "" {
		return false, "set DUFFEL_API_TOKEN (sign up free at https://duffel.com)"
	}
	return true, ""
}

type duffelOfferRequest struct {
	Data duffelOfferRequestData `json:"data"`
}

type duffelOfferRequestData struct {
	Slices     []duffelSlice     `json:"slices"`
	Passengers []duffelPassenger `json:"passengers"`
	CabinClass string            `json:"cabin_class,omitempty"`
}

type duffelSlice struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

type duffelPassenger struct {
	Type string `json:"type"`
}

type duffelOfferResponse struct {
	Data struct {
		Offers []duffelOffer `json:"offers"`
	} `json:"data"`
}

type duffelOffer struct {
	ID            string `json:"id"`
	TotalAmount   string `json:"total_amount"`
	TotalCurrency string `json:"total_currency"`
}

type duffelErrorResponse struct {
	Errors []struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (a *DuffelCalendarAdapter) DailyPrices(ctx context.Context, req core.CalendarRequest) ([]core.DayPrice, error) {
	if ok, reason := a.Available(); !ok {
		return nil, fmt.Errorf("duffel unavailable: %s", reason)
	}
	dates, err := req.Dates()
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}

	type dayResult struct {
		price decimal.Decimal
		found bool
		err   error
	}
	var (
		wg        sync.WaitGroup
		results   = make([]dayResult, len(dates))
		semaphore = make(chan struct{}, a.concurrency)
	)
	for i, date := range dates {
		wg.Add(1)
		go func(i int, date string) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				results[i].err = ctx.Err()
				return
			}
			defer func() { <-semaphore }()

			price, found, err := a.cheapestOffer(ctx, req, date)
			results[i] = dayResult{price: price, found: found, err: err}
		}(i, date)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		out      []core.DayPrice
		firstErr error
		failed   int
	)
	for i, r := range results {
		if r.err != nil {
			failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("duffel %s: %w", dates[i], r.err)
			}
			a.log.Warn().Err(r.err).Str("date", dates[i]).Msg("duffel day skipped")
			continue
		}
		if !r.found {
			continue
		}
		out = append(out, core.DayPrice{
			Date:     dates[i],
			PriceUSD: r.price.InexactFloat64(),
			Source:   a.Name(),
		})
	}
	if failed == len(dates) {
		return nil, firstErr
	}
	return out, nil
}

// cheapestOffer returns the lowest USD total among the offers for one day.
// Offers priced in other currencies are ignored.
func (a *DuffelCalendarAdapter) cheapestOffer(ctx context.Context, req core.CalendarRequest, date string) (decimal.Decimal, bool, error) {
	adults := req.Adults
	if adults < 1 {
		adults = 1
	}
	body := duffelOfferRequest{Data: duffelOfferRequestData{
		Slices: []duffelSlice{{
			Origin:        strings.ToUpper(req.From),
			Destination:   strings.ToUpper(req.To),
			DepartureDate: date,
		}},
		CabinClass: req.CabinClass,
	}}
	for i := 0; i < adults; i++ {
		body.Data.Passengers = append(body.Data.Passengers, duffelPassenger{Type: "adult"})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return decimal.Zero, false, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/air/offer_requests?return_offers=true", bytes.NewReader(payload))
	if err != nil {
		return decimal.Zero, false, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.token)
	httpReq.Header.Set("Duffel-Version", duffelVersion)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return decimal.Zero, false, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return decimal.Zero, false, duffelError(resp.StatusCode, raw)
	}

	var parsed duffelOfferResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return decimal.Zero, false, fmt.Errorf("decode offers: %w", err)
	}

	var (
		best  decimal.Decimal
		found bool
	)
	for _, offer := range parsed.Data.Offers {
		if !strings.EqualFold(offer.TotalCurrency, "USD") {
			continue
		}
		amount, err := decimal.NewFromString(offer.TotalAmount)
		if err != nil {
			continue
		}
		if !found || amount.LessThan(best) {
			best = amount
			found = true
		}
	}
	return best, found, nil
}

func duffelError(status int, raw []byte) error {
	var parsed duffelErrorResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && len(parsed.Errors) > 0 {
		e := parsed.Errors[0]
		msg := e.Message
		if msg == "" {
			msg = e.Title
		}
		return fmt.Errorf("status %d: %s", status, msg)
	}
	return fmt.Errorf("status %d", status)
}
