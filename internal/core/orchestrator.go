package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 15 * time.Second

type Orchestrator struct {
	router     *Router
	log        zerolog.Logger
	cache      CalendarCache
	cacheTTL   time.Duration
	timeout    time.Duration
	dayTimeout time.Duration
}

func NewOrchestrator(router *Router, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{router: router, log: log, timeout: defaultTimeout}
}

// WithCache enables calendar caching. A nil cache or non-positive ttl disables it.
func (o *Orchestrator) WithCache(cache CalendarCache, ttl time.Duration) *Orchestrator {
	if cache == nil || ttl <= 0 {
		o.cache = nil
		return o
	}
	o.cache = cache
	o.cacheTTL = ttl
	return o
}

// WithTimeout sets the calendar deadline: base plus perDay for every day in
// the requested window. A non-positive base keeps the default.
func (o *Orchestrator) WithTimeout(base, perDay time.Duration) *Orchestrator {
	if base > 0 {
		o.timeout = base
	}
	if perDay >= 0 {
		o.dayTimeout = perDay
	}
	return o
}

func (o *Orchestrator) deadline(req CalendarRequest) time.Duration {
	return o.timeout + time.Duration(req.Days)*o.dayTimeout
}

// BuildCalendar queries every active provider in parallel and merges their
// quotes into one cheapest-fare-per-day calendar.
func (o *Orchestrator) BuildCalendar(ctx context.Context, req CalendarRequest) (*CalendarResult, error) {
	if req.Days < 1 {
		return nil, fmt.Errorf("calendar window must cover at least one day, got %d", req.Days)
	}
	dates, err := req.Dates()
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}

	mode := o.router.cfg.Mode
	adapters := o.router.ActiveAdapters()
	scope := adapterNames(adapters)
	if o.cache != nil {
		if cached, ok := o.cache.GetCalendar(req, mode, scope, o.cacheTTL); ok {
			o.log.Debug().Str("from", req.From).Str("to", req.To).Msg("calendar cache hit")
			cached.Cached = true
			return cached, nil
		}
	}

	if len(adapters) == 0 {
		return &CalendarResult{
			Query:     req,
			Mode:      mode,
			Errors:    []ProviderError{{Provider: "none", Reason: "no active price providers for current mode"}},
			FetchedAt: time.Now().UTC(),
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.deadline(req))
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		byIndex  = make([][]DayPrice, len(adapters))
		provUsed = make([]bool, len(adapters))
		errs     []ProviderError
	)

	for i, a := range adapters {
		wg.Add(1)
		go func(i int, adapter PriceAdapter) {
			defer wg.Done()

			done := make(chan struct{})
			var results []DayPrice
			var err error

			go func() {
				results, err = adapter.DailyPrices(ctx, req)
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				mu.Lock()
				errs = append(errs, ProviderError{
					Provider: adapter.Name(),
					Reason:   "timeout",
					Fallback: "quotes from other providers may still be available",
				})
				mu.Unlock()
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.log.Warn().Err(err).Str("provider", adapter.Name()).Msg("price provider failed")
				errs = append(errs, ProviderError{
					Provider: adapter.Name(),
					Reason:   err.Error(),
				})
				return
			}
			byIndex[i] = results
			provUsed[i] = true
		}(i, a)
	}

	wg.Wait()

	var (
		quotes    []DayPrice
		providers []string
	)
	for i, a := range adapters {
		if !provUsed[i] {
			continue
		}
		quotes = append(quotes, byIndex[i]...)
		providers = append(providers, a.Name())
	}

	days := WithinWindow(MergeDayPrices(quotes), dates)
	result := &CalendarResult{
		Query:     req,
		Mode:      mode,
		Providers: providers,
		Days:      days,
		Prices:    PriceSeries(days),
		Errors:    errs,
		FetchedAt: time.Now().UTC(),
	}

	o.log.Info().
		Str("from", req.From).
		Str("to", req.To).
		Int("days", len(days)).
		Int("providers", len(providers)).
		Int("errors", len(errs)).
		Msg("calendar built")

	if o.cache != nil && len(days) > 0 && len(errs) == 0 {
		if err := o.cache.SetCalendar(req, mode, scope, result); err != nil {
			o.log.Warn().Err(err).Msg("calendar cache write failed")
		}
	}
	return result, nil
}

func adapterNames(adapters []PriceAdapter) []string {
	names := make([]string, 0, len(adapters))
	for _, a := range adapters {
		names = append(names, a.Name())
	}
	sort.Strings(names)
	return names
}

// Recommend builds the calendar and picks the booking day from it. The
// calendar is returned even when no day could be recommended.
func (o *Orchestrator) Recommend(ctx context.Context, req CalendarRequest, tolerance float64) (*CalendarResult, error) {
	result, err := o.BuildCalendar(ctx, req)
	if err != nil {
		return nil, err
	}

	rec, err := Recommend(result.Prices, tolerance)
	if err != nil {
		if errors.Is(err, ErrEmptySeries) {
			return result, fmt.Errorf("no fares found for %s-%s: %w", req.From, req.To, err)
		}
		return result, err
	}
	rec.Date = result.Days[rec.Day].Date
	result.Recommendation = rec
	return result, nil
}
