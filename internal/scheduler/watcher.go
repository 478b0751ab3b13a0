package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/beetlebot/booking-cli/internal/core"
	"github.com/beetlebot/booking-cli/internal/history"
	"github.com/beetlebot/booking-cli/internal/metrics"
)

// Recommender is satisfied by *core.Orchestrator.
type Recommender interface {
	Recommend(ctx context.Context, req core.CalendarRequest, tolerance float64) (*core.CalendarResult, error)
}

// Watcher re-evaluates the booking day for one route on a cron schedule.
type Watcher struct {
	cron      *cron.Cron
	rec       Recommender
	store     history.Store
	log       zerolog.Logger
	ctx       context.Context
	req       core.CalendarRequest
	tolerance float64
	onResult  func(*core.CalendarResult)

	mu   sync.Mutex
	last *core.CalendarResult
}

func NewWatcher(ctx context.Context, rec Recommender, store history.Store, log zerolog.Logger, req core.CalendarRequest, tolerance float64) *Watcher {
	return &Watcher{
		cron:      cron.New(),
		rec:       rec,
		store:     store,
		log:       log,
		ctx:       ctx,
		req:       req,
		tolerance: tolerance,
	}
}

// OnResult registers a callback run after every successful evaluation.
func (w *Watcher) OnResult(fn func(*core.CalendarResult)) {
	w.onResult = fn
}

// Register schedules evaluations with a standard five-field cron spec.
func (w *Watcher) Register(spec string) error {
	if _, err := w.cron.AddFunc(spec, w.evaluate); err != nil {
		return fmt.Errorf("register watch %q: %w", spec, err)
	}
	return nil
}

func (w *Watcher) Start() {
	w.cron.Start()
	w.log.Info().Str("route", w.route()).Msg("watcher started")
}

// Stop halts the schedule and waits for a running evaluation to finish.
func (w *Watcher) Stop() {
	<-w.cron.Stop().Done()
	w.log.Info().Str("route", w.route()).Msg("watcher stopped")
}

// RunNow evaluates once immediately.
func (w *Watcher) RunNow() (*core.CalendarResult, error) {
	return w.run()
}

func (w *Watcher) Last() *core.CalendarResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *Watcher) evaluate() {
	if _, err := w.run(); err != nil {
		w.log.Error().Err(err).Str("route", w.route()).Msg("scheduled evaluation failed")
	}
}

func (w *Watcher) run() (*core.CalendarResult, error) {
	route := w.route()
	req := w.req
	if req.StartDate == "" {
		req.StartDate = today()
	}

	result, err := w.rec.Recommend(w.ctx, req, w.tolerance)
	if err != nil {
		metrics.EvaluationsTotal.WithLabelValues(route, "error").Inc()
		return result, err
	}
	rec := result.Recommendation

	status := "ok"
	if rec.Fallback {
		status = "fallback"
	}
	metrics.EvaluationsTotal.WithLabelValues(route, status).Inc()
	metrics.RecommendedDay.WithLabelValues(route).Set(float64(rec.Day))
	metrics.RecommendedPrice.WithLabelValues(route).Set(rec.Price)
	metrics.MinPrice.WithLabelValues(route).Set(rec.MinPrice)

	source := "calendar"
	if len(result.Providers) > 0 {
		source = result.Providers[0]
	}
	entry := history.NewEntry(source, route, req.StartDate, result.Prices, rec)
	if err := w.store.Record(w.ctx, entry); err != nil {
		w.log.Error().Err(err).Msg("record recommendation")
	}

	w.log.Info().
		Str("route", route).
		Int("day", rec.Day).
		Str("date", rec.Date).
		Float64("price", rec.Price).
		Float64("min_price", rec.MinPrice).
		Msg("booking day evaluated")

	w.mu.Lock()
	w.last = result
	w.mu.Unlock()

	if w.onResult != nil {
		w.onResult(result)
	}
	return result, nil
}

func (w *Watcher) route() string {
	return w.req.From + "-" + w.req.To
}
