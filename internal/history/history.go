// Package history keeps a log of past booking recommendations.
package history

import (
	"context"
	"time"

	"github.com/beetlebot/booking-cli/internal/core"
)

// Entry is one recommendation as it was made.
type Entry struct {
	ID        string    `json:"id"`
	Route     string    `json:"route,omitempty"`
	Source    string    `json:"source"`
	StartDate string    `json:"startDate,omitempty"`
	Prices    []float64 `json:"prices"`
	Tolerance float64   `json:"tolerance"`
	Day       int       `json:"day"`
	Date      string    `json:"date,omitempty"`
	Price     float64   `json:"price"`
	MinDay    int       `json:"minDay"`
	MinPrice  float64   `json:"minPrice"`
	Fallback  bool      `json:"fallback"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEntry flattens a recommendation over prices into an Entry.
func NewEntry(source, route, startDate string, prices []float64, rec *core.Recommendation) Entry {
	return Entry{
		Route:     route,
		Source:    source,
		StartDate: startDate,
		Prices:    prices,
		Tolerance: rec.Tolerance,
		Day:       rec.Day,
		Date:      rec.Date,
		Price:     rec.Price,
		MinDay:    rec.MinDay,
		MinPrice:  rec.MinPrice,
		Fallback:  rec.Fallback,
	}
}

type Store interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// NoopStore is used when no history database is configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (NoopStore) Record(_ context.Context, _ Entry) error          { return nil }
func (NoopStore) Recent(_ context.Context, _ int) ([]Entry, error) { return nil, nil }
func (NoopStore) Close() error                                     { return nil }
