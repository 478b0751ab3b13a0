package cache

import (
	"testing"
	"time"

	"github.com/beetlebot/booking-cli/internal/config"
	"github.com/beetlebot/booking-cli/internal/core"
)

func TestFileCache_SetAndGet(t *testing.T) {
	c, err := NewAt(t.TempDir())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	err = c.Set("test-key", []byte(`{"hello":"world"}`))
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}

	data, ok := c.Get("test-key", 5*time.Minute)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(data) != `{"hello":"world"}` {
		t.Errorf("unexpected data: %s", string(data))
	}
}

func TestFileCache_Expiry(t *testing.T) {
	c := &FileCache{dir: t.TempDir()}

	_ = c.Set("expire-key", []byte(`data`))

	_, ok := c.Get("expire-key", 0)
	if ok {
		t.Error("expected cache miss due to zero TTL")
	}
}

func TestFileCache_Clear(t *testing.T) {
	c := &FileCache{dir: t.TempDir()}
	_ = c.Set("k1", []byte("v1"))
	_ = c.Set("k2", []byte("v2"))

	err := c.Clear()
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	_, ok1 := c.Get("k1", 5*time.Minute)
	_, ok2 := c.Get("k2", 5*time.Minute)
	if ok1 || ok2 {
		t.Error("expected all keys cleared")
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	k1 := CacheKey("calendar", "YUL", "CDG", "2026-06-12")
	k2 := CacheKey("calendar", "YUL", "CDG", "2026-06-12")
	if k1 != k2 {
		t.Error("cache keys should be deterministic")
	}

	k3 := CacheKey("calendar", "YUL", "CDG", "2026-06-13")
	if k1 == k3 {
		t.Error("different inputs should produce different keys")
	}
}

func TestFileCache_Calendar(t *testing.T) {
	c := &FileCache{dir: t.TempDir()}
	req := core.CalendarRequest{From: "yul", To: "cdg", StartDate: "2026-06-01", Days: 2}
	in := &core.CalendarResult{
		Query:     req,
		Mode:      config.ModeMock,
		Providers: []string{"mock_calendar"},
		Days:      []core.DayPrice{{Date: "2026-06-01", PriceUSD: 420}, {Date: "2026-06-02", PriceUSD: 399}},
		Prices:    []float64{420, 399},
	}

	if err := c.SetCalendar(req, config.ModeMock, []string{"mock_calendar"}, in); err != nil {
		t.Fatalf("set calendar: %v", err)
	}

	out, ok := c.GetCalendar(core.CalendarRequest{From: "YUL", To: "CDG", StartDate: "2026-06-01", Days: 2}, config.ModeMock, []string{"mock_calendar"}, time.Minute)
	if !ok {
		t.Fatal("expected calendar hit with upper-cased route")
	}
	if len(out.Prices) != 2 || out.Prices[1] != 399 {
		t.Errorf("unexpected prices: %v", out.Prices)
	}

	if _, ok := c.GetCalendar(req, config.ModeLive, []string{"mock_calendar"}, time.Minute); ok {
		t.Error("calendars must not be shared across modes")
	}
}

func TestFileCache_CalendarKeyedByProviders(t *testing.T) {
	c := &FileCache{dir: t.TempDir()}
	req := core.CalendarRequest{From: "YUL", To: "CDG", StartDate: "2026-06-01", Days: 2}
	in := &core.CalendarResult{Query: req, Mode: config.ModeHybrid, Prices: []float64{420, 399}}

	if err := c.SetCalendar(req, config.ModeHybrid, []string{"mock_calendar"}, in); err != nil {
		t.Fatalf("set calendar: %v", err)
	}
	if _, ok := c.GetCalendar(req, config.ModeHybrid, []string{"duffel"}, time.Minute); ok {
		t.Error("a calendar built from other providers must not be served")
	}

	if err := c.SetCalendar(req, config.ModeHybrid, []string{"mock_calendar", "duffel"}, in); err != nil {
		t.Fatalf("set calendar: %v", err)
	}
	if _, ok := c.GetCalendar(req, config.ModeHybrid, []string{"duffel", "mock_calendar"}, time.Minute); !ok {
		t.Error("provider order should not change the key")
	}
}
