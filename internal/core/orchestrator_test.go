package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebot/booking-cli/internal/config"
)

type slowPriceAdapter struct {
	fakePriceAdapter
	delay time.Duration
}

func (s *slowPriceAdapter) DailyPrices(ctx context.Context, req CalendarRequest) ([]DayPrice, error) {
	time.Sleep(s.delay)
	return s.prices, nil
}

type memoryCache struct {
	stored map[string]*CalendarResult
	sets   int
}

func memoryCacheKey(req CalendarRequest, mode config.Mode, providers []string) string {
	return req.From + req.To + req.StartDate + string(mode) + strings.Join(providers, ",")
}

func (m *memoryCache) GetCalendar(req CalendarRequest, mode config.Mode, providers []string, ttl time.Duration) (*CalendarResult, bool) {
	r, ok := m.stored[memoryCacheKey(req, mode, providers)]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

func (m *memoryCache) SetCalendar(req CalendarRequest, mode config.Mode, providers []string, result *CalendarResult) error {
	if m.stored == nil {
		m.stored = map[string]*CalendarResult{}
	}
	m.sets++
	m.stored[memoryCacheKey(req, mode, providers)] = result
	return nil
}

func newTestOrchestrator(adapters ...PriceAdapter) *Orchestrator {
	router := NewRouter(&config.Config{Mode: config.ModeMock})
	for _, a := range adapters {
		router.Register(a)
	}
	return NewOrchestrator(router, zerolog.Nop())
}

var fiveDays = CalendarRequest{From: "YUL", To: "CDG", StartDate: "2026-06-01", Days: 5}

func TestBuildCalendar_MergesProviders(t *testing.T) {
	a := &fakePriceAdapter{name: "mock_a", avail: true, prices: []DayPrice{
		{Date: "2026-06-01", PriceUSD: 1000, Source: "mock_a"},
		{Date: "2026-06-02", PriceUSD: 950, Source: "mock_a"},
		{Date: "2026-06-03", PriceUSD: 990, Source: "mock_a"},
		{Date: "2026-06-05", PriceUSD: 850, Source: "mock_a"},
	}}
	b := &fakePriceAdapter{name: "mock_b", avail: true, prices: []DayPrice{
		{Date: "2026-06-03", PriceUSD: 900, Source: "mock_b"},
		{Date: "2026-06-04", PriceUSD: 1100, Source: "mock_b"},
		{Date: "2026-06-09", PriceUSD: 10, Source: "mock_b"},
	}}

	result, err := newTestOrchestrator(a, b).BuildCalendar(context.Background(), fiveDays)
	require.NoError(t, err)

	assert.Equal(t, []string{"mock_a", "mock_b"}, result.Providers)
	assert.Equal(t, []float64{1000, 950, 900, 1100, 850}, result.Prices)
	assert.Equal(t, "mock_b", result.Days[2].Source)
	assert.Empty(t, result.Errors)
}

func TestBuildCalendar_ProviderErrorCollected(t *testing.T) {
	ok := &fakePriceAdapter{name: "mock_ok", avail: true, prices: []DayPrice{{Date: "2026-06-01", PriceUSD: 300}}}
	bad := &fakePriceAdapter{name: "mock_bad", avail: true, err: errors.New("upstream 500")}

	result, err := newTestOrchestrator(ok, bad).BuildCalendar(context.Background(), fiveDays)
	require.NoError(t, err)

	assert.Equal(t, []string{"mock_ok"}, result.Providers)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "mock_bad", result.Errors[0].Provider)
	assert.Equal(t, "upstream 500", result.Errors[0].Reason)
}

func TestBuildCalendar_Timeout(t *testing.T) {
	slow := &slowPriceAdapter{
		fakePriceAdapter: fakePriceAdapter{name: "mock_slow", avail: true, prices: []DayPrice{{Date: "2026-06-01", PriceUSD: 1}}},
		delay:            200 * time.Millisecond,
	}

	orch := newTestOrchestrator(slow).WithTimeout(20*time.Millisecond, 0)
	result, err := orch.BuildCalendar(context.Background(), fiveDays)
	require.NoError(t, err)

	assert.Empty(t, result.Days)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "timeout", result.Errors[0].Reason)
}

func TestBuildCalendar_NoActiveProviders(t *testing.T) {
	result, err := newTestOrchestrator().BuildCalendar(context.Background(), fiveDays)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "none", result.Errors[0].Provider)
}

func TestBuildCalendar_InvalidRequest(t *testing.T) {
	orch := newTestOrchestrator()

	_, err := orch.BuildCalendar(context.Background(), CalendarRequest{StartDate: "2026-06-01", Days: 0})
	assert.Error(t, err)

	_, err = orch.BuildCalendar(context.Background(), CalendarRequest{StartDate: "06/01/2026", Days: 3})
	assert.Error(t, err)
}

func TestBuildCalendar_UsesCache(t *testing.T) {
	a := &fakePriceAdapter{name: "mock_a", avail: true, prices: []DayPrice{{Date: "2026-06-01", PriceUSD: 300}}}
	cache := &memoryCache{}
	orch := newTestOrchestrator(a).WithCache(cache, time.Minute)

	first, err := orch.BuildCalendar(context.Background(), fiveDays)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, cache.sets)

	a.prices = []DayPrice{{Date: "2026-06-01", PriceUSD: 999}}
	second, err := orch.BuildCalendar(context.Background(), fiveDays)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, []float64{300}, second.Prices)
}

func TestOrchestratorRecommend(t *testing.T) {
	a := &fakePriceAdapter{name: "mock_a", avail: true, prices: []DayPrice{
		{Date: "2026-06-01", PriceUSD: 1000},
		{Date: "2026-06-02", PriceUSD: 950},
		{Date: "2026-06-03", PriceUSD: 900},
		{Date: "2026-06-04", PriceUSD: 1100},
		{Date: "2026-06-05", PriceUSD: 850},
	}}

	result, err := newTestOrchestrator(a).Recommend(context.Background(), fiveDays, DefaultTolerance)
	require.NoError(t, err)
	require.NotNil(t, result.Recommendation)
	assert.Equal(t, 2, result.Recommendation.Day)
	assert.Equal(t, "2026-06-03", result.Recommendation.Date)
}

func TestOrchestratorRecommend_NoFares(t *testing.T) {
	a := &fakePriceAdapter{name: "mock_a", avail: true}

	result, err := newTestOrchestrator(a).Recommend(context.Background(), fiveDays, DefaultTolerance)
	assert.ErrorIs(t, err, ErrEmptySeries)
	require.NotNil(t, result)
	assert.Nil(t, result.Recommendation)
}

func TestBuildCalendar_CacheScopedToProviders(t *testing.T) {
	mockA := &fakePriceAdapter{name: "mock_a", avail: true, prices: []DayPrice{{Date: "2026-06-01", PriceUSD: 300}}}
	cache := &memoryCache{}

	_, err := newTestOrchestrator(mockA).WithCache(cache, time.Minute).BuildCalendar(context.Background(), fiveDays)
	require.NoError(t, err)

	mockB := &fakePriceAdapter{name: "mock_b", avail: true, prices: []DayPrice{{Date: "2026-06-01", PriceUSD: 250}}}
	result, err := newTestOrchestrator(mockA, mockB).WithCache(cache, time.Minute).BuildCalendar(context.Background(), fiveDays)
	require.NoError(t, err)

	assert.False(t, result.Cached)
	assert.Equal(t, []float64{250}, result.Prices)
	assert.Equal(t, 2, cache.sets)
}

func TestBuildCalendar_DeadlineScalesWithWindow(t *testing.T) {
	slow := &slowPriceAdapter{
		fakePriceAdapter: fakePriceAdapter{name: "mock_slow", avail: true, prices: []DayPrice{{Date: "2026-06-01", PriceUSD: 410}}},
		delay:            60 * time.Millisecond,
	}

	orch := newTestOrchestrator(slow).WithTimeout(10*time.Millisecond, 20*time.Millisecond)
	result, err := orch.BuildCalendar(context.Background(), fiveDays)
	require.NoError(t, err)

	assert.Empty(t, result.Errors)
	assert.Equal(t, []float64{410}, result.Prices)
}
