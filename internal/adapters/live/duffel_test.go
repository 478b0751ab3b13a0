package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebot/booking-cli/internal/config"
	"github.com/beetlebot/booking-cli/internal/core"
)

func TestDuffel_Available(t *testing.T) {
	a := NewDuffelCalendarAdapter().WithToken("")
	ok, reason := a.Available()
	assert.False(t, ok)
	assert.Contains(t, reason, "DUFFEL_API_TOKEN")

	ok, _ = a.WithToken("duffel_test_abc").Available()
	assert.True(t, ok)
}

func TestDuffel_DailyPricesCheapestUSDOffer(t *testing.T) {
	offersByDate := map[string]string{
		"2026-06-01": `{"data":{"offers":[{"id":"off_1","total_amount":"512.40","total_currency":"USD"},{"id":"off_2","total_amount":"498.10","total_currency":"USD"},{"id":"off_3","total_amount":"100.00","total_currency":"EUR"}]}}`,
		"2026-06-02": `{"data":{"offers":[]}}`,
		"2026-06-03": `{"data":{"offers":[{"id":"off_4","total_amount":"455.00","total_currency":"usd"}]}}`,
	}

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/air/offer_requests", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("return_offers"))
		assert.Equal(t, "Bearer duffel_test_abc", r.Header.Get("Authorization"))
		assert.Equal(t, "v2", r.Header.Get("Duffel-Version"))

		var body duffelOfferRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Data.Slices, 1)
		assert.Equal(t, "YUL", body.Data.Slices[0].Origin)
		assert.Len(t, body.Data.Passengers, 2)

		_, _ = w.Write([]byte(offersByDate[body.Data.Slices[0].DepartureDate]))
	}))
	defer srv.Close()

	a := NewDuffelCalendarAdapter().WithBaseURL(srv.URL).WithToken("duffel_test_abc")
	days, err := a.DailyPrices(context.Background(), core.CalendarRequest{
		From: "yul", To: "cdg", StartDate: "2026-06-01", Days: 3, Adults: 2, CabinClass: "economy",
	})
	require.NoError(t, err)

	assert.Equal(t, int32(3), requests.Load())
	assert.Equal(t, []core.DayPrice{
		{Date: "2026-06-01", PriceUSD: 498.10, Source: "duffel"},
		{Date: "2026-06-03", PriceUSD: 455.00, Source: "duffel"},
	}, days)
}

func TestDuffel_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"title":"Unauthorized","message":"The access token is invalid"}]}`))
	}))
	defer srv.Close()

	a := NewDuffelCalendarAdapter().WithBaseURL(srv.URL).WithToken("bad")
	_, err := a.DailyPrices(context.Background(), core.CalendarRequest{From: "YUL", To: "CDG", StartDate: "2026-06-01", Days: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401: The access token is invalid")
}

func TestDuffel_NoToken(t *testing.T) {
	a := NewDuffelCalendarAdapter().WithToken("")
	_, err := a.DailyPrices(context.Background(), core.CalendarRequest{StartDate: "2026-06-01", Days: 1})
	assert.Error(t, err)
}

// offerServer answers every offer request after delay with one USD offer
// priced by departure day, and tracks the peak number of requests in flight.
func offerServer(t *testing.T, delay time.Duration, failDate string, inFlight, peak *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}

		var body duffelOfferRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Data.Slices) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		date := body.Data.Slices[0].DepartureDate
		time.Sleep(delay)

		if date == failDate {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"errors":[{"title":"Invalid","message":"no route"}]}`))
			return
		}
		day, _ := time.Parse("2006-01-02", date)
		_, _ = fmt.Fprintf(w, `{"data":{"offers":[{"id":"off_%s","total_amount":"%d.00","total_currency":"USD"}]}}`, date, 400+day.Day())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDuffel_DailyPricesBoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := offerServer(t, 50*time.Millisecond, "", &inFlight, &peak)

	a := NewDuffelCalendarAdapter().WithBaseURL(srv.URL).WithToken("duffel_test_abc").WithConcurrency(3)
	start := time.Now()
	days, err := a.DailyPrices(context.Background(), core.CalendarRequest{
		From: "YUL", To: "CDG", StartDate: "2026-06-01", Days: 12,
	})
	elapsed := time.Since(start)
	require.NoError(t, err)

	require.Len(t, days, 12)
	for i, d := range days {
		assert.Equal(t, fmt.Sprintf("2026-06-%02d", i+1), d.Date)
		assert.Equal(t, float64(401+i), d.PriceUSD)
	}
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Greater(t, peak.Load(), int32(1))
	assert.Less(t, elapsed, 12*50*time.Millisecond)
}

func TestDuffel_FailedDaySkipped(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := offerServer(t, 0, "2026-06-03", &inFlight, &peak)

	a := NewDuffelCalendarAdapter().WithBaseURL(srv.URL).WithToken("duffel_test_abc").WithLogger(zerolog.Nop())
	days, err := a.DailyPrices(context.Background(), core.CalendarRequest{
		From: "YUL", To: "CDG", StartDate: "2026-06-01", Days: 5,
	})
	require.NoError(t, err)

	require.Len(t, days, 4)
	for _, d := range days {
		assert.NotEqual(t, "2026-06-03", d.Date)
	}
	assert.Equal(t, "2026-06-04", days[2].Date)
}

func TestDuffel_CancelledContext(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := offerServer(t, 0, "", &inFlight, &peak)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewDuffelCalendarAdapter().WithBaseURL(srv.URL).WithToken("duffel_test_abc")
	_, err := a.DailyPrices(ctx, core.CalendarRequest{From: "YUL", To: "CDG", StartDate: "2026-06-01", Days: 3})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDuffel_LiveCalendarWithinDeadline(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := offerServer(t, 200*time.Millisecond, "", &inFlight, &peak)

	router := core.NewRouter(&config.Config{Mode: config.ModeLive})
	router.Register(NewDuffelCalendarAdapter().WithBaseURL(srv.URL).WithToken("duffel_test_abc").WithConcurrency(10))
	orch := core.NewOrchestrator(router, zerolog.Nop()).WithTimeout(3*time.Second, 0)

	result, err := orch.Recommend(context.Background(), core.CalendarRequest{
		From: "YUL", To: "CDG", StartDate: "2026-06-01", Days: 30,
	}, core.DefaultTolerance)
	require.NoError(t, err)

	assert.Empty(t, result.Errors)
	assert.Len(t, result.Prices, 30)
	require.NotNil(t, result.Recommendation)
	assert.Equal(t, 0, result.Recommendation.Day)
	assert.Equal(t, "2026-06-01", result.Recommendation.Date)
}
