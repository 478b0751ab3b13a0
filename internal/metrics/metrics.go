package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "booking_evaluations_total", Help: "Booking day evaluations by outcome"},
		[]string{"route", "status"},
	)
	RecommendedDay = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "booking_recommended_day", Help: "Day offset of the latest recommendation"},
		[]string{"route"},
	)
	RecommendedPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "booking_recommended_price_usd", Help: "Fare on the recommended day"},
		[]string{"route"},
	)
	MinPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "booking_min_price_usd", Help: "Cheapest fare in the window"},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(EvaluationsTotal, RecommendedDay, RecommendedPrice, MinPrice)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
