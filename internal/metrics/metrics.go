package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CandlesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "candles_total", Help: "Count of candles ingested"},
		[]string{"symbol"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Candidate signals by direction and outcome"},
		[]string{"symbol", "direction", "result"},
	)
	TicksSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_skipped_total", Help: "Live ticks skipped due to fetch failures"},
		[]string{"symbol"},
	)
	FetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fetch_failures_total", Help: "Market data fetch failures"},
		[]string{"symbol"},
	)
	PositionOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "position_open", Help: "1 while a position is open, 0 otherwise"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(CandlesTotal, SignalsTotal, TicksSkipped, FetchFailures, PositionOpen)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
