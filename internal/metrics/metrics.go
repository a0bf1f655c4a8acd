package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"SurgeScreener/internal/model"
)

var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "screener_runs_total", Help: "Screener batches by final status"},
		[]string{"interval", "status"},
	)
	SymbolOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "screener_symbol_outcomes_total", Help: "Per-symbol outcomes, evaluated or skip reason"},
		[]string{"interval", "outcome"},
	)
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "screener_run_duration_seconds",
			Help:    "Wall time of a full batch",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"interval"},
	)
	Shockers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "screener_shockers", Help: "Shockers at the configured threshold in the latest batch"},
		[]string{"interval"},
	)
)

func init() {
	prometheus.MustRegister(RunsTotal, SymbolOutcomesTotal, RunDuration, Shockers)
}

// Observer counts per-symbol outcomes as the screener produces them.
type Observer struct{}

func (Observer) ObserveOutcome(iv model.Interval, o model.Outcome) {
	outcome := "evaluated"
	if o.Skip != nil {
		outcome = o.Skip.Reason
	}
	SymbolOutcomesTotal.WithLabelValues(string(iv), outcome).Inc()
}

// ObserveBatch records a finished batch and its shocker count.
func ObserveBatch(batch *model.Batch, shockers int) {
	iv := string(batch.Interval)
	RunsTotal.WithLabelValues(iv, "ok").Inc()
	RunDuration.WithLabelValues(iv).Observe(batch.Duration.Seconds())
	Shockers.WithLabelValues(iv).Set(float64(shockers))
}

// ObserveFailure counts a batch that aborted.
func ObserveFailure(iv model.Interval) {
	RunsTotal.WithLabelValues(string(iv), "failed").Inc()
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
