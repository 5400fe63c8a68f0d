package server

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/voltforge/stackopt/internal/optimization"
)

var (
	runsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stackopt",
		Name:      "runs_started_total",
		Help:      "Optimization runs accepted, by effective algorithm.",
	}, []string{"algorithm"})

	runsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stackopt",
		Name:      "runs_finished_total",
		Help:      "Optimization runs reaching a terminal state.",
	}, []string{"algorithm", "status"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stackopt",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of finished optimization runs.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"algorithm"})

	oracleEvaluations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stackopt",
		Name:      "oracle_evaluations_total",
		Help:      "Predictions requested from the oracle.",
	})
)

// InstrumentOracle counts every prediction flowing to the wrapped oracle.
func InstrumentOracle(o optimization.Oracle) optimization.Oracle {
	return optimization.OracleFunc(func(ctx context.Context, p optimization.DesignParameters) (optimization.Prediction, error) {
		oracleEvaluations.Inc()
		return o.Predict(ctx, p)
	})
}
