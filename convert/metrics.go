package convert

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wyfcoding/coordtransform/metrics"
)

// serviceMetrics 汇总转换服务的业务指标。
type serviceMetrics struct {
	conversions       *prometheus.CounterVec
	failures          *prometheus.CounterVec
	solverIterations  *prometheus.HistogramVec
	solverUnconverged *prometheus.CounterVec
	distances         *prometheus.CounterVec
	distanceFallbacks prometheus.Counter
	cacheLookups      *prometheus.CounterVec
	batchSize         prometheus.Observer
}

func newServiceMetrics(m *metrics.Metrics) *serviceMetrics {
	return &serviceMetrics{
		conversions: m.NewCounterVec(prometheus.CounterOpts{
			Name: "conversions_total",
			Help: "Number of coordinate conversions by source and target frame",
		}, []string{"from", "to"}),
		failures: m.NewCounterVec(prometheus.CounterOpts{
			Name: "conversion_failures_total",
			Help: "Number of rejected conversions by reason",
		}, []string{"reason"}),
		solverIterations: m.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "solver_iterations",
			Help:    "Bisection iterations used by the exact GCJ02 inverse",
			Buckets: []float64{5, 10, 15, 20, 25, 30, 40, 60, 100, 1000, 10000},
		}, []string{"from"}),
		solverUnconverged: m.NewCounterVec(prometheus.CounterOpts{
			Name: "solver_unconverged_total",
			Help: "Number of exact inversions that hit the iteration cap",
		}, []string{"from"}),
		distances: m.NewCounterVec(prometheus.CounterOpts{
			Name: "distances_total",
			Help: "Number of distance computations by method",
		}, []string{"method"}),
		distanceFallbacks: m.NewCounter(prometheus.CounterOpts{
			Name: "distance_fallbacks_total",
			Help: "Number of Vincenty computations that failed to converge and returned 0",
		}),
		cacheLookups: m.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Exact inverse cache lookups by result",
		}, []string{"result"}),
		batchSize: m.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "batch_points",
			Help:    "Number of points per batch conversion",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}, nil).WithLabelValues(),
	}
}
