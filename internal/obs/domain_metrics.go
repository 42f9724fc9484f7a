package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// DocumentComputeTotal counts document amount computations by document
	// type and outcome.
	DocumentComputeTotal *prometheus.CounterVec
	// ComparisonComputeDuration records least-value recomputation latency
	// in milliseconds.
	ComparisonComputeDuration prometheus.Histogram
	// ComparisonCacheTotal counts comparison cache lookups by result.
	ComparisonCacheTotal *prometheus.CounterVec
	// NegotiationComputeTotal counts negotiation savings computations by
	// outcome.
	NegotiationComputeTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific
// Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		DocumentComputeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_compute_total",
			Help:      "Count of document amount computations by outcome.",
		}, []string{"doc_type", "result"})
		ComparisonComputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "comparison_compute_duration_ms",
			Help:      "Latency of comparison sheet recomputation in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		})
		ComparisonCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparison_cache_total",
			Help:      "Count of comparison cache lookups by result.",
		}, []string{"result"})
		NegotiationComputeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negotiation_compute_total",
			Help:      "Count of negotiation savings computations by outcome.",
		}, []string{"result"})

		registerOrReuse(reg, DocumentComputeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DocumentComputeTotal = v
			}
		})
		registerOrReuse(reg, ComparisonComputeDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				ComparisonComputeDuration = v
			}
		})
		registerOrReuse(reg, ComparisonCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ComparisonCacheTotal = v
			}
		})
		registerOrReuse(reg, NegotiationComputeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				NegotiationComputeTotal = v
			}
		})
	})
}

func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			reuse(are.ExistingCollector)
			return
		}
		panic(err)
	}
}
