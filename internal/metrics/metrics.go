// Package metrics exposes prometheus counters for cart consolidation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cartMutations counts settled cart operations by operation and result.
	cartMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tokocart_cart_operations_total",
		Help: "Total cart operations by operation and result",
	}, []string{"operation", "result"})

	// mergesTotal counts successful merges by trigger.
	mergesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tokocart_cart_merges_total",
		Help: "Total successful cart merges by trigger",
	}, []string{"trigger"})

	autoMergedPairs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tokocart_auto_merge_pairs",
		Help:    "Pairs merged per auto-merge pass",
		Buckets: []float64{0, 1, 2, 5, 10, 20},
	})

	persistDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tokocart_persist_duration_seconds",
		Help:    "Time spent replacing an order's cart collection",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"result"})
)

// ObserveOperation records the outcome of a cart operation.
func ObserveOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cartMutations.WithLabelValues(operation, result).Inc()
}

// ObserveMerge records a successful merge.
func ObserveMerge(trigger string) {
	mergesTotal.WithLabelValues(trigger).Inc()
}

// ObserveAutoMerge records how many pairs one auto-merge pass applied.
func ObserveAutoMerge(pairs int) {
	autoMergedPairs.Observe(float64(pairs))
}

// ObservePersist records a persistence call that started at start.
func ObservePersist(start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	persistDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
