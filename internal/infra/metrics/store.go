package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(storeOpLatencyMs, outboxDepth)
}

var (
	storeOpLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_op_latency_ms",
			Help:    "Store operation latency in milliseconds, per store and op.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"store", "op", "success"}, // store: redis | postgres
	)

	outboxDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "accounting_outbox_depth",
			Help: "Entries pending in the accounting outbox.",
		},
	)
)

func ObserveStoreOp(store, op string, start time.Time, err error) {
	storeOpLatencyMs.WithLabelValues(norm(store), norm(op), strconv.FormatBool(err == nil)).
		Observe(float64(time.Since(start).Milliseconds()))
}

func SetOutboxDepth(n int64) { outboxDepth.Set(float64(n)) }
