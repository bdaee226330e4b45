// Package metrics exports Prometheus metrics on outcalls, transforms and
// replica agreement.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// See the metrics initialization below for details.
const (
	outcallSubsystem = "outcall"

	outcallsTotalMetric             = "requests_total"
	outcallCyclesAttachedMetric     = "cycles_attached"
	outcallResponseSizeBytesMetric  = "response_size_bytes"
	outcallDurationSecondsMetric    = "request_duration_seconds"
	transformsTotalMetric           = "transforms_total"
	replicaAgreementFractionMetric  = "replica_agreement_fraction"
	replicaFetchesTotalMetric       = "replica_fetches_total"
	ledgerDebitsTotalMetric         = "ledger_debits_total"
	outcallOutcomeSuccess           = "success"
	outcallOutcomeRejected          = "rejected"
	transformResultOK               = "ok"
	transformResultPassthroughError = "upstream_error"
	transformResultFailed           = "failed"
)

func init() {
	prometheus.MustRegister(outcallsTotal)
	prometheus.MustRegister(outcallCyclesAttached)
	prometheus.MustRegister(outcallResponseSizeBytes)
	prometheus.MustRegister(outcallDurationSeconds)
	prometheus.MustRegister(transformsTotal)
	prometheus.MustRegister(replicaAgreementFraction)
	prometheus.MustRegister(replicaFetchesTotal)
	prometheus.MustRegister(ledgerDebitsTotal)
}

var (
	// outcallsTotal counts outcalls issued by the client.
	// Labels:
	//   - http_method: GET or POST
	//   - outcome: success or rejected
	//   - rejection_code: empty on success
	outcallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: outcallSubsystem,
			Name:      outcallsTotalMetric,
			Help:      "Total number of outcalls, labeled by HTTP method, outcome and rejection code.",
		},
		[]string{"http_method", "outcome", "rejection_code"},
	)

	// outcallCyclesAttached observes the cycles attached to each outcall.
	// Buckets follow the cost formula: the 500KB default cap lands around 5.2e9.
	outcallCyclesAttached = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: outcallSubsystem,
			Name:      outcallCyclesAttachedMetric,
			Help:      "Histogram of cycles attached to outcalls.",
			Buckets:   []float64{1e8, 5e8, 1e9, 5e9, 1e10, 2.5e10, 5e10},
		},
		[]string{"http_method"},
	)

	// outcallResponseSizeBytes observes the size of transformed response bodies.
	outcallResponseSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: outcallSubsystem,
			Name:      outcallResponseSizeBytesMetric,
			Help:      "Histogram of transformed response sizes in bytes.",
			Buckets:   []float64{100, 500, 1000, 5000, 10000, 50000, 500000},
		},
		[]string{"http_method"},
	)

	// outcallDurationSeconds observes the time from dispatch to result.
	outcallDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: outcallSubsystem,
			Name:      outcallDurationSecondsMetric,
			Help:      "Histogram of outcall durations in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 15},
		},
		[]string{"http_method", "outcome"},
	)

	// transformsTotal counts transform invocations, one per replica.
	// Labels:
	//   - transform: registered transform name
	//   - result: ok, upstream_error (non-200 passed through) or failed
	transformsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: outcallSubsystem,
			Name:      transformsTotalMetric,
			Help:      "Total number of transform invocations, labeled by transform name and result.",
		},
		[]string{"transform", "result"},
	)

	// replicaAgreementFraction observes the share of replicas that returned
	// the winning (or most common) transformed response.
	replicaAgreementFraction = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Subsystem: outcallSubsystem,
			Name:      replicaAgreementFractionMetric,
			Help:      "Fraction of replicas agreeing on the transformed response.",
			Buckets:   []float64{0.25, 0.5, 0.67, 0.75, 0.9, 1},
		},
	)

	// replicaFetchesTotal counts single-replica HTTP fetches.
	// Labels:
	//   - success: whether the replica obtained a response
	replicaFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: outcallSubsystem,
			Name:      replicaFetchesTotalMetric,
			Help:      "Total number of per-replica HTTP fetches.",
		},
		[]string{"success"},
	)

	// ledgerDebitsTotal counts cycles debits.
	// Labels:
	//   - success: false when the balance could not cover the debit
	ledgerDebitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: outcallSubsystem,
			Name:      ledgerDebitsTotalMetric,
			Help:      "Total number of cycles ledger debits.",
		},
		[]string{"success"},
	)
)
