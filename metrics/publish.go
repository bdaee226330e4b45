package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// PublishOutcall records the result of a single outcall as seen by the client.
// An empty rejectionCode means the call succeeded.
func PublishOutcall(httpMethod, rejectionCode string, cycles float64, responseSize int, duration time.Duration) {
	outcome := outcallOutcomeSuccess
	if rejectionCode != "" {
		outcome = outcallOutcomeRejected
	}

	outcallsTotal.WithLabelValues(httpMethod, outcome, rejectionCode).Inc()
	outcallCyclesAttached.WithLabelValues(httpMethod).Observe(cycles)
	outcallDurationSeconds.WithLabelValues(httpMethod, outcome).Observe(duration.Seconds())

	if outcome == outcallOutcomeSuccess {
		outcallResponseSizeBytes.WithLabelValues(httpMethod).Observe(float64(responseSize))
	}
}

// PublishTransform records one transform invocation on one replica.
func PublishTransform(transformName string, status int, err error) {
	result := transformResultOK
	switch {
	case err != nil:
		result = transformResultFailed
	case status != http.StatusOK:
		result = transformResultPassthroughError
	}
	transformsTotal.WithLabelValues(transformName, result).Inc()
}

// PublishReplicaAgreement records how many of total replicas agreed.
func PublishReplicaAgreement(agreeing, total int) {
	if total <= 0 {
		return
	}
	replicaAgreementFraction.Observe(float64(agreeing) / float64(total))
}

// PublishReplicaFetch records a single replica's HTTP fetch.
func PublishReplicaFetch(success bool) {
	replicaFetchesTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}

// PublishLedgerDebit records a cycles debit attempt.
func PublishLedgerDebit(success bool) {
	ledgerDebitsTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}
