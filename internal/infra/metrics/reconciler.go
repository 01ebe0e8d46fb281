package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		reconcilerSweepsTotal,
		reconcilerTransactionsTotal,
	)
}

var (
	reconcilerSweepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_reconciler_sweeps_total",
			Help: "Total number of stale-transaction reconciliation sweeps.",
		},
	)

	reconcilerTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconciler_transactions_total",
			Help: "Stale pending transactions resolved by the reconciler, by outcome.",
		},
		[]string{"outcome"}, // 'completed', 'failed', 'still_pending', 'error'
	)
)

func IncReconcilerSweep() {
	reconcilerSweepsTotal.Inc()
}

func IncReconcilerTransaction(outcome string) {
	reconcilerTransactionsTotal.WithLabelValues(norm(outcome)).Inc()
}
