package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(webhooksTotal) }

var webhooksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payment_webhooks_total",
		Help: "Gateway webhook deliveries by outcome (completed/failed/duplicate/pending/unmatched/invalid/error).",
	},
	[]string{"outcome"},
)

func IncWebhook(outcome string) {
	webhooksTotal.WithLabelValues(norm(outcome)).Inc()
}
