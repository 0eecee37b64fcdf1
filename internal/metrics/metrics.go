package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Ledger
	AppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_appends_total",
			Help: "Committed ledger entries",
		},
		[]string{"direction", "actor_role"}, // credit|debit
	)
	AppendsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_appends_rejected_total",
			Help: "Rejected balance mutations",
		},
		[]string{"reason"}, // validation|insufficient_balance|not_found|conflict|storage
	)
	IdempotentReplays = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_idempotent_replays_total",
			Help: "Requests answered from an already committed entry",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(AppendsTotal)
	prometheus.MustRegister(AppendsRejected)
	prometheus.MustRegister(IdempotentReplays)
	prometheus.MustRegister(WorkerQueueDepth)
}
