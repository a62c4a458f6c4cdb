// Package metrics defines and registers all custom Prometheus metrics for the
// session service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "session"

// ── Session store metrics ─────────────────────────────────────────────────────

// OperationsTotal counts session store operations by outcome.
// Labels:
//   - operation: "login", "register", "logout", "update_profile", "restore"
//   - result: "ok" or a short failure reason (e.g. "invalid_credentials")
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of session store operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// OperationDuration measures how long an operation holds the store, including
// any configured artificial delay.
var OperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of session store operations from dequeue to completion.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// PersistErrorsTotal counts failed writes to the durable slot or catalog.
// Label:
//   - target: "slot" or "catalog"
var PersistErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persist_errors_total",
		Help:      "Total number of non-fatal persistence failures.",
	},
	[]string{"target"},
)

// QueueDepth tracks jobs waiting for the single-owner queue.
var QueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current number of session operations waiting to run.",
	},
)

// Authenticated is 1 while an identity is current, 0 otherwise.
var Authenticated = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "authenticated",
		Help:      "Whether the store currently holds an authenticated identity.",
	},
)
