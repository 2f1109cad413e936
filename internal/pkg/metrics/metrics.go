// Package metrics defines and registers all custom Prometheus metrics for the
// maestros API. It is the single source of truth for metric names, labels,
// and help strings.
//
// All metrics are registered with the default Prometheus registry via
// promauto, so importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "maestros"

// ── Ledger metrics ────────────────────────────────────────────────────────────

// MaestrosCreatedTotal counts maestros opened through the API.
var MaestrosCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "maestros_created_total",
		Help:      "Total number of maestros created.",
	},
)

// MovementsRecordedTotal counts committed movements.
// Label:
//   - tipo: "ENTRADA" or "SALIDA"
var MovementsRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "movements_recorded_total",
		Help:      "Total number of movements recorded, by type.",
	},
	[]string{"tipo"},
)

// MovementsRejectedTotal counts movement requests that did not commit.
// Label:
//   - reason: "validation", "maestro_not_found", "forbidden" or "store_error"
var MovementsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "movements_rejected_total",
		Help:      "Total number of movement requests rejected before commit.",
	},
	[]string{"reason"},
)

// IdempotencyTotal counts Idempotency-Key lookups.
// Label:
//   - result: "hit" (replayed), "miss" (new movement) or "in_progress"
var IdempotencyTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_lookups_total",
		Help:      "Total number of idempotency key lookups, labelled by result (hit/miss/in_progress).",
	},
	[]string{"result"},
)

// BalanceChecksTotal counts RecomputeBalance calls.
// Label:
//   - result: "consistent" or "drift"
var BalanceChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "balance_checks_total",
		Help:      "Total number of balance recomputations, by outcome.",
	},
	[]string{"result"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsPublishedTotal counts movement events handed to the publisher.
// Label:
//   - result: "ok" or "error"
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of movement events published, by result.",
	},
	[]string{"result"},
)

// EventsDroppedTotal counts movement events that never reached a worker.
// Label:
//   - reason: "queue_full" or "stopped"
var EventsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of movement events dropped before publishing, by reason.",
	},
	[]string{"reason"},
)

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventPublishDuration measures how long a single publish call takes.
var EventPublishDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_publish_duration_seconds",
		Help:      "Duration of a single movement event publish call.",
		Buckets:   prometheus.DefBuckets,
	},
)
