// Package metrics defines and registers the custom Prometheus metrics of the
// HCGateway API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hcgateway"

// ── Session metrics ───────────────────────────────────────────────────────────

// AuthEventsTotal counts session operations.
// Labels:
//   - event: "login", "register", "refresh", "revoke" or "authenticate"
//   - result: "ok" or the error code returned to the client (e.g. "token_expired")
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of session operations, by event and result.",
	},
	[]string{"event", "result"},
)

// ── Sync metrics ──────────────────────────────────────────────────────────────

// RecordsTotal counts records moved through the Sync Store.
// Label:
//   - op: "upsert", "fetch" or "delete"
var RecordsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_total",
		Help:      "Total number of records upserted, fetched or deleted.",
	},
	[]string{"op"},
)

// SyncErrorsTotal counts failed Sync Store requests.
// Labels:
//   - op: "upsert", "fetch" or "delete"
//   - code: the error code returned to the client (e.g. "decryption_failed")
var SyncErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_errors_total",
		Help:      "Total number of failed sync requests, by operation and error code.",
	},
	[]string{"op", "code"},
)

// ── Device messaging metrics ──────────────────────────────────────────────────

// DeviceMessagesTotal counts messages handed to the device messaging provider.
// Labels:
//   - op: "PUSH" or "DELETE"
//   - result: "ok" or the error code returned to the client (e.g. "no_device_token")
var DeviceMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "device_messages_total",
		Help:      "Total number of device messages, by operation and result.",
	},
	[]string{"op", "result"},
)
