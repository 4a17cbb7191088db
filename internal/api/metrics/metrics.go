// Package metrics defines and registers all custom Prometheus metrics for the
// visit management API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// init through promauto; GET /metrics exposes them next to the HTTP metrics
// collected by echoprometheus.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
)

const namespace = "visit"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthLoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "throttled" or "error"
var AuthLoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// AuthTokenValidationsTotal counts bearer token checks made by the auth
// middleware.
// Label:
//   - result: "valid", "missing", "expired" or "invalid"
var AuthTokenValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "token_validations_total",
		Help:      "Total number of bearer token validations, labelled by result.",
	},
	[]string{"result"},
)

// ── Access metrics ────────────────────────────────────────────────────────────

// AccessDeniedTotal counts access guard denials.
// Labels:
//   - action: "read", "create", "update", "delete", "batch_delete", "managed_delete",
//     "merge", "transfer", "administer" or "role"
//   - kind:   the protected resource kind (e.g. "customer")
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Total number of requests refused by the access guard.",
	},
	[]string{"action", "kind"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// DenialRecorder feeds guard denials into AccessDeniedTotal.
type DenialRecorder struct{}

// Denied implements access.DenialRecorder.
func (DenialRecorder) Denied(action string, kind domain.ResourceKind) {
	AccessDeniedTotal.WithLabelValues(action, string(kind)).Inc()
}

// SetAuditQueueDepth matches queue.DepthFunc.
func SetAuditQueueDepth(workerID, depth int) {
	AuditQueueDepth.WithLabelValues(strconv.Itoa(workerID)).Set(float64(depth))
}
