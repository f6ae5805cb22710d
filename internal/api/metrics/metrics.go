// Package metrics defines and registers all custom Prometheus metrics for
// the CRM API. It is the single source of truth for metric names, labels,
// and help strings. Metrics register with the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm"

// LeadsCreatedTotal counts newly created leads.
var LeadsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leads_created_total",
		Help:      "Total number of leads created.",
	},
)

// LeadsConvertedTotal counts successful lead-to-client conversions.
var LeadsConvertedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leads_converted_total",
		Help:      "Total number of leads converted to clients.",
	},
)

// LeadStatusChangesTotal counts lead status transitions.
// Label:
//   - status: the new lead status applied (e.g. "qualified")
var LeadStatusChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_status_changes_total",
		Help:      "Total number of lead status transitions, by new status.",
	},
	[]string{"status"},
)

// ClaimsCreatedTotal counts newly filed claims.
var ClaimsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "claims_created_total",
		Help:      "Total number of claims created.",
	},
)

// ClaimStatusChangesTotal counts claim status transitions.
// Label:
//   - status: the new claim status applied (e.g. "resolved")
var ClaimStatusChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "claim_status_changes_total",
		Help:      "Total number of claim status transitions, by new status.",
	},
	[]string{"status"},
)

// AuthFailuresTotal counts rejected logins.
// Label:
//   - reason: "invalid_credentials" or "inactive"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of failed login attempts, by reason.",
	},
	[]string{"reason"},
)

// ActivityQueueDepth tracks events pending in each activity-log worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", ...)
var ActivityQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "activity_queue_depth",
		Help:      "Current number of entries pending in each activity-log worker channel.",
	},
	[]string{"worker_id"},
)
