// Package metrics defines the Prometheus counters of the job portal. All
// metrics are registered with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jobportal"

// LoginsTotal counts authentication attempts.
// Label result: "success", "invalid" or "locked".
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts by outcome.",
	},
	[]string{"result"},
)

// AccountLockoutsTotal counts transitions into the locked state.
var AccountLockoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_lockouts_total",
		Help:      "Total number of accounts locked after repeated failed logins.",
	},
)

// PasswordResetsTotal counts password reset flow steps.
// Label stage: "requested", "completed" or "rejected".
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of password reset requests and confirmations.",
	},
	[]string{"stage"},
)

// ApplicationsTotal counts apply attempts.
// Label result: "created" or "duplicate".
var ApplicationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applications_total",
		Help:      "Total number of job applications by outcome.",
	},
	[]string{"result"},
)

// DocumentsUploadedTotal counts stored documents by type (cv, cover_letter).
var DocumentsUploadedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_uploaded_total",
		Help:      "Total number of documents stored, by document type.",
	},
	[]string{"type"},
)

// UploadsRejectedTotal counts rejected uploads.
// Label reason: "transport", "size", "mime", "extension", "storage".
var UploadsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_rejected_total",
		Help:      "Total number of rejected document uploads, by reason.",
	},
	[]string{"reason"},
)

// HTTPRequestsTotal counts handled requests.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by method, route and status.",
	},
	[]string{"method", "route", "status"},
)
