// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "civic"

// ComplaintsSubmittedTotal counts accepted submissions.
// Labels:
//   - category, department: routing decided by the classifier
//   - determined: "true" for keyword matches, "false" for fallback guesses
var ComplaintsSubmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "complaints_submitted_total",
		Help:      "Total number of complaints submitted, by routing decision.",
	},
	[]string{"category", "department", "determined"},
)

// ComplaintsResolvedTotal counts resolve calls that changed a row.
var ComplaintsResolvedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "complaints_resolved_total",
		Help:      "Total number of complaints moved to Resolved.",
	},
)

// ResolveNoopTotal counts resolve calls that matched no submitted complaint.
var ResolveNoopTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "complaints_resolve_noop_total",
		Help:      "Resolve requests that changed nothing (unknown id or already resolved).",
	},
)

// EvidenceArchiveErrorsTotal counts failed evidence uploads.
var EvidenceArchiveErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evidence_archive_errors_total",
		Help:      "Evidence uploads to object storage that failed.",
	},
	[]string{"kind"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Login attempts by result.",
	},
	[]string{"result"},
)

// HTTPRequestDuration measures request handling time.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)
