// Package metrics defines and registers the custom Prometheus metrics for
// the visit reporting API. It is the single source of truth for metric
// names, labels, and help strings. All metrics register with the default
// registry at init via promauto; the router exposes them on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "visitapi"

// TokenRotationsTotal counts transparent access-token rotations performed by
// the session middleware.
var TokenRotationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rotations_total",
		Help:      "Total number of access tokens minted from refresh tokens.",
	},
)

// VisitsUploadedTotal counts successfully persisted visit reports.
var VisitsUploadedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "visits_uploaded_total",
		Help:      "Total number of visit reports persisted.",
	},
)

// NotifyPublishedTotal counts jobs handed to the notification queue.
// Label:
//   - queue: "notify.message" or "notify.visit"
var NotifyPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notify_published_total",
		Help:      "Total number of notification jobs published, by queue.",
	},
	[]string{"queue"},
)

// NotifyFailuresTotal counts notification deliveries that exhausted their
// retries in the worker.
// Label:
//   - queue: "notify.message" or "notify.visit"
var NotifyFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notify_failures_total",
		Help:      "Total number of notification jobs dropped after exhausting retries.",
	},
	[]string{"queue"},
)
