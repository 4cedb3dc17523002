package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Notification relay metrics
var (
	// NotificationsSentTotal tracks relayed application notifications by status kind
	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total application notifications relayed, by status kind",
		},
		[]string{"status"},
	)

	// NotificationFailuresTotal tracks notification deliveries that failed at the gateway
	NotificationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Total notification deliveries rejected by the gateway, by reason",
		},
		[]string{"reason"},
	)
)

// Wizard metrics
var (
	// WizardSessionsStartedTotal counts wizard sessions created (restarts included)
	WizardSessionsStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wizard_sessions_started_total",
			Help: "Total wizard sessions started",
		},
	)

	// WizardStageSubmissionsTotal tracks stage submissions by stage and outcome
	WizardStageSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_stage_submissions_total",
			Help: "Total wizard stage submissions by stage and result",
		},
		[]string{"stage", "result"},
	)

	// GiveawaysPublishedTotal counts completed wizards that produced an announcement
	GiveawaysPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "giveaways_published_total",
			Help: "Total giveaway announcements published",
		},
	)

	// RoleGrantFailuresTotal counts best-effort host role grants that failed
	RoleGrantFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "role_grant_failures_total",
			Help: "Total host role grants that failed after a successful publish",
		},
	)

	// SessionsEvictedTotal counts sessions removed by the idle reaper
	SessionsEvictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_evicted_total",
			Help: "Total wizard sessions evicted for idleness",
		},
	)
)

// Chat API adapter metrics
var (
	// ChatAPIRequestsTotal tracks outbound chat platform API calls by endpoint and status
	ChatAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatapi_requests_total",
			Help: "Total chat platform API requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	// ChatAPIRequestDuration tracks outbound chat platform API latency in seconds
	ChatAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatapi_request_duration_seconds",
			Help:    "Chat platform API request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"endpoint"},
	)
)

// HTTP error metrics
var (
	// HTTPErrorsTotal tracks HTTP errors by type
	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total HTTP errors by error type",
		},
		[]string{"type"},
	)
)
