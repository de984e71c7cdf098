package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conversation-API Metrics
var (
	ConversationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "conversation_api",
			Name:      "conversations_created_total",
			Help:      "Total conversations created",
		},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "conversation_api",
			Name:      "status_transitions_total",
			Help:      "Conversation status transitions",
		},
		[]string{"from", "to"},
	)

	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "conversation_api",
			Name:      "events_dispatched_total",
			Help:      "Lifecycle events dispatched to subscribers",
		},
		[]string{"event"},
	)

	SubscriberFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "conversation_api",
			Name:      "subscriber_failures_total",
			Help:      "Event subscriber errors and panics",
		},
		[]string{"event"},
	)

	JobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "conversation_api",
			Name:      "jobs_enqueued_total",
			Help:      "Scheduled jobs submitted to the queue",
		},
		[]string{"job_type"},
	)

	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "conversation_api",
			Name:      "jobs_processed_total",
			Help:      "Scheduled jobs processed by workers",
		},
		[]string{"job_type", "status"},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "helpdesk",
			Subsystem: "conversation_api",
			Name:      "queue_depth",
			Help:      "Due and pending scheduled jobs",
		},
	)

	LockConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "conversation_api",
			Name:      "lock_conflicts_total",
			Help:      "Per-conversation lock acquisition failures",
		},
	)
)
