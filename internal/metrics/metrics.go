package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomboard_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomboard_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	MessagesPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomboard_messages_posted_total",
			Help: "Total messages posted",
		},
		[]string{"kind"}, // "text" or "file"
	)

	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomboard_rooms_created_total",
			Help: "Total rooms created",
		},
	)

	RoomsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomboard_rooms_deleted_total",
			Help: "Total rooms deleted",
		},
	)

	MessagesCascaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomboard_messages_cascaded_total",
			Help: "Total messages removed by room deletion",
		},
	)

	PasswordVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomboard_password_verifications_total",
			Help: "Total room password verifications",
		},
		[]string{"result"}, // "success" or "failure"
	)

	AdminLogins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomboard_admin_logins_total",
			Help: "Total admin login attempts",
		},
		[]string{"result"},
	)

	// Upload metrics
	UploadsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomboard_uploads_rejected_total",
			Help: "Total rejected uploads",
		},
		[]string{"reason"},
	)

	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomboard_upload_bytes_total",
			Help: "Total bytes of stored uploads",
		},
	)

	// Infrastructure metrics
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomboard_store_latency_seconds",
			Help:    "Storage backend ping latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"backend"}, // "database" or "sessions"
	)
)
