package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuizSubmissions counts submissions by outcome (ok, bad_request, not_found, conflict, error).
	QuizSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Total number of quiz submissions",
		},
		[]string{"status"},
	)

	// QuizStarts counts quiz start requests by outcome.
	QuizStarts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_starts_total",
			Help: "Total number of quiz start requests",
		},
		[]string{"status"},
	)

	// PointsAwarded sums points credited to the ledger, by action.
	PointsAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_awarded_total",
			Help: "Total points credited to user ledgers",
		},
		[]string{"action"},
	)

	// Certificates counts certificate step outcomes.
	Certificates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certificates_total",
			Help: "Certificate issuance outcomes",
		},
		[]string{"status"},
	)

	// CertificateRenderDuration tracks artifact rendering latency.
	CertificateRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "certificate_render_duration_seconds",
			Help:    "Time spent rendering and storing certificate artifacts",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SubmitDuration tracks end-to-end submission latency.
	SubmitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_submit_duration_seconds",
			Help:    "Time spent processing quiz submissions",
			Buckets: prometheus.DefBuckets,
		},
	)

	// NotificationSubscribers is the number of open notification streams.
	NotificationSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_subscribers_current",
			Help: "Current number of notification websocket subscribers",
		},
	)
)
