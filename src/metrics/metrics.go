package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playdeck_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playdeck_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Storage metrics
var (
	UploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playdeck_uploads_total",
			Help: "Total number of media files stored",
		},
	)

	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playdeck_upload_bytes_total",
			Help: "Total number of bytes of media stored",
		},
	)
)

// Playlist metrics
var (
	PlaylistOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playdeck_playlist_operations_total",
			Help: "Total number of playlist operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	PlaybackBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playdeck_playback_bytes_total",
			Help: "Total number of media bytes read for playback",
		},
		[]string{"kind"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playdeck_sessions_active",
			Help: "Number of sessions holding a playlist",
		},
	)
)
