// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SnapshotsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mowmap",
		Name:      "snapshots_ingested_total",
		Help:      "Snapshot submissions by outcome (accepted, rejected, dropped).",
	}, []string{"outcome"})

	FramesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mowmap",
		Name:      "frames_rendered_total",
		Help:      "Map frames rendered.",
	})

	FramesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mowmap",
		Name:      "frames_skipped_total",
		Help:      "Renders skipped by the one-frame-per-second guard.",
	})

	RenderErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mowmap",
		Name:      "render_errors_total",
		Help:      "Failed renders; the previous frame stays current.",
	})

	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mowmap",
		Name:      "render_duration_seconds",
		Help:      "Wall time of one frame render including PNG encoding.",
		Buckets:   prometheus.DefBuckets,
	})

	ZoneQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mowmap",
		Name:      "zone_queries_total",
		Help:      "Zone lookups by resulting zone id.",
	}, []string{"zone"})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mowmap",
		Name:      "websocket_clients",
		Help:      "Connected websocket clients.",
	})

	TrackedMowers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mowmap",
		Name:      "tracked_mowers",
		Help:      "Mowers with a live snapshot in the store.",
	})
)
