package grabber

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	fetchKindManifest = "manifest"
	fetchKindSegment  = "segment"

	failureTransport = "transport"
)

var (
	FetchCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grabber_fetch_count",
	}, []string{"kind"})
	FetchFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grabber_fetch_failure_count",
	}, []string{"kind", "reason"})
	FetchDurationSeconds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grabber_fetch_duration_seconds",
	}, []string{"kind"})
	FetchSizeBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grabber_fetch_size_bytes",
	}, []string{"kind"})

	GrabCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grabber_grab_count",
	})
	SegmentsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grabber_segments_written",
	})
	SegmentsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grabber_segments_skipped",
	})
)
