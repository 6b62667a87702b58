// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Public page metrics
	IncProfileCacheHit()
	IncProfileCacheMiss()
	ObserveProfileLoadDuration(duration time.Duration)

	// Profile management metrics
	IncProfileCreated()
	IncProfileUpdated()

	// Banner theming metrics
	ObserveColorExtractionDuration(duration time.Duration)
	IncColorExtractionFallback()

	// Analytics pipeline metrics
	IncEventPublished(status string) // status: "success" or "dropped"
	IncEventProcessed(status string) // status: "success", "failed", "dead_lettered"
	ObserveEventBatchSize(size int)
	ObserveEventBatchDuration(duration time.Duration)
	SetEventQueueDepth(depth int64)
	ObserveEventIngestLag(lag time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
