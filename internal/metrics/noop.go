package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncProfileCacheHit is a no-op.
func (n *NoopRecorder) IncProfileCacheHit() {}

// IncProfileCacheMiss is a no-op.
func (n *NoopRecorder) IncProfileCacheMiss() {}

// ObserveProfileLoadDuration is a no-op.
func (n *NoopRecorder) ObserveProfileLoadDuration(duration time.Duration) {}

// IncProfileCreated is a no-op.
func (n *NoopRecorder) IncProfileCreated() {}

// IncProfileUpdated is a no-op.
func (n *NoopRecorder) IncProfileUpdated() {}

// ObserveColorExtractionDuration is a no-op.
func (n *NoopRecorder) ObserveColorExtractionDuration(duration time.Duration) {}

// IncColorExtractionFallback is a no-op.
func (n *NoopRecorder) IncColorExtractionFallback() {}

// IncEventPublished is a no-op.
func (n *NoopRecorder) IncEventPublished(status string) {}

// IncEventProcessed is a no-op.
func (n *NoopRecorder) IncEventProcessed(status string) {}

// ObserveEventBatchSize is a no-op.
func (n *NoopRecorder) ObserveEventBatchSize(size int) {}

// ObserveEventBatchDuration is a no-op.
func (n *NoopRecorder) ObserveEventBatchDuration(duration time.Duration) {}

// SetEventQueueDepth is a no-op.
func (n *NoopRecorder) SetEventQueueDepth(depth int64) {}

// ObserveEventIngestLag is a no-op.
func (n *NoopRecorder) ObserveEventIngestLag(lag time.Duration) {}
