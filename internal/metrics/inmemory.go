package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ProfileCacheHits         uint64
	ProfileCacheMisses       uint64
	ProfileLoadCount         uint64
	ProfileLoadTotalNs       int64
	ProfilesCreated          uint64
	ProfilesUpdated          uint64
	ColorExtractionCount     uint64
	ColorExtractionTotalNs   int64
	ColorExtractionFallbacks uint64
	EventsPublished          map[string]uint64
	EventsProcessed          map[string]uint64
	EventBatchCount          uint64
	EventBatchSizeTotal      uint64
	EventBatchTotalNs        int64
	EventQueueDepth          int64
	EventIngestLagCount      uint64
	EventIngestLagTotalNs    int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	profileCacheHits         uint64
	profileCacheMisses       uint64
	profileLoadCount         uint64
	profileLoadTotalNs       int64
	profilesCreated          uint64
	profilesUpdated          uint64
	colorExtractionCount     uint64
	colorExtractionTotalNs   int64
	colorExtractionFallbacks uint64
	eventBatchCount          uint64
	eventBatchSizeTotal      uint64
	eventBatchTotalNs        int64
	eventQueueDepth          int64
	eventIngestLagCount      uint64
	eventIngestLagTotalNs    int64

	mu              sync.Mutex
	eventsPublished map[string]uint64
	eventsProcessed map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		eventsPublished: make(map[string]uint64),
		eventsProcessed: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	published := make(map[string]uint64, len(m.eventsPublished))
	for k, v := range m.eventsPublished {
		published[k] = v
	}
	processed := make(map[string]uint64, len(m.eventsProcessed))
	for k, v := range m.eventsProcessed {
		processed[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		ProfileCacheHits:         atomic.LoadUint64(&m.profileCacheHits),
		ProfileCacheMisses:       atomic.LoadUint64(&m.profileCacheMisses),
		ProfileLoadCount:         atomic.LoadUint64(&m.profileLoadCount),
		ProfileLoadTotalNs:       atomic.LoadInt64(&m.profileLoadTotalNs),
		ProfilesCreated:          atomic.LoadUint64(&m.profilesCreated),
		ProfilesUpdated:          atomic.LoadUint64(&m.profilesUpdated),
		ColorExtractionCount:     atomic.LoadUint64(&m.colorExtractionCount),
		ColorExtractionTotalNs:   atomic.LoadInt64(&m.colorExtractionTotalNs),
		ColorExtractionFallbacks: atomic.LoadUint64(&m.colorExtractionFallbacks),
		EventsPublished:          published,
		EventsProcessed:          processed,
		EventBatchCount:          atomic.LoadUint64(&m.eventBatchCount),
		EventBatchSizeTotal:      atomic.LoadUint64(&m.eventBatchSizeTotal),
		EventBatchTotalNs:        atomic.LoadInt64(&m.eventBatchTotalNs),
		EventQueueDepth:          atomic.LoadInt64(&m.eventQueueDepth),
		EventIngestLagCount:      atomic.LoadUint64(&m.eventIngestLagCount),
		EventIngestLagTotalNs:    atomic.LoadInt64(&m.eventIngestLagTotalNs),
	}
}

// IncProfileCacheHit increments the public profile cache hit counter.
func (m *InMemoryRecorder) IncProfileCacheHit() {
	atomic.AddUint64(&m.profileCacheHits, 1)
}

// IncProfileCacheMiss increments the public profile cache miss counter.
func (m *InMemoryRecorder) IncProfileCacheMiss() {
	atomic.AddUint64(&m.profileCacheMisses, 1)
}

// ObserveProfileLoadDuration records public profile load duration.
func (m *InMemoryRecorder) ObserveProfileLoadDuration(duration time.Duration) {
	atomic.AddUint64(&m.profileLoadCount, 1)
	atomic.AddInt64(&m.profileLoadTotalNs, duration.Nanoseconds())
}

// IncProfileCreated increments the profile created counter.
func (m *InMemoryRecorder) IncProfileCreated() {
	atomic.AddUint64(&m.profilesCreated, 1)
}

// IncProfileUpdated increments the profile updated counter.
func (m *InMemoryRecorder) IncProfileUpdated() {
	atomic.AddUint64(&m.profilesUpdated, 1)
}

// ObserveColorExtractionDuration records banner color extraction duration.
func (m *InMemoryRecorder) ObserveColorExtractionDuration(duration time.Duration) {
	atomic.AddUint64(&m.colorExtractionCount, 1)
	atomic.AddInt64(&m.colorExtractionTotalNs, duration.Nanoseconds())
}

// IncColorExtractionFallback counts extractions that fell back to the default palette.
func (m *InMemoryRecorder) IncColorExtractionFallback() {
	atomic.AddUint64(&m.colorExtractionFallbacks, 1)
}

// IncEventPublished counts events published to the stream by status.
func (m *InMemoryRecorder) IncEventPublished(status string) {
	m.mu.Lock()
	m.eventsPublished[status]++
	m.mu.Unlock()
}

// IncEventProcessed counts events processed by the worker by status.
func (m *InMemoryRecorder) IncEventProcessed(status string) {
	m.mu.Lock()
	m.eventsProcessed[status]++
	m.mu.Unlock()
}

// ObserveEventBatchSize records the size of a processed event batch.
func (m *InMemoryRecorder) ObserveEventBatchSize(size int) {
	atomic.AddUint64(&m.eventBatchCount, 1)
	atomic.AddUint64(&m.eventBatchSizeTotal, uint64(size))
}

// ObserveEventBatchDuration records event batch processing duration.
func (m *InMemoryRecorder) ObserveEventBatchDuration(duration time.Duration) {
	atomic.AddInt64(&m.eventBatchTotalNs, duration.Nanoseconds())
}

// SetEventQueueDepth records the current stream length.
func (m *InMemoryRecorder) SetEventQueueDepth(depth int64) {
	atomic.StoreInt64(&m.eventQueueDepth, depth)
}

// ObserveEventIngestLag records the delay between acceptance and persistence.
func (m *InMemoryRecorder) ObserveEventIngestLag(lag time.Duration) {
	atomic.AddUint64(&m.eventIngestLagCount, 1)
	atomic.AddInt64(&m.eventIngestLagTotalNs, lag.Nanoseconds())
}
