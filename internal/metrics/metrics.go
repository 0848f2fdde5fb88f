package metrics

import (
	"sync"
	"time"
)

// Metrics collects pipeline counters. One instance is constructed per
// process and passed to the components that report into it.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	SourcesFetched int64
	SourcesFailed  int64
	ItemsParsed    int64
	AdsFiltered    int64
	ClustersFormed int64
	TrendRuns      int64
	NLPRequests    int64
	NLPCacheHits   int64

	// Timings
	LastRunDuration    time.Duration
	TotalRunDuration   time.Duration
	AverageRunDuration time.Duration
	RunCount           int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

func (m *Metrics) AddSourcesFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesFetched += int64(n)
}

func (m *Metrics) AddSourcesFailed(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesFailed += int64(n)
}

func (m *Metrics) AddItemsParsed(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsParsed += int64(n)
}

func (m *Metrics) AddAdsFiltered(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AdsFiltered += int64(n)
}

func (m *Metrics) AddClustersFormed(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClustersFormed += int64(n)
}

func (m *Metrics) IncrementTrendRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrendRuns++
}

func (m *Metrics) IncrementNLPRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NLPRequests++
}

func (m *Metrics) IncrementNLPCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NLPCacheHits++
}

func (m *Metrics) RecordRunDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRunDuration = duration
	m.TotalRunDuration += duration
	m.RunCount++

	if m.RunCount > 0 {
		m.AverageRunDuration = m.TotalRunDuration / time.Duration(m.RunCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"sources_fetched":         m.SourcesFetched,
		"sources_failed":          m.SourcesFailed,
		"items_parsed":            m.ItemsParsed,
		"ads_filtered":            m.AdsFiltered,
		"clusters_formed":         m.ClustersFormed,
		"trend_runs":              m.TrendRuns,
		"nlp_requests":            m.NLPRequests,
		"nlp_cache_hits":          m.NLPCacheHits,
		"last_run_duration_ms":    m.LastRunDuration.Milliseconds(),
		"average_run_duration_ms": m.AverageRunDuration.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
