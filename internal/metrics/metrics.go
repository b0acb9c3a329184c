package metrics

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// EndpointMetrics tracks metrics for a specific endpoint
type EndpointMetrics struct {
	Requests     int64
	Errors       int64
	TotalLatency int64
}

// Metrics holds the counters of one process. It is created once in main and
// handed to the components that record into it.
type Metrics struct {
	mu sync.RWMutex

	// HTTP request metrics (serve mode)
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	TotalLatency       int64
	RequestCount       int64

	// Run metrics
	RunsStarted   int64
	RunsCreated   int64
	RunsSkipped   int64
	RunsPreviewed int64
	RunsFailed    int64

	// Board objects created
	ListsCreated      int64
	CardsCreated      int64
	ChecklistsCreated int64
	CheckItemsCreated int64
	LabelsMissing     int64

	// Trello API metrics
	APIRequests int64
	APIRetries  int64
	APIFailures int64

	// WebSocket metrics
	WSConnections int64
	WSMessagesOut int64

	// Last run
	lastRunOutcome string
	lastRunAt      time.Time

	// Endpoint-specific metrics
	EndpointMetrics map[string]*EndpointMetrics

	// Start time for uptime calculation
	StartTime time.Time
}

// New returns an empty metrics set
func New() *Metrics {
	return &Metrics{
		StartTime:       time.Now(),
		EndpointMetrics: make(map[string]*EndpointMetrics),
	}
}

// IncrementRequests increments request counters
func (m *Metrics) IncrementRequests(success bool, latencyMs int64) {
	atomic.AddInt64(&m.TotalRequests, 1)
	atomic.AddInt64(&m.TotalLatency, latencyMs)
	atomic.AddInt64(&m.RequestCount, 1)

	if success {
		atomic.AddInt64(&m.SuccessfulRequests, 1)
	} else {
		atomic.AddInt64(&m.FailedRequests, 1)
	}
}

// IncrementRunStarted counts a run entering the orchestrator
func (m *Metrics) IncrementRunStarted() {
	atomic.AddInt64(&m.RunsStarted, 1)
}

// RecordRunOutcome counts a finished run. outcome is created, skipped,
// preview or failed.
func (m *Metrics) RecordRunOutcome(outcome string) {
	switch outcome {
	case "created":
		atomic.AddInt64(&m.RunsCreated, 1)
	case "skipped":
		atomic.AddInt64(&m.RunsSkipped, 1)
	case "preview":
		atomic.AddInt64(&m.RunsPreviewed, 1)
	default:
		atomic.AddInt64(&m.RunsFailed, 1)
	}

	m.mu.Lock()
	m.lastRunOutcome = outcome
	m.lastRunAt = time.Now()
	m.mu.Unlock()
}

// LastRun returns the outcome and time of the most recent run
func (m *Metrics) LastRun() (string, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRunOutcome, m.lastRunAt
}

func (m *Metrics) IncrementListCreated()      { atomic.AddInt64(&m.ListsCreated, 1) }
func (m *Metrics) IncrementCardCreated()      { atomic.AddInt64(&m.CardsCreated, 1) }
func (m *Metrics) IncrementChecklistCreated() { atomic.AddInt64(&m.ChecklistsCreated, 1) }
func (m *Metrics) IncrementCheckItemCreated() { atomic.AddInt64(&m.CheckItemsCreated, 1) }
func (m *Metrics) IncrementLabelMissing()     { atomic.AddInt64(&m.LabelsMissing, 1) }

// IncrementAPIRequest counts one HTTP attempt against Trello
func (m *Metrics) IncrementAPIRequest(retry bool) {
	atomic.AddInt64(&m.APIRequests, 1)
	if retry {
		atomic.AddInt64(&m.APIRetries, 1)
	}
}

// IncrementAPIFailure counts a call that exhausted its retry budget
func (m *Metrics) IncrementAPIFailure() {
	atomic.AddInt64(&m.APIFailures, 1)
}

// IncrementWSConnection increments WebSocket connection counter
func (m *Metrics) IncrementWSConnection() {
	atomic.AddInt64(&m.WSConnections, 1)
}

// DecrementWSConnection decrements WebSocket connection counter
func (m *Metrics) DecrementWSConnection() {
	atomic.AddInt64(&m.WSConnections, -1)
}

// IncrementWSMessageOut increments outgoing WebSocket message counter
func (m *Metrics) IncrementWSMessageOut() {
	atomic.AddInt64(&m.WSMessagesOut, 1)
}

// TrackEndpoint tracks metrics for a specific endpoint
func (m *Metrics) TrackEndpoint(path, method string, statusCode int, latencyMs int64) {
	key := method + " " + path

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EndpointMetrics == nil {
		m.EndpointMetrics = make(map[string]*EndpointMetrics)
	}

	em, exists := m.EndpointMetrics[key]
	if !exists {
		em = &EndpointMetrics{}
		m.EndpointMetrics[key] = em
	}

	atomic.AddInt64(&em.Requests, 1)
	atomic.AddInt64(&em.TotalLatency, latencyMs)
	if statusCode >= 400 {
		atomic.AddInt64(&em.Errors, 1)
	}
}

// GetEndpointMetrics returns a copy of endpoint metrics
func (m *Metrics) GetEndpointMetrics() map[string]EndpointMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]EndpointMetrics)
	for k, v := range m.EndpointMetrics {
		result[k] = EndpointMetrics{
			Requests:     atomic.LoadInt64(&v.Requests),
			Errors:       atomic.LoadInt64(&v.Errors),
			TotalLatency: atomic.LoadInt64(&v.TotalLatency),
		}
	}
	return result
}

// GetAverageLatency returns average request latency in milliseconds
func (m *Metrics) GetAverageLatency() float64 {
	count := atomic.LoadInt64(&m.RequestCount)
	if count == 0 {
		return 0
	}
	total := atomic.LoadInt64(&m.TotalLatency)
	return float64(total) / float64(count)
}

// GetUptime returns the application uptime
func (m *Metrics) GetUptime() time.Duration {
	return time.Since(m.StartTime)
}

// EndpointMetricsSnapshot represents endpoint metrics in a snapshot
type EndpointMetricsSnapshot struct {
	Requests     int64   `json:"requests"`
	Errors       int64   `json:"errors"`
	ErrorRate    float64 `json:"error_rate"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// MetricsSnapshot represents a point-in-time snapshot of all metrics
type MetricsSnapshot struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	StartTime     string  `json:"start_time"`

	Requests struct {
		Total        int64   `json:"total"`
		Successful   int64   `json:"successful"`
		Failed       int64   `json:"failed"`
		AvgLatencyMs float64 `json:"avg_latency_ms"`
	} `json:"requests"`

	Runs struct {
		Started     int64  `json:"started"`
		Created     int64  `json:"created"`
		Skipped     int64  `json:"skipped"`
		Previewed   int64  `json:"previewed"`
		Failed      int64  `json:"failed"`
		LastOutcome string `json:"last_outcome,omitempty"`
		LastRunAt   string `json:"last_run_at,omitempty"`
	} `json:"runs"`

	Board struct {
		Lists         int64 `json:"lists"`
		Cards         int64 `json:"cards"`
		Checklists    int64 `json:"checklists"`
		CheckItems    int64 `json:"check_items"`
		LabelsMissing int64 `json:"labels_missing"`
	} `json:"board"`

	API struct {
		Requests int64 `json:"requests"`
		Retries  int64 `json:"retries"`
		Failures int64 `json:"failures"`
	} `json:"api"`

	WebSocket struct {
		Connections int64 `json:"connections"`
		MessagesOut int64 `json:"messages_out"`
	} `json:"websocket"`

	System struct {
		Goroutines  int    `json:"goroutines"`
		HeapAllocMB uint64 `json:"heap_alloc_mb"`
		HeapInUseMB uint64 `json:"heap_inuse_mb"`
		NumGC       uint32 `json:"num_gc"`
	} `json:"system"`

	Endpoints map[string]EndpointMetricsSnapshot `json:"endpoints,omitempty"`
}

// Snapshot returns a point-in-time snapshot of all metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snapshot := MetricsSnapshot{}

	snapshot.UptimeSeconds = m.GetUptime().Seconds()
	snapshot.StartTime = m.StartTime.Format(time.RFC3339)

	snapshot.Requests.Total = atomic.LoadInt64(&m.TotalRequests)
	snapshot.Requests.Successful = atomic.LoadInt64(&m.SuccessfulRequests)
	snapshot.Requests.Failed = atomic.LoadInt64(&m.FailedRequests)
	snapshot.Requests.AvgLatencyMs = m.GetAverageLatency()

	snapshot.Runs.Started = atomic.LoadInt64(&m.RunsStarted)
	snapshot.Runs.Created = atomic.LoadInt64(&m.RunsCreated)
	snapshot.Runs.Skipped = atomic.LoadInt64(&m.RunsSkipped)
	snapshot.Runs.Previewed = atomic.LoadInt64(&m.RunsPreviewed)
	snapshot.Runs.Failed = atomic.LoadInt64(&m.RunsFailed)
	if outcome, at := m.LastRun(); outcome != "" {
		snapshot.Runs.LastOutcome = outcome
		snapshot.Runs.LastRunAt = at.Format(time.RFC3339)
	}

	snapshot.Board.Lists = atomic.LoadInt64(&m.ListsCreated)
	snapshot.Board.Cards = atomic.LoadInt64(&m.CardsCreated)
	snapshot.Board.Checklists = atomic.LoadInt64(&m.ChecklistsCreated)
	snapshot.Board.CheckItems = atomic.LoadInt64(&m.CheckItemsCreated)
	snapshot.Board.LabelsMissing = atomic.LoadInt64(&m.LabelsMissing)

	snapshot.API.Requests = atomic.LoadInt64(&m.APIRequests)
	snapshot.API.Retries = atomic.LoadInt64(&m.APIRetries)
	snapshot.API.Failures = atomic.LoadInt64(&m.APIFailures)

	snapshot.WebSocket.Connections = atomic.LoadInt64(&m.WSConnections)
	snapshot.WebSocket.MessagesOut = atomic.LoadInt64(&m.WSMessagesOut)

	snapshot.System.Goroutines = runtime.NumGoroutine()
	snapshot.System.HeapAllocMB = memStats.HeapAlloc / 1024 / 1024
	snapshot.System.HeapInUseMB = memStats.HeapInuse / 1024 / 1024
	snapshot.System.NumGC = memStats.NumGC

	endpointMetrics := m.GetEndpointMetrics()
	if len(endpointMetrics) > 0 {
		snapshot.Endpoints = make(map[string]EndpointMetricsSnapshot)
		for k, v := range endpointMetrics {
			em := EndpointMetricsSnapshot{
				Requests: v.Requests,
				Errors:   v.Errors,
			}
			if v.Requests > 0 {
				em.ErrorRate = float64(v.Errors) / float64(v.Requests) * 100
				em.AvgLatencyMs = float64(v.TotalLatency) / float64(v.Requests)
			}
			snapshot.Endpoints[k] = em
		}
	}

	return snapshot
}

// HealthStatus represents the health status of a component
type HealthStatus struct {
	Status  string `json:"status"` // "healthy", "degraded", "unhealthy"
	Message string `json:"message,omitempty"`
}

// HealthCheck represents the overall health check response
type HealthCheck struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Timestamp  string                  `json:"timestamp"`
	Components map[string]HealthStatus `json:"components"`
}

// CheckLastRunHealth reports degraded when the most recent run failed. A
// failed run may have left a partially populated list on the board.
func CheckLastRunHealth(m *Metrics) HealthStatus {
	outcome, at := m.LastRun()
	if outcome == "failed" {
		return HealthStatus{
			Status:  "degraded",
			Message: "last run failed at " + at.Format(time.RFC3339),
		}
	}
	return HealthStatus{Status: "healthy"}
}

// CheckMemoryHealth checks memory usage
func CheckMemoryHealth(maxHeapMB uint64) HealthStatus {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	heapMB := memStats.HeapAlloc / 1024 / 1024

	if heapMB > maxHeapMB {
		return HealthStatus{
			Status:  "unhealthy",
			Message: "heap memory exceeds limit",
		}
	}

	// Warn if using more than 80% of limit
	if heapMB > (maxHeapMB * 80 / 100) {
		return HealthStatus{
			Status:  "degraded",
			Message: "heap memory usage high",
		}
	}

	return HealthStatus{
		Status: "healthy",
	}
}

// DetermineOverallStatus determines overall health from component statuses
func DetermineOverallStatus(components map[string]HealthStatus) string {
	hasUnhealthy := false
	hasDegraded := false

	for _, status := range components {
		switch status.Status {
		case "unhealthy":
			hasUnhealthy = true
		case "degraded":
			hasDegraded = true
		}
	}

	if hasUnhealthy {
		return "unhealthy"
	}
	if hasDegraded {
		return "degraded"
	}
	return "healthy"
}
