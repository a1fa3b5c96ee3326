package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics aggregates per-operation counters and latencies for the API.
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64
	streamChunks  atomic.Int64

	operations map[string]*OperationMetrics
}

// OperationMetrics tracks one operation (ingest, search, chat, ...).
type OperationMetrics struct {
	Count   atomic.Int64
	Errors  atomic.Int64
	TotalMs atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		operations: make(map[string]*OperationMetrics),
	}
}

var globalMetrics = NewMetrics()

// GlobalMetrics returns the process-wide metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest counts one request for the operation.
func (m *Metrics) RecordRequest(operation string) {
	m.requestTotal.Add(1)
	m.get(operation).Count.Add(1)
}

// RecordFailure counts one failed request for the operation.
func (m *Metrics) RecordFailure(operation string) {
	m.requestFailed.Add(1)
	m.get(operation).Errors.Add(1)
}

// RecordDuration accumulates latency for the operation.
func (m *Metrics) RecordDuration(operation string, duration time.Duration) {
	m.get(operation).TotalMs.Add(duration.Milliseconds())
}

// RecordStreamChunk counts one streamed content chunk.
func (m *Metrics) RecordStreamChunk() {
	m.streamChunks.Add(1)
}

// OperationSnapshot is a point-in-time view of one operation's counters.
type OperationSnapshot struct {
	Count     int64 `json:"count"`
	Errors    int64 `json:"errors"`
	AvgMillis int64 `json:"avg_ms"`
}

// Snapshot returns current totals keyed by operation.
func (m *Metrics) Snapshot() map[string]OperationSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]OperationSnapshot, len(m.operations)+1)
	for name, op := range m.operations {
		count := op.Count.Load()
		s := OperationSnapshot{
			Count:  count,
			Errors: op.Errors.Load(),
		}
		if count > 0 {
			s.AvgMillis = op.TotalMs.Load() / count
		}
		snapshot[name] = s
	}
	snapshot["_total"] = OperationSnapshot{
		Count:  m.requestTotal.Load(),
		Errors: m.requestFailed.Load(),
	}
	return snapshot
}

// StreamChunks returns the number of streamed chunks sent.
func (m *Metrics) StreamChunks() int64 {
	return m.streamChunks.Load()
}

func (m *Metrics) get(operation string) *OperationMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.operations[operation]
	if !ok {
		op = &OperationMetrics{}
		m.operations[operation] = op
	}
	return op
}
