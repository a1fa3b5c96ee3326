package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("ingest")
	m.RecordRequest("ingest")
	m.RecordFailure("ingest")
	m.RecordDuration("ingest", 10*time.Millisecond)
	m.RecordDuration("ingest", 30*time.Millisecond)
	m.RecordRequest("search")

	snapshot := m.Snapshot()
	require.Equal(t, int64(2), snapshot["ingest"].Count)
	require.Equal(t, int64(1), snapshot["ingest"].Errors)
	require.Equal(t, int64(20), snapshot["ingest"].AvgMillis)
	require.Equal(t, int64(1), snapshot["search"].Count)
	require.Equal(t, int64(3), snapshot["_total"].Count)
	require.Equal(t, int64(1), snapshot["_total"].Errors)
}

func TestMetricsStreamChunks(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < 5; i++ {
		m.RecordStreamChunk()
	}
	require.Equal(t, int64(5), m.StreamChunks())
}
