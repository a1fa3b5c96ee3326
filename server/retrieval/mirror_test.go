package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingMirror struct {
	mu       sync.Mutex
	upserts  map[string][]MirroredChunk
	deletes  []string
	failNext bool
}

func newRecordingMirror() *recordingMirror {
	return &recordingMirror{upserts: make(map[string][]MirroredChunk)}
}

func (m *recordingMirror) UpsertChunks(_ context.Context, documentID string, chunks []MirroredChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("mirror down")
	}
	m.upserts[documentID] = append(m.upserts[documentID], chunks...)
	return nil
}

func (m *recordingMirror) DeleteChunks(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, documentID)
	return nil
}

func TestMirrorReceivesIngestedChunks(t *testing.T) {
	ctx := context.Background()
	mirror := newRecordingMirror()
	store := newTestStore(t, WithMirrorStore(mirror))

	docID, err := store.Ingest(ctx, IngestOptions{
		Content:   "aaaa bbbb cccc dddd eeee ffff gggg hhhh",
		Title:     "Letters",
		ChunkSize: 10,
		Overlap:   0,
	})
	require.NoError(t, err)

	doc := store.GetDocument(docID)
	mirrored := mirror.upserts[docID]
	require.Len(t, mirrored, doc.ChunkCount)
	for i, chunk := range mirrored {
		require.Equal(t, fmt.Sprintf("%s_%d", docID, i), chunk.ChunkID)
		require.Equal(t, i, chunk.Index)
		require.NotEmpty(t, chunk.Content)
		require.Len(t, chunk.Vector, 64)
	}
}

func TestMirrorDeleteOnDocumentDelete(t *testing.T) {
	ctx := context.Background()
	mirror := newRecordingMirror()
	store := newTestStore(t, WithMirrorStore(mirror))

	docID, err := store.Ingest(ctx, IngestOptions{Content: "some text", Title: "T"})
	require.NoError(t, err)

	deleted, err := store.DeleteDocument(ctx, docID)
	require.NoError(t, err)
	require.True(t, deleted)
	require.Equal(t, []string{docID}, mirror.deletes)
}

func TestMirrorFailureDoesNotFailIngest(t *testing.T) {
	ctx := context.Background()
	mirror := newRecordingMirror()
	mirror.failNext = true
	store := newTestStore(t, WithMirrorStore(mirror))

	docID, err := store.Ingest(ctx, IngestOptions{Content: "still indexed", Title: "T"})
	require.NoError(t, err)

	doc := store.GetDocument(docID)
	require.Equal(t, DocStatusIndexed, doc.Status)
	require.True(t, store.Healthy())
}
