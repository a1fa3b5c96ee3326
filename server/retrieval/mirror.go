package retrieval

import "context"

// MirroredChunk is one indexed chunk together with its embedding vector.
type MirroredChunk struct {
	ChunkID string
	Index   int
	Content string
	Vector  []float32
}

// MirrorStore receives chunk embeddings as they are indexed, keeping a
// durable copy outside the in-memory index. Mirror writes are best effort;
// the index remains the source of truth for search.
type MirrorStore interface {
	UpsertChunks(ctx context.Context, documentID string, chunks []MirroredChunk) error
	DeleteChunks(ctx context.Context, documentID string) error
}
