package store

// ChunkEmbedding is a durable mirror of one indexed chunk and its vector.
// The in-memory retrieval index stays authoritative; these rows exist for
// warm starts and inspection, and are written best-effort.
type ChunkEmbedding struct {
	ID         int32
	ChunkID    string
	DocumentID string
	ChunkIndex int
	Content    string
	Embedding  []float32
	CreatedTs  int64
}

type FindChunkEmbedding struct {
	ChunkID    *string
	DocumentID *string
}

type DeleteChunkEmbedding struct {
	// DocumentID removes all chunks of one document; nil removes everything.
	DocumentID *string
}
