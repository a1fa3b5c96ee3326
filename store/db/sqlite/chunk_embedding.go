package sqlite

import (
	"context"
	"errors"

	"github.com/wonderai/wonderchat/store"
)

// The chunk-embedding mirror is NOT supported on SQLite. SQLite is intended
// for development/testing only; vector storage requires PostgreSQL with the
// pgvector extension. The retrieval layer detects this error and keeps using
// file snapshots instead.

// ErrChunkEmbeddingNotSupported is returned when chunk-embedding persistence
// is requested on SQLite.
var ErrChunkEmbeddingNotSupported = errors.New("chunk embeddings are not supported on SQLite. Use PostgreSQL for vector persistence")

func (d *DB) UpsertChunkEmbedding(ctx context.Context, upsert *store.ChunkEmbedding) (*store.ChunkEmbedding, error) {
	return nil, ErrChunkEmbeddingNotSupported
}

func (d *DB) ListChunkEmbeddings(ctx context.Context, find *store.FindChunkEmbedding) ([]*store.ChunkEmbedding, error) {
	return nil, ErrChunkEmbeddingNotSupported
}

func (d *DB) DeleteChunkEmbeddings(ctx context.Context, delete *store.DeleteChunkEmbedding) error {
	return ErrChunkEmbeddingNotSupported
}
