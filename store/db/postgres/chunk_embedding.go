package postgres

import (
	"context"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/wonderai/wonderchat/store"
)

// UpsertChunkEmbedding inserts or updates one chunk's durable mirror row.
func (d *DB) UpsertChunkEmbedding(ctx context.Context, upsert *store.ChunkEmbedding) (*store.ChunkEmbedding, error) {
	stmt := `
		INSERT INTO chunk_embedding (chunk_id, document_id, chunk_index, content, embedding, created_ts)
		VALUES (` + placeholders(6) + `)
		ON CONFLICT (chunk_id)
		DO UPDATE SET
			document_id = EXCLUDED.document_id,
			chunk_index = EXCLUDED.chunk_index,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding
		RETURNING id, created_ts
	`

	vector := pgvector.NewVector(upsert.Embedding)
	err := d.db.QueryRowContext(ctx, stmt,
		upsert.ChunkID,
		upsert.DocumentID,
		upsert.ChunkIndex,
		upsert.Content,
		vector,
		upsert.CreatedTs,
	).Scan(&upsert.ID, &upsert.CreatedTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert chunk embedding")
	}

	return upsert, nil
}

// ListChunkEmbeddings lists chunk embeddings in chunk order.
func (d *DB) ListChunkEmbeddings(ctx context.Context, find *store.FindChunkEmbedding) ([]*store.ChunkEmbedding, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ChunkID != nil {
		where, args = append(where, "chunk_id = "+placeholder(len(args)+1)), append(args, *find.ChunkID)
	}
	if find.DocumentID != nil {
		where, args = append(where, "document_id = "+placeholder(len(args)+1)), append(args, *find.DocumentID)
	}

	query := `
		SELECT id, chunk_id, document_id, chunk_index, content, embedding, created_ts
		FROM chunk_embedding
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY document_id ASC, chunk_index ASC
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chunk embeddings")
	}
	defer rows.Close()

	list := []*store.ChunkEmbedding{}
	for rows.Next() {
		var embedding store.ChunkEmbedding
		var vector pgvector.Vector
		err := rows.Scan(
			&embedding.ID,
			&embedding.ChunkID,
			&embedding.DocumentID,
			&embedding.ChunkIndex,
			&embedding.Content,
			&vector,
			&embedding.CreatedTs,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan chunk embedding")
		}

		embedding.Embedding = vector.Slice()
		list = append(list, &embedding)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate chunk embeddings")
	}

	return list, nil
}

// DeleteChunkEmbeddings removes one document's rows, or every row when no
// document is given.
func (d *DB) DeleteChunkEmbeddings(ctx context.Context, delete *store.DeleteChunkEmbedding) error {
	if delete.DocumentID != nil {
		if _, err := d.db.ExecContext(ctx, `DELETE FROM chunk_embedding WHERE document_id = `+placeholder(1), *delete.DocumentID); err != nil {
			return errors.Wrap(err, "failed to delete chunk embeddings")
		}
		return nil
	}

	if _, err := d.db.ExecContext(ctx, `DELETE FROM chunk_embedding`); err != nil {
		return errors.Wrap(err, "failed to delete chunk embeddings")
	}
	return nil
}
