// Package retrieval implements the retrieval subsystem for RAG chat:
// document ingestion (chunking + embedding), an in-memory inner-product
// similarity index, user-scoped nearest-neighbor search, and context
// assembly for prompt injection.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonderai/wonderchat/plugin/ai"
	"github.com/wonderai/wonderchat/plugin/ai/vector"
	"github.com/wonderai/wonderchat/plugin/markdown"
	apperrors "github.com/wonderai/wonderchat/server/internal/errors"
)

// DocType classifies ingested documents.
type DocType string

const (
	DocTypeText         DocType = "text"
	DocTypePDF          DocType = "pdf"
	DocTypeMarkdown     DocType = "markdown"
	DocTypeWeb          DocType = "web"
	DocTypeConversation DocType = "conversation"
	DocTypeUserUpload   DocType = "user_upload"
)

// DocStatus tracks a document's indexing lifecycle.
type DocStatus string

const (
	DocStatusPending DocStatus = "pending"
	DocStatusIndexed DocStatus = "indexed"
	DocStatusError   DocStatus = "error"
)

// Document is the metadata record for an ingested document. Documents are
// never mutated in place after indexing completes; removal cascades to all
// chunks.
type Document struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	DocType    DocType        `json:"doc_type"`
	OwnerID    string         `json:"owner_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Status     DocStatus      `json:"status"`
	ChunkCount int            `json:"chunk_count"`
	CreatedTs  int64          `json:"created_ts"`
}

// chunkRecord holds one chunk's content and metadata. Its embedding vector
// lives only in the similarity index, associated by position.
type chunkRecord struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Index      int            `json:"index"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Store owns documents, chunks, and the similarity index, and keeps the
// index positions in lockstep with the chunk id sequence. It is the only
// component that touches both.
//
// Mutations (ingest, delete) are serialized; searches run concurrently with
// each other and see either the pre-mutation or post-mutation state, never a
// mix.
type Store struct {
	embedder     ai.EmbeddingService
	markdown     markdown.Service
	snapshots    SnapshotStore
	mirror       MirrorStore
	logger       *slog.Logger
	embedTimeout time.Duration

	// ingestMu serializes mutating operations end to end. mu guards the
	// state below for readers.
	ingestMu sync.Mutex
	mu       sync.RWMutex

	documents map[string]*Document
	chunks    map[string]*chunkRecord
	chunkIDs  []string
	index     *vector.FlatIndex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSnapshotStore enables best-effort state snapshots after each mutation.
func WithSnapshotStore(snapshots SnapshotStore) StoreOption {
	return func(s *Store) { s.snapshots = snapshots }
}

// WithMarkdownService enables plain-text extraction for markdown and web
// documents before chunking.
func WithMarkdownService(md markdown.Service) StoreOption {
	return func(s *Store) { s.markdown = md }
}

// WithMirrorStore enables best-effort mirroring of chunk embeddings to a
// durable store.
func WithMirrorStore(mirror MirrorStore) StoreOption {
	return func(s *Store) { s.mirror = mirror }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithEmbedTimeout bounds each embedding provider call.
func WithEmbedTimeout(timeout time.Duration) StoreOption {
	return func(s *Store) { s.embedTimeout = timeout }
}

// NewStore creates a retrieval store backed by the given embedding service.
func NewStore(embedder ai.EmbeddingService, opts ...StoreOption) *Store {
	s := &Store{
		embedder:     embedder,
		logger:       slog.Default(),
		embedTimeout: 30 * time.Second,
		documents:    make(map[string]*Document),
		chunks:       make(map[string]*chunkRecord),
		index:        vector.NewFlatIndex(embedder.Dimensions()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestOptions are the parameters for Ingest. Zero ChunkSize and Overlap
// take the defaults.
type IngestOptions struct {
	Content   string
	Title     string
	DocType   DocType
	OwnerID   string
	Metadata  map[string]any
	ChunkSize int
	Overlap   int
}

// Ingest chunks, embeds, and indexes a document, returning its generated id.
// Embeddings are requested in batches; a batch failure aborts the remaining
// batches and surfaces a partial-ingest error, keeping the already-indexed
// prefix. Empty content records a document with zero chunks.
func (s *Store) Ingest(ctx context.Context, opts IngestOptions) (string, error) {
	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	overlap := opts.Overlap
	if overlap == 0 && opts.ChunkSize == 0 {
		overlap = DefaultChunkOverlap
	}
	if chunkSize <= 0 {
		return "", apperrors.InvalidArgument("chunk size must be positive")
	}
	if overlap < 0 || overlap >= chunkSize {
		return "", apperrors.InvalidArgument("overlap must be in [0, chunk size)")
	}
	docType := opts.DocType
	if docType == "" {
		docType = DocTypeText
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	doc := &Document{
		ID:        uuid.NewString(),
		Title:     opts.Title,
		DocType:   docType,
		OwnerID:   opts.OwnerID,
		Metadata:  copyMetadata(opts.Metadata),
		Status:    DocStatusPending,
		CreatedTs: time.Now().Unix(),
	}

	content := opts.Content
	if s.markdown != nil && (docType == DocTypeMarkdown || docType == DocTypeWeb) {
		content = s.markdown.PlainText([]byte(content))
	}

	chunks := nonEmpty(Chunk(content, chunkSize, overlap))

	s.mu.Lock()
	s.documents[doc.ID] = doc
	s.mu.Unlock()

	indexed := 0
	for start := 0; start < len(chunks); start += ai.MaxEmbeddingBatchSize {
		end := min(start+ai.MaxEmbeddingBatchSize, len(chunks))
		batch := chunks[start:end]

		vectors, err := s.embed(ctx, batch)
		if err != nil {
			s.mu.Lock()
			doc.Status = DocStatusError
			doc.ChunkCount = indexed
			s.mu.Unlock()
			s.logger.Error("document ingest failed",
				slog.String("document_id", doc.ID),
				slog.Int("indexed_chunks", indexed),
				slog.Any("error", err))
			return "", apperrors.PartialIngest(doc.ID, indexed, err)
		}

		s.mu.Lock()
		if err := s.appendChunks(doc, start, batch, vectors); err != nil {
			doc.Status = DocStatusError
			doc.ChunkCount = indexed
			s.mu.Unlock()
			return "", err
		}
		indexed += len(batch)
		s.mu.Unlock()

		s.mirrorUpsert(ctx, doc.ID, start, batch, vectors)
	}

	s.mu.Lock()
	doc.Status = DocStatusIndexed
	doc.ChunkCount = indexed
	s.mu.Unlock()

	s.saveSnapshot(ctx)

	s.logger.Info("document ingested",
		slog.String("document_id", doc.ID),
		slog.String("doc_type", string(docType)),
		slog.Int("chunk_count", indexed))
	return doc.ID, nil
}

// appendChunks adds one embedded batch to the index and records the chunk
// metadata, keeping both in lockstep. Caller holds the write lock.
func (s *Store) appendChunks(doc *Document, offset int, batch []string, vectors [][]float32) error {
	if err := s.index.Add(vectors...); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDimensionMismatch, "index append")
	}
	for i, content := range batch {
		chunk := &chunkRecord{
			ID:         chunkID(doc.ID, offset+i),
			DocumentID: doc.ID,
			Index:      offset + i,
			Content:    content,
			Metadata:   copyMetadata(doc.Metadata),
		}
		s.chunks[chunk.ID] = chunk
		s.chunkIDs = append(s.chunkIDs, chunk.ID)
	}
	return nil
}

// Search embeds the query and returns up to k results at or above the
// similarity threshold, highest score first. A non-empty ownerID drops
// results whose document belongs to someone else.
func (s *Store) Search(ctx context.Context, query string, k int, threshold float32, ownerID string) ([]SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	vectors, err := s.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits, err := s.index.Search(vectors[0], k)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDimensionMismatch, "index search")
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < threshold {
			continue
		}
		chunk, ok := s.chunks[s.chunkIDs[hit.Position]]
		if !ok {
			continue
		}
		doc, ok := s.documents[chunk.DocumentID]
		if !ok {
			continue
		}
		if ownerID != "" && doc.OwnerID != ownerID {
			continue
		}

		metadata := copyMetadata(chunk.Metadata)
		if metadata == nil {
			metadata = make(map[string]any)
		}
		metadata["title"] = doc.Title
		metadata["doc_type"] = string(doc.DocType)
		metadata["chunk_index"] = chunk.Index

		results = append(results, SearchResult{
			DocumentID: doc.ID,
			ChunkID:    chunk.ID,
			Content:    chunk.Content,
			Score:      hit.Score,
			Metadata:   metadata,
		})
	}
	return results, nil
}

// GetRAGContext runs a search sized at twice maxChunks to compensate for
// threshold and owner filtering, truncates to maxChunks, and wraps the
// results in a RAGContext.
func (s *Store) GetRAGContext(ctx context.Context, query string, maxChunks int, threshold float32, ownerID string) (*RAGContext, error) {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}

	results, err := s.Search(ctx, query, maxChunks*2, threshold, ownerID)
	if err != nil {
		return nil, err
	}
	if len(results) > maxChunks {
		results = results[:maxChunks]
	}

	return &RAGContext{
		Query:               query,
		Results:             results,
		TotalChunks:         len(results),
		MaxChunks:           maxChunks,
		SimilarityThreshold: threshold,
	}, nil
}

// DeleteDocument removes a document and its chunks, then rebuilds the index
// from the surviving chunks by re-embedding them. Returns false for an
// unknown id. The rebuild happens off to the side; the old state stays
// visible to searches until the new index swaps in.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) (bool, error) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	s.mu.RLock()
	if _, ok := s.documents[documentID]; !ok {
		s.mu.RUnlock()
		return false, nil
	}
	survivors := make([]string, 0, len(s.chunkIDs))
	contents := make([]string, 0, len(s.chunkIDs))
	for _, id := range s.chunkIDs {
		chunk := s.chunks[id]
		if chunk.DocumentID == documentID {
			continue
		}
		survivors = append(survivors, id)
		contents = append(contents, chunk.Content)
	}
	s.mu.RUnlock()

	rebuilt := vector.NewFlatIndex(s.index.Dimension())
	for start := 0; start < len(contents); start += ai.MaxEmbeddingBatchSize {
		end := min(start+ai.MaxEmbeddingBatchSize, len(contents))
		vectors, err := s.embed(ctx, contents[start:end])
		if err != nil {
			return false, err
		}
		if err := rebuilt.Add(vectors...); err != nil {
			return false, apperrors.Wrap(err, apperrors.ErrCodeDimensionMismatch, "index rebuild")
		}
	}

	s.mu.Lock()
	for _, id := range s.chunkIDs {
		if s.chunks[id].DocumentID == documentID {
			delete(s.chunks, id)
		}
	}
	delete(s.documents, documentID)
	s.chunkIDs = survivors
	s.index = rebuilt
	s.mu.Unlock()

	if s.mirror != nil {
		if err := s.mirror.DeleteChunks(ctx, documentID); err != nil {
			s.logger.Warn("mirror delete failed",
				slog.String("document_id", documentID),
				slog.Any("error", err))
		}
	}

	s.saveSnapshot(ctx)

	s.logger.Info("document deleted",
		slog.String("document_id", documentID),
		slog.Int("remaining_chunks", len(survivors)))
	return true, nil
}

// GetDocument returns a copy of the document record, or nil if unknown.
func (s *Store) GetDocument(documentID string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return nil
	}
	copied := *doc
	copied.Metadata = copyMetadata(doc.Metadata)
	return &copied
}

// ListDocuments returns copies of all document records, optionally filtered
// by owner.
func (s *Store) ListDocuments(ownerID string) []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]*Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if ownerID != "" && doc.OwnerID != ownerID {
			continue
		}
		copied := *doc
		copied.Metadata = copyMetadata(doc.Metadata)
		docs = append(docs, &copied)
	}
	return docs
}

// Stats reports the current index and metadata sizes.
func (s *Store) Stats() (documents, chunks, indexSize int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), len(s.chunks), s.index.Size()
}

// Healthy reports whether the index is initialized and consistent with the
// chunk id sequence.
func (s *Store) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index != nil && s.index.Size() == len(s.chunkIDs)
}

// snapshotState is the serialized form of the store.
type snapshotState struct {
	Documents map[string]*Document    `json:"documents"`
	Chunks    map[string]*chunkRecord `json:"chunks"`
	ChunkIDs  []string                `json:"chunk_ids"`
	Index     *vector.FlatIndex       `json:"index"`
}

// LoadSnapshot restores the store state from the snapshot store, if one was
// saved. A missing snapshot is not an error. A snapshot whose dimension or
// lockstep invariant does not hold is rejected.
func (s *Store) LoadSnapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}

	data, err := s.snapshots.Load(ctx)
	if err != nil {
		if err == ErrNoSnapshot {
			return nil
		}
		return apperrors.Wrap(err, apperrors.ErrCodePersistenceFailure, "load snapshot")
	}

	var state snapshotState
	if err := json.Unmarshal(data, &state); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodePersistenceFailure, "decode snapshot")
	}
	if state.Index == nil || state.Index.Dimension() != s.embedder.Dimensions() {
		return apperrors.InvalidArgument("snapshot dimension does not match embedder")
	}
	if state.Index.Size() != len(state.ChunkIDs) {
		return apperrors.InvalidArgument("snapshot index out of sync with chunk ids")
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if state.Documents == nil {
		state.Documents = make(map[string]*Document)
	}
	if state.Chunks == nil {
		state.Chunks = make(map[string]*chunkRecord)
	}
	s.documents = state.Documents
	s.chunks = state.Chunks
	s.chunkIDs = state.ChunkIDs
	s.index = state.Index

	s.logger.Info("retrieval snapshot loaded",
		slog.Int("documents", len(s.documents)),
		slog.Int("chunks", len(s.chunks)))
	return nil
}

// saveSnapshot persists the current state. Failures are logged and
// swallowed; snapshots are not on the request critical path.
func (s *Store) saveSnapshot(ctx context.Context) {
	if s.snapshots == nil {
		return
	}

	s.mu.RLock()
	state := snapshotState{
		Documents: s.documents,
		Chunks:    s.chunks,
		ChunkIDs:  s.chunkIDs,
		Index:     s.index,
	}
	data, err := json.Marshal(state)
	s.mu.RUnlock()
	if err != nil {
		s.logger.Warn("snapshot encode failed", slog.Any("error", err))
		return
	}

	if err := s.snapshots.Save(ctx, data); err != nil {
		s.logger.Warn("snapshot save failed", slog.Any("error", err))
	}
}

// mirrorUpsert forwards one embedded batch to the mirror store. Failures are
// logged and swallowed.
func (s *Store) mirrorUpsert(ctx context.Context, documentID string, offset int, batch []string, vectors [][]float32) {
	if s.mirror == nil {
		return
	}

	mirrored := make([]MirroredChunk, 0, len(batch))
	for i, content := range batch {
		mirrored = append(mirrored, MirroredChunk{
			ChunkID: chunkID(documentID, offset+i),
			Index:   offset + i,
			Content: content,
			Vector:  vectors[i],
		})
	}
	if err := s.mirror.UpsertChunks(ctx, documentID, mirrored); err != nil {
		s.logger.Warn("mirror upsert failed",
			slog.String("document_id", documentID),
			slog.Any("error", err))
	}
}

// embed calls the embedding provider with a bounded timeout.
func (s *Store) embed(ctx context.Context, texts []string) ([][]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	vectors, err := s.embedder.EmbedBatch(embedCtx, texts)
	if err != nil {
		if embedCtx.Err() == context.DeadlineExceeded {
			return nil, apperrors.Timeout("embedding call timed out", err)
		}
		return nil, apperrors.ProviderUnavailable("embedding call failed", err)
	}
	return vectors, nil
}

func chunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_%d", documentID, index)
}

// nonEmpty drops whitespace-only chunks. The chunker already trims interior
// chunks but passes short inputs through unchanged.
func nonEmpty(chunks []string) []string {
	filtered := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func copyMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	copied := make(map[string]any, len(metadata))
	for k, v := range metadata {
		copied[k] = v
	}
	return copied
}
