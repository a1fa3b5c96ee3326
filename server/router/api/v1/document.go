package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/wonderai/wonderchat/server/internal/errors"
	"github.com/wonderai/wonderchat/server/internal/observability"
	"github.com/wonderai/wonderchat/server/retrieval"
)

type ingestDocumentRequest struct {
	Content   string         `json:"content"`
	Title     string         `json:"title"`
	DocType   string         `json:"doc_type"`
	UserID    string         `json:"user_id"`
	Metadata  map[string]any `json:"metadata"`
	ChunkSize int            `json:"chunk_size"`
	Overlap   int            `json:"overlap"`
}

type ingestDocumentResponse struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
	Status     string `json:"status"`
}

// IngestDocument chunks, embeds, and indexes a document.
func (s *APIV1Service) IngestDocument(c echo.Context) error {
	ctx := c.Request().Context()
	req := &ingestDocumentRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	rc := observability.NewRequestContext(slog.Default(), "ingest_document", req.UserID)
	rc.Info("ingesting document", slog.Int("content_length", len(req.Content)))
	metrics := observability.GlobalMetrics()
	metrics.RecordRequest("ingest_document")

	if err := s.ingestSemaphore.Acquire(ctx, 1); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "ingestion unavailable")
	}
	defer s.ingestSemaphore.Release(1)

	// A request that specifies no chunking at all takes the profile's
	// configured sizes; a request that sets chunk_size keeps its own overlap.
	if req.ChunkSize == 0 && req.Overlap == 0 && s.Profile.ChunkSize > 0 {
		req.ChunkSize = s.Profile.ChunkSize
		req.Overlap = s.Profile.ChunkOverlap
	}

	docID, err := s.Retrieval.Ingest(ctx, retrieval.IngestOptions{
		Content:   req.Content,
		Title:     req.Title,
		DocType:   retrieval.DocType(req.DocType),
		OwnerID:   req.UserID,
		Metadata:  req.Metadata,
		ChunkSize: req.ChunkSize,
		Overlap:   req.Overlap,
	})
	if err != nil {
		rc.Error("document ingest failed", err)
		metrics.RecordFailure("ingest_document")
		if apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, "failed to ingest document")
	}

	doc := s.Retrieval.GetDocument(docID)
	resp := &ingestDocumentResponse{DocumentID: docID, Status: string(retrieval.DocStatusIndexed)}
	if doc != nil {
		resp.ChunkCount = doc.ChunkCount
		resp.Status = string(doc.Status)
	}

	rc.Info("document ingested",
		slog.String(observability.LogFieldDocumentID, docID),
		slog.Int(observability.LogFieldChunkCount, resp.ChunkCount),
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	metrics.RecordDuration("ingest_document", rc.Duration())
	return c.JSON(http.StatusCreated, resp)
}

type documentResponse struct {
	DocumentID string         `json:"document_id"`
	Title      string         `json:"title"`
	DocType    string         `json:"doc_type"`
	UserID     string         `json:"user_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Status     string         `json:"status"`
	ChunkCount int            `json:"chunk_count"`
	CreatedTs  int64          `json:"created_ts"`
}

// ListDocuments returns document records, optionally scoped to a user.
func (s *APIV1Service) ListDocuments(c echo.Context) error {
	docs := s.Retrieval.ListDocuments(c.QueryParam("user_id"))

	list := make([]*documentResponse, 0, len(docs))
	for _, doc := range docs {
		list = append(list, &documentResponse{
			DocumentID: doc.ID,
			Title:      doc.Title,
			DocType:    string(doc.DocType),
			UserID:     doc.OwnerID,
			Metadata:   doc.Metadata,
			Status:     string(doc.Status),
			ChunkCount: doc.ChunkCount,
			CreatedTs:  doc.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"documents": list})
}

// DeleteDocument removes a document and rebuilds the index.
func (s *APIV1Service) DeleteDocument(c echo.Context) error {
	ctx := c.Request().Context()
	documentID := c.Param("id")

	if err := s.ingestSemaphore.Acquire(ctx, 1); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "deletion unavailable")
	}
	defer s.ingestSemaphore.Release(1)

	deleted, err := s.Retrieval.DeleteDocument(ctx, documentID)
	if err != nil {
		slog.Error("document delete failed",
			slog.String(observability.LogFieldDocumentID, documentID),
			slog.Any("error", err))
		return echo.NewHTTPError(http.StatusBadGateway, "failed to delete document")
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"deleted": true})
}

type searchDocumentsRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
	// Threshold is a pointer so an explicit 0 is distinguishable from an
	// omitted field, which falls back to the configured default.
	Threshold *float32 `json:"threshold"`
	UserID    string   `json:"user_id"`
}

// SearchDocuments runs a similarity search over indexed chunks.
func (s *APIV1Service) SearchDocuments(c echo.Context) error {
	ctx := c.Request().Context()
	req := &searchDocumentsRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	if req.Limit <= 0 {
		req.Limit = s.defaultMaxChunks()
	}
	threshold := s.defaultThreshold()
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	metrics := observability.GlobalMetrics()
	metrics.RecordRequest("search_documents")
	start := time.Now()

	results, err := s.Retrieval.Search(ctx, req.Query, req.Limit, threshold, req.UserID)
	if err != nil {
		slog.Error("document search failed",
			slog.Int(observability.LogFieldQueryLen, len(req.Query)),
			slog.Any("error", err))
		metrics.RecordFailure("search_documents")
		return echo.NewHTTPError(http.StatusBadGateway, "search unavailable")
	}
	metrics.RecordDuration("search_documents", time.Since(start))

	if results == nil {
		results = []retrieval.SearchResult{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"query":   req.Query,
		"results": results,
	})
}
