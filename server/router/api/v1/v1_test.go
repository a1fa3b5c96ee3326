package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/wonderai/wonderchat/internal/profile"
	"github.com/wonderai/wonderchat/plugin/ai"
	"github.com/wonderai/wonderchat/server/retrieval"
	"github.com/wonderai/wonderchat/store/test"
)

func newTestService(t *testing.T) (*APIV1Service, *echo.Echo) {
	ctx := context.Background()
	testStore := test.NewTestingStore(ctx, t)

	embedder := ai.NewPlaceholderEmbedder(64)
	llm, err := ai.NewLLMService(&ai.LLMConfig{Provider: "placeholder"})
	require.NoError(t, err)

	svc := NewAPIV1Service(
		&profile.Profile{
			Mode:                "dev",
			Version:             "test",
			ChunkSize:           1000,
			ChunkOverlap:        200,
			MaxChunks:           5,
			SimilarityThreshold: 0.7,
		},
		testStore,
		retrieval.NewStore(embedder),
		llm,
	)
	e := echo.New()
	svc.Register(e)
	return svc, e
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	_, e := newTestService(t)

	rec := doJSON(t, e, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, true, body["retrieval"])
	require.Equal(t, "test", body["version"])
}

func TestGetStats(t *testing.T) {
	_, e := newTestService(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/documents", map[string]any{
		"content": "Berlin is the capital of Germany.",
		"title":   "Capitals",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, float64(1), body["documents"])
	require.Equal(t, body["chunks"], body["index_size"])

	operations, ok := body["operations"].(map[string]any)
	require.True(t, ok)
	ingest, ok := operations["ingest_document"].(map[string]any)
	require.True(t, ok)
	require.GreaterOrEqual(t, ingest["count"], float64(1))
}

func TestDocumentLifecycle(t *testing.T) {
	_, e := newTestService(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/documents", map[string]any{
		"content": "Paris is the capital of France.",
		"title":   "Capitals",
		"user_id": "alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	ingested := decodeBody(t, rec)
	docID, _ := ingested["document_id"].(string)
	require.NotEmpty(t, docID)
	require.Equal(t, "indexed", ingested["status"])
	require.Equal(t, float64(1), ingested["chunk_count"])

	rec = doJSON(t, e, http.MethodGet, "/api/v1/documents?user_id=alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeBody(t, rec)
	documents, ok := listed["documents"].([]any)
	require.True(t, ok)
	require.Len(t, documents, 1)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/documents/search", map[string]any{
		"query":     "Paris is the capital of France.",
		"limit":     3,
		"threshold": 0.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	searched := decodeBody(t, rec)
	results, ok := searched["results"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, results)
	first, ok := results[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, docID, first["document_id"])

	rec = doJSON(t, e, http.MethodDelete, "/api/v1/documents/"+docID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodDelete, "/api/v1/documents/"+docID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestDocumentRequiresTitle(t *testing.T) {
	_, e := newTestService(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/documents", map[string]any{
		"content": "no title here",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchDocumentsDefaultThreshold(t *testing.T) {
	_, e := newTestService(t)

	content := "Paris is the capital of France."
	rec := doJSON(t, e, http.MethodPost, "/api/v1/documents", map[string]any{
		"content": content,
		"title":   "Capitals",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// An omitted threshold applies the configured 0.7 cutoff, so a query
	// with no similarity to the stored chunk returns nothing.
	rec = doJSON(t, e, http.MethodPost, "/api/v1/documents/search", map[string]any{
		"query": "completely unrelated words about nothing at all",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	results, ok := decodeBody(t, rec)["results"].([]any)
	require.True(t, ok)
	require.Empty(t, results)

	// An explicit threshold is honored, not replaced by the default. -1
	// admits every score, so the dissimilar chunk comes back.
	rec = doJSON(t, e, http.MethodPost, "/api/v1/documents/search", map[string]any{
		"query":     "completely unrelated words about nothing at all",
		"threshold": -1.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	results, ok = decodeBody(t, rec)["results"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, results)

	// An identical query scores 1.0 and clears the default cutoff.
	rec = doJSON(t, e, http.MethodPost, "/api/v1/documents/search", map[string]any{
		"query": content,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	results, ok = decodeBody(t, rec)["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)
}

func TestIngestDocumentUsesProfileChunking(t *testing.T) {
	ctx := context.Background()
	testStore := test.NewTestingStore(ctx, t)
	llm, err := ai.NewLLMService(&ai.LLMConfig{Provider: "placeholder"})
	require.NoError(t, err)

	svc := NewAPIV1Service(
		&profile.Profile{Mode: "dev", Version: "test", ChunkSize: 10, ChunkOverlap: 0},
		testStore,
		retrieval.NewStore(ai.NewPlaceholderEmbedder(64)),
		llm,
	)
	e := echo.New()
	svc.Register(e)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/documents", map[string]any{
		"content": strings.Repeat("abcdefgh ", 10),
		"title":   "Chunked",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	require.Greater(t, body["chunk_count"], float64(1))
}

func TestSearchDocumentsRequiresQuery(t *testing.T) {
	_, e := newTestService(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/documents/search", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConversationLifecycle(t *testing.T) {
	_, e := newTestService(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/conversations", map[string]any{
		"user_id": "alice",
		"title":   "Trip planning",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)
	uid, _ := created["uid"].(string)
	require.NotEmpty(t, uid)
	require.Equal(t, "Trip planning", created["title"])
	require.Equal(t, "NORMAL", created["row_status"])

	rec = doJSON(t, e, http.MethodGet, "/api/v1/conversations/"+uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodPatch, "/api/v1/conversations/"+uid, map[string]any{
		"title":      "Trip to Paris",
		"pinned":     true,
		"row_status": "ARCHIVED",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody(t, rec)
	require.Equal(t, "Trip to Paris", updated["title"])
	require.Equal(t, true, updated["pinned"])
	require.Equal(t, "ARCHIVED", updated["row_status"])

	rec = doJSON(t, e, http.MethodPatch, "/api/v1/conversations/"+uid, map[string]any{
		"row_status": "BOGUS",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/v1/conversations?user_id=alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeBody(t, rec)
	conversations, ok := listed["conversations"].([]any)
	require.True(t, ok)
	require.Len(t, conversations, 1)

	rec = doJSON(t, e, http.MethodDelete, "/api/v1/conversations/"+uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/v1/conversations/"+uid, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMessage(t *testing.T) {
	_, e := newTestService(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/documents", map[string]any{
		"content": "Paris is the capital of France.",
		"title":   "Capitals",
		"user_id": "alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/conversations", map[string]any{
		"user_id": "alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	uid, _ := decodeBody(t, rec)["uid"].(string)

	rec = doJSON(t, e, http.MethodPost, fmt.Sprintf("/api/v1/conversations/%s/messages", uid), map[string]any{
		"content": "What is the capital of France?",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	message, ok := body["message"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ASSISTANT", message["role"])
	content, _ := message["content"].(string)
	require.Contains(t, content, "What is the capital of France?")

	rec = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/v1/conversations/%s/messages", uid), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	messages, ok := decodeBody(t, rec)["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	first, _ := messages[0].(map[string]any)
	require.Equal(t, "USER", first["role"])
}

func TestSendMessageDefaultThreshold(t *testing.T) {
	_, e := newTestService(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/documents", map[string]any{
		"content": "Paris is the capital of France.",
		"title":   "Capitals",
		"user_id": "alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/conversations", map[string]any{
		"user_id": "alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	uid, _ := decodeBody(t, rec)["uid"].(string)

	// With the 0.7 default in effect, a dissimilar message must not drag
	// the stored chunk into the prompt context.
	rec = doJSON(t, e, http.MethodPost, fmt.Sprintf("/api/v1/conversations/%s/messages", uid), map[string]any{
		"content": "completely unrelated words about nothing at all",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	sources, ok := decodeBody(t, rec)["sources"].([]any)
	require.True(t, ok)
	require.Empty(t, sources)
}

type brokenEmbedder struct {
	ai.EmbeddingService
}

func (e *brokenEmbedder) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, errors.New("embedding provider down")
}

func (e *brokenEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	_, err := e.EmbedBatch(ctx, []string{text})
	return nil, err
}

// A failing retrieval pipeline must not fail the chat turn.
func TestSendMessageDegradesWithoutRetrieval(t *testing.T) {
	ctx := context.Background()
	testStore := test.NewTestingStore(ctx, t)
	llm, err := ai.NewLLMService(&ai.LLMConfig{Provider: "placeholder"})
	require.NoError(t, err)

	svc := NewAPIV1Service(
		&profile.Profile{Mode: "dev", Version: "test"},
		testStore,
		retrieval.NewStore(&brokenEmbedder{EmbeddingService: ai.NewPlaceholderEmbedder(64)}),
		llm,
	)
	e := echo.New()
	svc.Register(e)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/conversations", map[string]any{"user_id": "alice"})
	require.Equal(t, http.StatusCreated, rec.Code)
	uid, _ := decodeBody(t, rec)["uid"].(string)

	rec = doJSON(t, e, http.MethodPost, fmt.Sprintf("/api/v1/conversations/%s/messages", uid), map[string]any{
		"content": "hello",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	sources, ok := body["sources"].([]any)
	require.True(t, ok)
	require.Empty(t, sources)
}

func TestSendMessageMissingConversation(t *testing.T) {
	_, e := newTestService(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/conversations/unknown/messages", map[string]any{
		"content": "hello",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMessageStream(t *testing.T) {
	_, e := newTestService(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/conversations", map[string]any{
		"user_id": "alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	uid, _ := decodeBody(t, rec)["uid"].(string)

	rec = doJSON(t, e, http.MethodPost, fmt.Sprintf("/api/v1/conversations/%s/messages?stream=true", uid), map[string]any{
		"content": "hello there",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/event-stream")

	body := rec.Body.String()
	require.Contains(t, body, "data: ")
	require.Contains(t, body, "[DONE]")

	// The streamed reply must still be persisted.
	rec = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/v1/conversations/%s/messages", uid), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	messages, ok := decodeBody(t, rec)["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
}

func TestBuildChatMessagesSkipsEmptyContext(t *testing.T) {
	messages := buildChatMessages(nil, "hello", nil)
	require.Len(t, messages, 1)
	require.Equal(t, "user", messages[0].Role)

	ragCtx := &retrieval.RAGContext{
		Results: []retrieval.SearchResult{{
			Content:  "Paris is the capital of France.",
			Metadata: map[string]any{"title": "Capitals"},
		}},
	}
	messages = buildChatMessages(nil, "hello", ragCtx)
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].Role)
	require.Contains(t, messages[0].Content, "Document: Capitals")
}
