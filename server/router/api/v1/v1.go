// Package v1 exposes the JSON API for documents, conversations, and chat.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/wonderai/wonderchat/internal/profile"
	"github.com/wonderai/wonderchat/plugin/ai"
	"github.com/wonderai/wonderchat/server/internal/observability"
	"github.com/wonderai/wonderchat/server/retrieval"
	"github.com/wonderai/wonderchat/store"
)

type APIV1Service struct {
	Profile    *profile.Profile
	Store      *store.Store
	Retrieval  *retrieval.Store
	LLMService ai.LLMService

	// ingestSemaphore limits concurrent document ingestion; embedding large
	// documents is memory- and rate-limit-heavy.
	ingestSemaphore *semaphore.Weighted
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, retrievalStore *retrieval.Store, llmService ai.LLMService) *APIV1Service {
	return &APIV1Service{
		Profile:         profile,
		Store:           store,
		Retrieval:       retrievalStore,
		LLMService:      llmService,
		ingestSemaphore: semaphore.NewWeighted(3),
	}
}

// Register wires all API routes on the given Echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	e.GET("/healthz", s.Healthz)

	g := e.Group("/api/v1")

	g.GET("/stats", s.GetStats)

	g.POST("/documents", s.IngestDocument)
	g.GET("/documents", s.ListDocuments)
	g.DELETE("/documents/:id", s.DeleteDocument)
	g.POST("/documents/search", s.SearchDocuments)

	g.POST("/conversations", s.CreateConversation)
	g.GET("/conversations", s.ListConversations)
	g.GET("/conversations/:uid", s.GetConversation)
	g.PATCH("/conversations/:uid", s.UpdateConversation)
	g.DELETE("/conversations/:uid", s.DeleteConversation)
	g.GET("/conversations/:uid/messages", s.ListMessages)
	g.POST("/conversations/:uid/messages", s.SendMessage)
}

// defaultThreshold is the similarity cutoff applied when a request omits
// one: the profile's configured value, or the retrieval default.
func (s *APIV1Service) defaultThreshold() float32 {
	if s.Profile.SimilarityThreshold > 0 {
		return float32(s.Profile.SimilarityThreshold)
	}
	return retrieval.DefaultSimilarityThreshold
}

// defaultMaxChunks mirrors defaultThreshold for the result budget.
func (s *APIV1Service) defaultMaxChunks() int {
	if s.Profile.MaxChunks > 0 {
		return s.Profile.MaxChunks
	}
	return retrieval.DefaultMaxChunks
}

// GetStats reports retrieval index sizes and per-operation request counters.
func (s *APIV1Service) GetStats(c echo.Context) error {
	documents, chunks, indexSize := s.Retrieval.Stats()
	metrics := observability.GlobalMetrics()
	return c.JSON(http.StatusOK, map[string]any{
		"documents":     documents,
		"chunks":        chunks,
		"index_size":    indexSize,
		"operations":    metrics.Snapshot(),
		"stream_chunks": metrics.StreamChunks(),
	})
}

// Healthz reports liveness plus retrieval index health.
func (s *APIV1Service) Healthz(c echo.Context) error {
	healthy := s.Retrieval.Healthy()
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, map[string]any{
		"status":    "ok",
		"retrieval": healthy,
		"version":   s.Profile.Version,
	})
}
