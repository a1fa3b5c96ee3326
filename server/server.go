// Package server wires the retrieval pipeline, the AI providers, and the
// HTTP API into a runnable service.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/wonderai/wonderchat/internal/profile"
	"github.com/wonderai/wonderchat/plugin/ai"
	"github.com/wonderai/wonderchat/plugin/markdown"
	"github.com/wonderai/wonderchat/server/middleware"
	"github.com/wonderai/wonderchat/server/retrieval"
	apiv1 "github.com/wonderai/wonderchat/server/router/api/v1"
	"github.com/wonderai/wonderchat/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	retrieval  *retrieval.Store
}

func NewServer(ctx context.Context, profile *profile.Profile, storeInstance *store.Store) (*Server, error) {
	cfg := ai.NewConfigFromProfile(profile)

	embedder, err := ai.NewEmbeddingService(&cfg.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embedding service")
	}
	if cfg.Embedding.Provider == "openai" {
		embedder = ai.NewCachedEmbedder(embedder)
	}
	llmService, err := ai.NewLLMService(&cfg.LLM)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create llm service")
	}

	retrievalOpts := []retrieval.StoreOption{
		retrieval.WithMarkdownService(markdown.NewService(markdown.WithGFM())),
		retrieval.WithSnapshotStore(newSnapshotStore(profile, storeInstance)),
		retrieval.WithEmbedTimeout(cfg.Embedding.Timeout),
	}
	if profile.Driver == "postgres" {
		retrievalOpts = append(retrievalOpts, retrieval.WithMirrorStore(&dbMirrorStore{store: storeInstance}))
	}
	retrievalStore := retrieval.NewStore(embedder, retrievalOpts...)
	if err := retrievalStore.LoadSnapshot(ctx); err != nil {
		// A stale or incompatible snapshot is not fatal. The index starts
		// empty and documents must be re-ingested.
		slog.Warn("failed to restore retrieval snapshot", "error", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
	}))
	e.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter()))

	apiService := apiv1.NewAPIV1Service(profile, storeInstance, retrievalStore, llmService)
	apiService.Register(e)

	return &Server{
		Profile:    profile,
		Store:      storeInstance,
		echoServer: e,
		retrieval:  retrievalStore,
	}, nil
}

func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", "addr", addr, "version", s.Profile.Version)
	if err := s.echoServer.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	slog.Info("server stopped")
}

// newSnapshotStore picks where retrieval snapshots live. PostgreSQL keeps
// them in the system_setting table so every replica restores the same
// state; SQLite deployments use a file next to the database.
func newSnapshotStore(profile *profile.Profile, storeInstance *store.Store) retrieval.SnapshotStore {
	if profile.Driver == "postgres" {
		return &dbSnapshotStore{store: storeInstance}
	}
	return retrieval.NewFileSnapshotStore(profile.Data)
}

// dbMirrorStore copies chunk embeddings into the chunk_embedding table so a
// pgvector-backed deployment keeps a durable, queryable copy of the index.
type dbMirrorStore struct {
	store *store.Store
}

func (s *dbMirrorStore) UpsertChunks(ctx context.Context, documentID string, chunks []retrieval.MirroredChunk) error {
	for _, chunk := range chunks {
		if _, err := s.store.UpsertChunkEmbedding(ctx, &store.ChunkEmbedding{
			ChunkID:    chunk.ChunkID,
			DocumentID: documentID,
			ChunkIndex: chunk.Index,
			Content:    chunk.Content,
			Embedding:  chunk.Vector,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *dbMirrorStore) DeleteChunks(ctx context.Context, documentID string) error {
	return s.store.DeleteChunkEmbeddings(ctx, &store.DeleteChunkEmbedding{DocumentID: &documentID})
}

type dbSnapshotStore struct {
	store *store.Store
}

func (s *dbSnapshotStore) Save(ctx context.Context, data []byte) error {
	return s.store.SaveRetrievalSnapshot(ctx, data)
}

func (s *dbSnapshotStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.store.LoadRetrievalSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, retrieval.ErrNoSnapshot
	}
	return data, nil
}
