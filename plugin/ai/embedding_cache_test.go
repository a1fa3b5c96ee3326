package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	EmbeddingService
	calls int
	texts int
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	e.texts += len(texts)
	return e.EmbeddingService.EmbedBatch(ctx, texts)
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func TestCachedEmbedderMemoizes(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{EmbeddingService: NewPlaceholderEmbedder(32)}
	embedder := NewCachedEmbedder(inner)

	first, err := embedder.Embed(ctx, "hello world")
	require.NoError(t, err)
	require.Equal(t, 1, inner.texts)

	second, err := embedder.Embed(ctx, "hello world")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, inner.texts)
}

func TestCachedEmbedderPartialBatch(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{EmbeddingService: NewPlaceholderEmbedder(32)}
	embedder := NewCachedEmbedder(inner)

	_, err := embedder.Embed(ctx, "alpha")
	require.NoError(t, err)

	vectors, err := embedder.EmbedBatch(ctx, []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	// Only the two uncached texts reach the provider.
	require.Equal(t, 3, inner.texts)

	want, err := NewPlaceholderEmbedder(32).Embed(ctx, "beta")
	require.NoError(t, err)
	require.Equal(t, want, vectors[1])

	require.Equal(t, embedder.Dimensions(), 32)
}
