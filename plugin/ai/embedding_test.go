package ai

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlaceholderEmbedderDeterministic(t *testing.T) {
	ctx := context.Background()
	svc := NewPlaceholderEmbedder(64)

	first, err := svc.Embed(ctx, "hello world")
	require.NoError(t, err)
	second, err := svc.Embed(ctx, "hello world")
	require.NoError(t, err)
	require.Equal(t, first, second)

	other, err := svc.Embed(ctx, "goodbye world")
	require.NoError(t, err)
	require.NotEqual(t, first, other)
}

func TestPlaceholderEmbedderDimensions(t *testing.T) {
	tests := []struct {
		name       string
		dimensions int
	}{
		{name: "small", dimensions: 8},
		{name: "default", dimensions: 1536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPlaceholderEmbedder(tt.dimensions)
			require.Equal(t, tt.dimensions, svc.Dimensions())

			vec, err := svc.Embed(context.Background(), "some text")
			require.NoError(t, err)
			require.Len(t, vec, tt.dimensions)
		})
	}
}

func TestPlaceholderEmbedderNormalized(t *testing.T) {
	svc := NewPlaceholderEmbedder(128)

	for _, text := range []string{"a", "the quick brown fox", ""} {
		vec, err := svc.Embed(context.Background(), text)
		require.NoError(t, err)

		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		require.InDelta(t, 1.0, math.Sqrt(norm), 1e-5, "vector for %q should be unit length", text)
	}
}

func TestPlaceholderEmbedderBatch(t *testing.T) {
	ctx := context.Background()
	svc := NewPlaceholderEmbedder(32)

	texts := []string{"one", "two", "three"}
	vectors, err := svc.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	// Batch results match single-text results.
	for i, text := range texts {
		single, err := svc.Embed(ctx, text)
		require.NoError(t, err)
		require.Equal(t, single, vectors[i])
	}
}

func TestNewEmbeddingServiceUnsupportedProvider(t *testing.T) {
	_, err := NewEmbeddingService(&EmbeddingConfig{Provider: "aliyun"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported embedding provider")
}

func TestConvertMessages(t *testing.T) {
	messages := []Message{
		SystemPrompt("be helpful"),
		UserMessage("hi"),
		AssistantMessage("hello"),
	}

	converted := convertMessages(messages)
	require.Len(t, converted, 3)
	require.Equal(t, "system", converted[0].Role)
	require.Equal(t, "user", converted[1].Role)
	require.Equal(t, "assistant", converted[2].Role)
	require.Equal(t, "hi", converted[1].Content)
}
