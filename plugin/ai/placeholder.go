package ai

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math"
)

// placeholderEmbedder generates deterministic non-semantic vectors so
// ingestion and search stay exercisable when no real provider is configured.
// The vectors have the configured dimension and unit L2 norm, making them
// indistinguishable in shape from real embeddings downstream; only the
// construction-time log line tells the two apart.
type placeholderEmbedder struct {
	dimensions int
}

// NewPlaceholderEmbedder creates a deterministic placeholder embedding service.
func NewPlaceholderEmbedder(dimensions int) EmbeddingService {
	slog.Warn("using placeholder embedding provider; vectors are deterministic but not semantic",
		slog.Int("dimensions", dimensions))
	return &placeholderEmbedder{dimensions: dimensions}
}

func (p *placeholderEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return p.vectorFor(text), nil
}

func (p *placeholderEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = p.vectorFor(text)
	}
	return vectors, nil
}

func (p *placeholderEmbedder) Dimensions() int {
	return p.dimensions
}

// vectorFor derives a unit vector from an FNV-1a seeded xorshift stream over
// the input text. Identical texts always map to identical vectors.
func (p *placeholderEmbedder) vectorFor(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	state := h.Sum64()
	if state == 0 {
		state = 0x9e3779b97f4a7c15
	}

	vector := make([]float32, p.dimensions)
	var norm float64
	for i := range vector {
		// xorshift64
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		// Map to [-1, 1)
		v := float64(int64(state)) / float64(math.MaxInt64)
		vector[i] = float32(v)
		norm += v * v
	}

	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}

	return vector
}
