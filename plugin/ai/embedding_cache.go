package ai

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wonderai/wonderchat/plugin/ai/cache"
)

// cachedEmbedder memoizes vectors per text so re-ingesting the same
// document or repeating a query does not hit the provider again.
type cachedEmbedder struct {
	inner EmbeddingService
	cache *cache.LRUCache
}

// NewCachedEmbedder wraps an embedding service with an LRU memo keyed by
// text content.
func NewCachedEmbedder(inner EmbeddingService) EmbeddingService {
	return &cachedEmbedder{
		inner: inner,
		cache: cache.NewLRUCache(4096, time.Hour),
	}
}

func (s *cachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *cachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	missing := make([]string, 0, len(texts))
	missingAt := make([]int, 0, len(texts))

	for i, text := range texts {
		if raw, ok := s.cache.Get(embedCacheKey(text)); ok {
			var vector []float32
			if err := json.Unmarshal(raw, &vector); err == nil {
				vectors[i] = vector
				continue
			}
		}
		missing = append(missing, text)
		missingAt = append(missingAt, i)
	}

	if len(missing) > 0 {
		fresh, err := s.inner.EmbedBatch(ctx, missing)
		if err != nil {
			return nil, err
		}
		for j, vector := range fresh {
			vectors[missingAt[j]] = vector
			if raw, err := json.Marshal(vector); err == nil {
				s.cache.Set(embedCacheKey(missing[j]), raw, 0)
			}
		}
	}
	return vectors, nil
}

func (s *cachedEmbedder) Dimensions() int {
	return s.inner.Dimensions()
}

func embedCacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embed:%x", sum)
}
