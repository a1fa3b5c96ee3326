package retrieval

import (
	"fmt"
	"strings"
)

// DefaultMaxChunks and DefaultSimilarityThreshold are the retrieval policy
// defaults applied when a caller leaves them unset.
const (
	DefaultMaxChunks           = 5
	DefaultSimilarityThreshold = 0.7
)

// SearchResult is one retrieved chunk with its similarity score and merged
// metadata. Results are per-query and never persisted.
type SearchResult struct {
	DocumentID string         `json:"document_id"`
	ChunkID    string         `json:"chunk_id"`
	Content    string         `json:"content"`
	Score      float32        `json:"score"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// RAGContext is the retrieval outcome for a single query, ordered by score
// descending, together with the policy parameters that produced it.
type RAGContext struct {
	Query               string         `json:"query"`
	Results             []SearchResult `json:"results"`
	TotalChunks         int            `json:"total_chunks"`
	MaxChunks           int            `json:"max_chunks"`
	SimilarityThreshold float32        `json:"similarity_threshold"`
}

// Assemble formats the context results into a text block for prompt
// injection. Each result becomes a source-labeled section; sections are
// joined by a blank line in the order received. An empty context returns ""
// so the caller can skip injecting a context message entirely.
func (c *RAGContext) Assemble() string {
	if c == nil || len(c.Results) == 0 {
		return ""
	}

	sections := make([]string, 0, len(c.Results))
	for _, result := range c.Results {
		title := "Unknown"
		if t, ok := result.Metadata["title"].(string); ok && t != "" {
			title = t
		}
		sections = append(sections, fmt.Sprintf("Document: %s\nContent: %s", title, result.Content))
	}

	return strings.Join(sections, "\n\n")
}
