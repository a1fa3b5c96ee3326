package retrieval

import "strings"

// DefaultChunkSize and DefaultChunkOverlap size chunks for embedding and
// prompt budgets.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunk splits text into overlapping segments of at most chunkSize bytes.
// Cut points prefer the last space inside the window so chunks end on word
// boundaries; a window without a space is cut hard. Each segment is trimmed
// and empty segments are dropped. Text no longer than chunkSize is returned
// as a single segment unchanged, as is any text when chunkSize is not
// positive.
//
// Chunk terminates on every input: the window start strictly advances even
// when overlap >= chunkSize or a word-boundary backtrack lands before the
// overlap distance.
//
// Chunk is pure: identical inputs always produce identical output.
func Chunk(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 || len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + chunkSize
		if end < len(text) {
			if lastSpace := strings.LastIndexByte(text[start:end], ' '); lastSpace > 0 {
				end = start + lastSpace
			}
		} else {
			end = len(text)
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(text) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}
