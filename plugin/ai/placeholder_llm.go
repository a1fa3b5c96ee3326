package ai

import (
	"context"
	"log/slog"
	"strings"
)

// placeholderLLM returns canned responses so the chat surface stays usable
// without provider credentials.
type placeholderLLM struct{}

func newPlaceholderLLM() LLMService {
	slog.Warn("using placeholder LLM service, chat responses are canned")
	return &placeholderLLM{}
}

const placeholderReply = "AI chat is not configured. Set an API key to enable real responses."

func (s *placeholderLLM) Chat(ctx context.Context, messages []Message) (string, error) {
	return s.respond(messages), nil
}

func (s *placeholderLLM) ChatStream(ctx context.Context, messages []Message) (<-chan string, <-chan error) {
	contentChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errChan)

		for _, word := range strings.Fields(s.respond(messages)) {
			select {
			case contentChan <- word + " ":
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return contentChan, errChan
}

func (s *placeholderLLM) respond(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return placeholderReply + " You said: " + messages[i].Content
		}
	}
	return placeholderReply
}
