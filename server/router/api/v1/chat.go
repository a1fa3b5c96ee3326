package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/wonderai/wonderchat/plugin/ai"
	"github.com/wonderai/wonderchat/server/internal/observability"
	"github.com/wonderai/wonderchat/server/retrieval"
	"github.com/wonderai/wonderchat/store"
)

const chatSystemPreamble = "You are WonderChat, a helpful assistant. Use the following context to answer questions:\n\n"

type sendMessageRequest struct {
	Content   string `json:"content"`
	MaxChunks int    `json:"max_chunks"`
	// SimilarityThreshold is a pointer so an explicit 0 is distinguishable
	// from an omitted field, which falls back to the configured default.
	SimilarityThreshold *float32 `json:"similarity_threshold"`
}

type sendMessageResponse struct {
	Message *messageResponse         `json:"message"`
	Sources []retrieval.SearchResult `json:"sources"`
}

// SendMessage appends a user message to the conversation, retrieves related
// document chunks, and produces an assistant reply. With ?stream=true the
// reply is delivered as server-sent events instead of a single JSON body.
func (s *APIV1Service) SendMessage(c echo.Context) error {
	ctx := c.Request().Context()
	uid := c.Param("uid")
	req := &sendMessageRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{UID: &uid})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get conversation")
	}
	if conversation == nil {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}

	rc := observability.NewRequestContext(slog.Default(), "send_message", conversation.UserID)
	metrics := observability.GlobalMetrics()
	metrics.RecordRequest("send_message")

	history, err := s.Store.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list messages")
	}

	if _, err := s.Store.CreateMessage(ctx, &store.Message{
		UID:            shortuuid.New(),
		ConversationID: conversation.ID,
		Role:           store.MessageRoleUser,
		Content:        req.Content,
		CreatedTs:      time.Now().Unix(),
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save message")
	}

	maxChunks := req.MaxChunks
	if maxChunks <= 0 {
		maxChunks = s.defaultMaxChunks()
	}
	threshold := s.defaultThreshold()
	if req.SimilarityThreshold != nil {
		threshold = *req.SimilarityThreshold
	}

	// Retrieval is best effort. A broken embedding provider should degrade
	// to a contextless chat rather than fail the request.
	var ragCtx *retrieval.RAGContext
	if s.Retrieval != nil {
		ragCtx, err = s.Retrieval.GetRAGContext(ctx, req.Content, maxChunks, threshold, conversation.UserID)
		if err != nil {
			rc.Warn("retrieval failed, continuing without context", slog.String("error", err.Error()))
			ragCtx = nil
		}
	}

	messages := buildChatMessages(history, req.Content, ragCtx)

	if c.QueryParam("stream") == "true" {
		return s.streamReply(c, rc, conversation, messages, ragCtx)
	}

	reply, err := s.LLMService.Chat(ctx, messages)
	if err != nil {
		rc.Error("chat completion failed", err)
		metrics.RecordFailure("send_message")
		return echo.NewHTTPError(http.StatusBadGateway, "chat completion failed")
	}
	rc.Info("chat completed",
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()),
		slog.Int("history_len", len(history)),
	)
	metrics.RecordDuration("send_message", rc.Duration())

	assistantMessage, err := s.persistAssistantMessage(ctx, conversation, reply, ragCtx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save message")
	}

	resp := &sendMessageResponse{
		Message: &messageResponse{
			UID:       assistantMessage.UID,
			Role:      string(assistantMessage.Role),
			Content:   assistantMessage.Content,
			Metadata:  assistantMessage.Metadata,
			CreatedTs: assistantMessage.CreatedTs,
		},
		Sources: ragSources(ragCtx),
	}
	return c.JSON(http.StatusOK, resp)
}

// buildChatMessages converts the stored history into chat messages and
// prepends a system preamble carrying the assembled retrieval context. An
// empty context omits the preamble entirely.
func buildChatMessages(history []*store.Message, content string, ragCtx *retrieval.RAGContext) []ai.Message {
	messages := make([]ai.Message, 0, len(history)+2)
	if contextText := ragCtx.Assemble(); contextText != "" {
		messages = append(messages, ai.SystemPrompt(chatSystemPreamble+contextText))
	}
	for _, m := range history {
		switch m.Role {
		case store.MessageRoleUser:
			messages = append(messages, ai.UserMessage(m.Content))
		case store.MessageRoleAssistant:
			messages = append(messages, ai.AssistantMessage(m.Content))
		}
	}
	messages = append(messages, ai.UserMessage(content))
	return messages
}

func (s *APIV1Service) streamReply(c echo.Context, rc *observability.RequestContext, conversation *store.Conversation, messages []ai.Message, ragCtx *retrieval.RAGContext) error {
	ctx := c.Request().Context()

	contentChan, errChan := s.LLMService.ChatStream(ctx, messages)

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	var reply string
	for chunk := range contentChan {
		reply += chunk
		observability.GlobalMetrics().RecordStreamChunk()
		payload, err := json.Marshal(map[string]string{"content": chunk})
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(resp, "data: %s\n\n", payload); err != nil {
			rc.Warn("client disconnected during stream", slog.String("error", err.Error()))
			break
		}
		resp.Flush()
	}
	if err := <-errChan; err != nil {
		rc.Error("chat stream failed", err)
		fmt.Fprintf(resp, "data: %s\n\n", `{"error":"chat stream failed"}`)
		resp.Flush()
		return nil
	}

	if reply != "" {
		if _, err := s.persistAssistantMessage(ctx, conversation, reply, ragCtx); err != nil {
			rc.Error("failed to save streamed reply", err)
		}
	}
	fmt.Fprint(resp, "data: [DONE]\n\n")
	resp.Flush()
	return nil
}

// persistAssistantMessage stores the reply with its sources in the message
// metadata and bumps the conversation's updated timestamp.
func (s *APIV1Service) persistAssistantMessage(ctx context.Context, conversation *store.Conversation, reply string, ragCtx *retrieval.RAGContext) (*store.Message, error) {
	metadata := ""
	if sources := ragSources(ragCtx); len(sources) > 0 {
		if raw, err := json.Marshal(map[string]any{"sources": sources}); err == nil {
			metadata = string(raw)
		}
	}

	message, err := s.Store.CreateMessage(ctx, &store.Message{
		UID:            shortuuid.New(),
		ConversationID: conversation.ID,
		Role:           store.MessageRoleAssistant,
		Content:        reply,
		Metadata:       metadata,
		CreatedTs:      time.Now().Unix(),
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	if _, err := s.Store.UpdateConversation(ctx, &store.UpdateConversation{
		ID:        conversation.ID,
		UpdatedTs: &now,
	}); err != nil {
		return nil, err
	}
	return message, nil
}

func ragSources(ragCtx *retrieval.RAGContext) []retrieval.SearchResult {
	if ragCtx == nil || len(ragCtx.Results) == 0 {
		return []retrieval.SearchResult{}
	}
	return ragCtx.Results
}
