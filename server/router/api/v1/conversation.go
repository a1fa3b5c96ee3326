package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/wonderai/wonderchat/store"
)

type conversationResponse struct {
	UID       string `json:"uid"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	Pinned    bool   `json:"pinned"`
	CreatedTs int64  `json:"created_ts"`
	UpdatedTs int64  `json:"updated_ts"`
	RowStatus string `json:"row_status"`
}

func toConversationResponse(c *store.Conversation) *conversationResponse {
	return &conversationResponse{
		UID:       c.UID,
		UserID:    c.UserID,
		Title:     c.Title,
		Pinned:    c.Pinned,
		CreatedTs: c.CreatedTs,
		UpdatedTs: c.UpdatedTs,
		RowStatus: c.RowStatus.String(),
	}
}

type createConversationRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
}

func (s *APIV1Service) CreateConversation(c echo.Context) error {
	ctx := c.Request().Context()
	req := &createConversationRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Title == "" {
		req.Title = "New conversation"
	}

	now := time.Now().Unix()
	conversation, err := s.Store.CreateConversation(ctx, &store.Conversation{
		UID:       shortuuid.New(),
		UserID:    req.UserID,
		Title:     req.Title,
		CreatedTs: now,
		UpdatedTs: now,
		RowStatus: store.Normal,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create conversation")
	}
	return c.JSON(http.StatusCreated, toConversationResponse(conversation))
}

func (s *APIV1Service) ListConversations(c echo.Context) error {
	ctx := c.Request().Context()
	find := &store.FindConversation{}
	if userID := c.QueryParam("user_id"); userID != "" {
		find.UserID = &userID
	}

	conversations, err := s.Store.ListConversations(ctx, find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list conversations")
	}

	list := make([]*conversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		list = append(list, toConversationResponse(conversation))
	}
	return c.JSON(http.StatusOK, map[string]any{"conversations": list})
}

func (s *APIV1Service) GetConversation(c echo.Context) error {
	ctx := c.Request().Context()
	uid := c.Param("uid")

	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{UID: &uid})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get conversation")
	}
	if conversation == nil {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	return c.JSON(http.StatusOK, toConversationResponse(conversation))
}

type updateConversationRequest struct {
	Title     *string `json:"title"`
	Pinned    *bool   `json:"pinned"`
	RowStatus *string `json:"row_status"`
}

func (s *APIV1Service) UpdateConversation(c echo.Context) error {
	ctx := c.Request().Context()
	uid := c.Param("uid")
	req := &updateConversationRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{UID: &uid})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get conversation")
	}
	if conversation == nil {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}

	now := time.Now().Unix()
	update := &store.UpdateConversation{ID: conversation.ID, UpdatedTs: &now}
	if req.Title != nil {
		update.Title = req.Title
	}
	if req.Pinned != nil {
		update.Pinned = req.Pinned
	}
	if req.RowStatus != nil {
		rowStatus := store.RowStatus(*req.RowStatus)
		if rowStatus != store.Normal && rowStatus != store.Archived {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid row_status")
		}
		update.RowStatus = &rowStatus
	}

	updated, err := s.Store.UpdateConversation(ctx, update)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update conversation")
	}
	return c.JSON(http.StatusOK, toConversationResponse(updated))
}

func (s *APIV1Service) DeleteConversation(c echo.Context) error {
	ctx := c.Request().Context()
	uid := c.Param("uid")

	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{UID: &uid})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get conversation")
	}
	if conversation == nil {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}

	if err := s.Store.DeleteConversation(ctx, &store.DeleteConversation{ID: conversation.ID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete conversation")
	}
	return c.JSON(http.StatusOK, map[string]any{"deleted": true})
}

type messageResponse struct {
	UID       string `json:"uid"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Metadata  string `json:"metadata,omitempty"`
	CreatedTs int64  `json:"created_ts"`
}

func (s *APIV1Service) ListMessages(c echo.Context) error {
	ctx := c.Request().Context()
	uid := c.Param("uid")

	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{UID: &uid})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get conversation")
	}
	if conversation == nil {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}

	messages, err := s.Store.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list messages")
	}

	list := make([]*messageResponse, 0, len(messages))
	for _, m := range messages {
		list = append(list, &messageResponse{
			UID:       m.UID,
			Role:      string(m.Role),
			Content:   m.Content,
			Metadata:  m.Metadata,
			CreatedTs: m.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"messages": list})
}
