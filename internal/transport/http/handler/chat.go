package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docassist/internal/app"
	"docassist/internal/model"
	"docassist/internal/transport/http/response"
)

// chatStreamer is what the chat handler needs from the chat service.
type chatStreamer interface {
	Stream(ctx context.Context, input app.StreamInput, emit func(app.ChatEvent) error) error
	History(ctx context.Context, userID uint, convUID string, limit int) ([]model.Turn, error)
	ListConversations(userID uint) ([]model.Conversation, error)
	DeleteConversation(ctx context.Context, userID uint, convUID string) error
}

type ChatHandler struct {
	chatService chatStreamer
}

type ChatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversation_id"`
}

type TurnResponse struct {
	ID        uint           `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Sources   []model.Source `json:"sources,omitempty"`
	CreatedAt string         `json:"created_at"`
}

func NewChatHandler(chatService chatStreamer) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat handles POST /chat, streaming newline-delimited JSON events. Each line
// carries the cumulative response so far; the last line is the authoritative
// final answer.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		response.Detail(c, http.StatusBadRequest, "message content is empty")
		return
	}

	c.Writer.Header().Set("Content-Type", "application/x-ndjson")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	err := h.chatService.Stream(c.Request.Context(), app.StreamInput{
		UserID:         currentUserID(c),
		ConversationID: req.ConversationID,
		Message:        req.Message,
	}, func(ev app.ChatEvent) error {
		if err := enc.Encode(ev); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		// The response is already streaming; the service has emitted an
		// apology line where it could. Nothing more to send.
		_ = c.Error(err)
	}
}

// ListConversations handles GET /api/v1/conversations.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	convs, err := h.chatService.ListConversations(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list conversations failed")
		return
	}
	response.OK(c, convs)
}

// History handles GET /api/v1/conversations/:id/history.
func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	limit := 0
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	turns, err := h.chatService.History(c.Request.Context(), userID, c.Param("id"), limit)
	if err != nil {
		if errors.Is(err, app.ErrConversationNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch history failed")
		}
		return
	}

	out := make([]TurnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, TurnResponse{
			ID:        t.ID,
			Role:      t.Role,
			Content:   t.Content,
			Sources:   t.Sources(),
			CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	response.OK(c, out)
}

// DeleteConversation handles DELETE /api/v1/conversations/:id.
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	if err := h.chatService.DeleteConversation(c.Request.Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, app.ErrConversationNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete conversation failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_conversation_id": c.Param("id")})
}
