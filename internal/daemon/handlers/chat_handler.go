package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gitnexus/gitnexus/internal/chat"
)

// ChatHandler relays one chat turn to the hosted model. Chat failures
// are confined here and never touch sync state.
type ChatHandler struct {
	chat *chat.Client
}

func NewChatHandler(client *chat.Client) *ChatHandler {
	return &ChatHandler{chat: client}
}

type ChatRequest struct {
	History []chat.Message    `json:"history"`
	Message string            `json:"message" binding:"required"`
	Files   []chat.Attachment `json:"files"`
}

type ChatResponse struct {
	Text string `json:"text"`
}

// Generate forwards prior turns plus the new message and returns the
// model's reply.
func (h *ChatHandler) Generate(c *gin.Context) {
	if h.chat == nil {
		AbortWithError(c, http.StatusServiceUnavailable, ErrCodeChatUnavailable, errors.New("chat is not configured"))
		return
	}

	var body ChatRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	text, err := h.chat.Generate(c.Request.Context(), body.History, body.Message, body.Files)
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeChatUnavailable, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Text: text})
}
