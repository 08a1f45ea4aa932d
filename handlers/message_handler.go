package handlers

import (
	"errors"
	"net/http"

	"github.com/SoulMinT05/mtshop-frontend/message"
	"github.com/SoulMinT05/mtshop-frontend/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MessageHandler struct {
	inbox  *message.Inbox
	logger *zap.Logger
}

func NewMessageHandler(inbox *message.Inbox, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{inbox: inbox, logger: logger}
}

type ThreadView struct {
	CounterpartID string           `json:"counterpartId"`
	Messages      []models.Message `json:"messages"`
}

type SendRequest struct {
	Body string `json:"body" binding:"required"`
}

func threadView(t *message.Thread) ThreadView {
	msgs := t.Messages()
	if msgs == nil {
		msgs = []models.Message{}
	}
	return ThreadView{CounterpartID: t.CounterpartID(), Messages: msgs}
}

// OpenThread handles POST /messages/{counterpartId}/open
func (h *MessageHandler) OpenThread(c *gin.Context) {
	counterpartID := c.Param("counterpartId")

	t, err := h.inbox.Open(counterpartID)
	if err != nil {
		if errors.Is(err, message.ErrHistoryUnavailable) {
			h.logger.Warn("thread open without history", zap.String("counterpart_id", counterpartID), zap.Error(err))
		}
		operationFailed(c, "Failed to open conversation", err)
		return
	}

	h.logger.Info("thread opened", zap.String("counterpart_id", counterpartID))
	c.JSON(http.StatusOK, threadView(t))
}

// CloseThread handles DELETE /messages/{counterpartId}/open
func (h *MessageHandler) CloseThread(c *gin.Context) {
	counterpartID := c.Param("counterpartId")
	if !h.inbox.Close(counterpartID) {
		notFound(c, "Conversation is not open")
		return
	}
	h.logger.Info("thread closed", zap.String("counterpart_id", counterpartID))
	c.Status(http.StatusNoContent)
}

// GetThread handles GET /messages/{counterpartId}
func (h *MessageHandler) GetThread(c *gin.Context) {
	t, ok := h.inbox.Get(c.Param("counterpartId"))
	if !ok {
		notFound(c, "Conversation is not open")
		return
	}
	c.JSON(http.StatusOK, threadView(t))
}

// SendMessage handles POST /messages/{counterpartId}
func (h *MessageHandler) SendMessage(c *gin.Context) {
	t, ok := h.inbox.Get(c.Param("counterpartId"))
	if !ok {
		notFound(c, "Conversation is not open")
		return
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "Invalid request body", err)
		return
	}

	msg, err := t.Send(c.Request.Context(), req.Body)
	if err != nil {
		operationFailed(c, "Failed to send message", err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
