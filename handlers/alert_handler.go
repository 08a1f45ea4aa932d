package handlers

import (
	"net/http"

	"github.com/SoulMinT05/mtshop-frontend/alert"
	"github.com/gin-gonic/gin"
)

type AlertHandler struct {
	feed *alert.Feed
}

func NewAlertHandler(feed *alert.Feed) *AlertHandler {
	return &AlertHandler{feed: feed}
}

// ListAlerts handles GET /alerts
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": h.feed.Recent()})
}
