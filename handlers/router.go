package handlers

import (
	"net/http"

	"github.com/SoulMinT05/mtshop-frontend/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the view API.
func NewRouter(cartHandler *CartHandler, messageHandler *MessageHandler, alertHandler *AlertHandler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	router.GET("/cart", cartHandler.GetCart)
	router.POST("/cart/refresh", cartHandler.RefreshCart)
	router.PUT("/cart/lines/:cartId/size", cartHandler.ChangeSize)
	router.POST("/cart/lines/:cartId/increase", cartHandler.Increase)
	router.POST("/cart/lines/:cartId/decrease", cartHandler.Decrease)
	router.PUT("/cart/lines/:cartId/selected", cartHandler.SetSelected)
	router.DELETE("/cart/lines/:cartId", cartHandler.DeleteLine)

	router.POST("/messages/:counterpartId/open", messageHandler.OpenThread)
	router.DELETE("/messages/:counterpartId/open", messageHandler.CloseThread)
	router.GET("/messages/:counterpartId", messageHandler.GetThread)
	router.POST("/messages/:counterpartId", messageHandler.SendMessage)

	router.GET("/alerts", alertHandler.ListAlerts)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	return router
}
