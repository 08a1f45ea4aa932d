package handlers

import (
	"errors"
	"net/http"

	"github.com/SoulMinT05/mtshop-frontend/message"
	"github.com/SoulMinT05/mtshop-frontend/models"
	"github.com/gin-gonic/gin"
)

const (
	codeInvalidInput  = "INVALID_INPUT"
	codeNotFound      = "NOT_FOUND"
	codeRejected      = "REJECTED"
	codeUpstreamError = "UPSTREAM_ERROR"
)

func invalidInput(c *gin.Context, msg string, err error) {
	resp := models.ErrorResponse{Error: codeInvalidInput, Message: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{Error: codeNotFound, Message: msg})
}

// operationFailed maps a failed cart or message operation to a response.
func operationFailed(c *gin.Context, msg string, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, models.ErrInvalidSize), errors.Is(err, message.ErrEmptyMessage):
		invalidInput(c, msg, err)
	case errors.Is(err, models.ErrLineNotFound):
		notFound(c, msg)
	case errors.Is(err, models.ErrRejected):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   codeRejected,
			Message: msg,
			Details: rejection(err),
		})
	default:
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   codeUpstreamError,
			Message: msg,
			Details: err.Error(),
		})
	}
}

// rejection is the backend's own message for a rejected operation.
func rejection(err error) string {
	var rejected *models.RejectedError
	if errors.As(err, &rejected) {
		return rejected.Message
	}
	return ""
}
