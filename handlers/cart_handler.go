package handlers

import (
	"net/http"

	"github.com/SoulMinT05/mtshop-frontend/cart"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CartHandler struct {
	table  *cart.Table
	logger *zap.Logger
}

func NewCartHandler(table *cart.Table, logger *zap.Logger) *CartHandler {
	return &CartHandler{table: table, logger: logger}
}

type CartView struct {
	Lines []cart.View `json:"lines"`
}

type ChangeSizeRequest struct {
	Size string `json:"size" binding:"required"`
}

type SelectRequest struct {
	Selected *bool `json:"selected" binding:"required"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, CartView{Lines: h.table.Views()})
}

// RefreshCart handles POST /cart/refresh
func (h *CartHandler) RefreshCart(c *gin.Context) {
	if err := h.table.Refresh(c.Request.Context()); err != nil {
		operationFailed(c, "Failed to load cart", err)
		return
	}
	c.JSON(http.StatusOK, CartView{Lines: h.table.Views()})
}

// ChangeSize handles PUT /cart/lines/{cartId}/size
func (h *CartHandler) ChangeSize(c *gin.Context) {
	row, ok := h.row(c)
	if !ok {
		return
	}

	var req ChangeSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "Invalid request body", err)
		return
	}

	if err := row.ChangeSize(c.Request.Context(), req.Size); err != nil {
		operationFailed(c, "Failed to change size", err)
		return
	}
	h.logger.Info("cart line size changed", zap.String("cart_entry_id", row.CartEntryID()), zap.String("size", req.Size))
	c.JSON(http.StatusOK, row.View())
}

// Increase handles POST /cart/lines/{cartId}/increase
func (h *CartHandler) Increase(c *gin.Context) {
	row, ok := h.row(c)
	if !ok {
		return
	}
	if err := row.Increase(c.Request.Context()); err != nil {
		operationFailed(c, "Failed to increase quantity", err)
		return
	}
	c.JSON(http.StatusOK, row.View())
}

// Decrease handles POST /cart/lines/{cartId}/decrease
func (h *CartHandler) Decrease(c *gin.Context) {
	row, ok := h.row(c)
	if !ok {
		return
	}
	if err := row.Decrease(c.Request.Context()); err != nil {
		operationFailed(c, "Failed to decrease quantity", err)
		return
	}
	c.JSON(http.StatusOK, row.View())
}

// SetSelected handles PUT /cart/lines/{cartId}/selected
func (h *CartHandler) SetSelected(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "Invalid request body", err)
		return
	}

	cartID := c.Param("cartId")
	if err := h.table.Select(cartID, *req.Selected); err != nil {
		operationFailed(c, "Cart line not found", err)
		return
	}
	row, ok := h.table.Row(cartID)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, row.View())
}

// DeleteLine handles DELETE /cart/lines/{cartId}
func (h *CartHandler) DeleteLine(c *gin.Context) {
	row, ok := h.row(c)
	if !ok {
		return
	}
	if err := row.Delete(c.Request.Context()); err != nil {
		operationFailed(c, "Failed to remove product from cart", err)
		return
	}
	h.logger.Info("cart line removed", zap.String("cart_entry_id", row.CartEntryID()))
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) row(c *gin.Context) (*cart.LineItem, bool) {
	cartID := c.Param("cartId")
	row, ok := h.table.Row(cartID)
	if !ok {
		notFound(c, "Cart line not found")
		return nil, false
	}
	return row, true
}
