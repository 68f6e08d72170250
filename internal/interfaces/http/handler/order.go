package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/stockpilot/backend/internal/application/orderflow"
)

// OrderHandler receives order status change notifications from the order
// source and feeds them to the stock state machine.
type OrderHandler struct {
	BaseHandler
	orders *orderflow.OrderStatusService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *orderflow.OrderStatusService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/orders/status-changed", h.StatusChanged)
}

// OrderStatusChangedRequest is the webhook body for an order status change
type OrderStatusChangedRequest struct {
	OrderID   string               `json:"order_id" binding:"required"`
	NewStatus string               `json:"new_status" binding:"required"`
	LineItems []orderflow.LineItem `json:"line_items" binding:"required,dive"`
}

// OrderStatusChangedResponse reports whether any stock effect was applied
type OrderStatusChangedResponse struct {
	Applied bool `json:"applied"`
}

// StatusChanged evaluates the state machine for one order status transition.
// Re-delivering the same transition is accepted and applies nothing.
func (h *OrderHandler) StatusChanged(c *gin.Context) {
	var req OrderStatusChangedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	applied, err := h.orders.OnOrderStatusChanged(c.Request.Context(), req.OrderID, req.NewStatus, req.LineItems)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, OrderStatusChangedResponse{Applied: applied})
}
