// internal/interfaces/http/handlers/order.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	cartIDs      *CartHandler
	config       *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, cartHandler *CartHandler, cfg *config.Config) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		cartIDs:      cartHandler,
		config:       cfg,
	}
}

// CancelOrderRequest represents the cancel payload
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	cartID := h.cartIDs.getOrCreateCartID(c)

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ord, err := h.orderService.CreateOrder(c.Request.Context(), cartID, &req)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"data":    ord,
	})
}

// ListOrders handles GET /orders. Customers see their own orders only.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	email, ok := middleware.GetUserEmailFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	resp, err := h.orderService.ListByCustomer(c.Request.Context(), email, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve orders",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    resp,
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	ord, ok := h.loadOwnedOrder(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    ord,
	})
}

// CompleteOrder handles POST /orders/:id/complete. The authenticated email
// must match the order's customer email.
func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	email, ok := middleware.GetUserEmailFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	ord, err := h.orderService.Complete(c.Request.Context(), orderID, email)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order completed successfully",
		"data":    ord,
	})
}

// CancelOrder handles POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	ord, ok := h.loadOwnedOrder(c)
	if !ok {
		return
	}

	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	cancelled, err := h.orderService.Cancel(c.Request.Context(), ord.ID, req.Reason, email)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    cancelled,
	})
}

// AdminListOrders handles GET /admin/orders
func (h *OrderHandler) AdminListOrders(c *gin.Context) {
	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.orderService.List(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve orders",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    resp,
	})
}

// AdminPayOrder handles POST /admin/orders/:id/pay
func (h *OrderHandler) AdminPayOrder(c *gin.Context) {
	h.adminTransition(c, h.orderService.Pay, "Order marked as paid")
}

// AdminFulfillOrder handles POST /admin/orders/:id/fulfill
func (h *OrderHandler) AdminFulfillOrder(c *gin.Context) {
	h.adminTransition(c, h.orderService.Fulfill, "Order marked as fulfilled")
}

// AdminShipOrder handles POST /admin/orders/:id/ship
func (h *OrderHandler) AdminShipOrder(c *gin.Context) {
	h.adminTransition(c, h.orderService.Ship, "Order marked as shipped")
}

func (h *OrderHandler) adminTransition(c *gin.Context, fn func(ctx context.Context, orderID uint, actor string) (*order.Order, error), message string) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	actor, _ := middleware.GetUserEmailFromContext(c)
	ord, err := fn(c.Request.Context(), orderID, actor)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    ord,
	})
}

// loadOwnedOrder fetches the order and enforces that the caller owns it.
// Admins may access any order.
func (h *OrderHandler) loadOwnedOrder(c *gin.Context) (*order.Order, bool) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return nil, false
	}

	ord, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondOrderError(c, err)
		return nil, false
	}

	if !middleware.IsAdminFromContext(c) {
		email, _ := middleware.GetUserEmailFromContext(c)
		if !strings.EqualFold(email, ord.Customer.Email) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Access denied",
			})
			return nil, false
		}
	}

	return ord, true
}

func parseOrderID(c *gin.Context) (uint, bool) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return 0, false
	}
	return uint(orderID), true
}

// respondOrderError maps domain errors onto HTTP status codes.
func respondOrderError(c *gin.Context, err error) {
	var validationErr *order.ValidationError
	var stockErr *order.StockConflictError

	switch {
	case errors.Is(err, order.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, order.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, order.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized for this order"})
	case errors.Is(err, order.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Insufficient stock",
			"conflicts": stockErr.Lines,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
