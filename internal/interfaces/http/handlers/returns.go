// internal/interfaces/http/handlers/returns.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/returns"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// ReturnsHandler handles the return/refund sub-workflow endpoints
type ReturnsHandler struct {
	returnsService *returns.Service
	config         *config.Config
}

// NewReturnsHandler creates a new returns handler
func NewReturnsHandler(returnsService *returns.Service, cfg *config.Config) *ReturnsHandler {
	return &ReturnsHandler{
		returnsService: returnsService,
		config:         cfg,
	}
}

// RequestReturnRequest represents the customer return payload
type RequestReturnRequest struct {
	Reason    returns.Reason `json:"reason" binding:"required"`
	OtherText string         `json:"other_text,omitempty"`
}

// PostMessageRequest represents a return thread message payload
type PostMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// RequestReturn handles POST /orders/:id/return
func (h *ReturnsHandler) RequestReturn(c *gin.Context) {
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

	var req RequestReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ord, err := h.returnsService.RequestReturn(c.Request.Context(), orderID, email, req.Reason, req.OtherText)
	if err != nil {
		respondReturnError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Return requested successfully",
		"data":    ord,
	})
}

// AdminRespond handles PUT /admin/orders/:id/return
func (h *ReturnsHandler) AdminRespond(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req returns.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	adminEmail, _ := middleware.GetUserEmailFromContext(c)
	ord, err := h.returnsService.RespondToReturn(c.Request.Context(), orderID, &req, adminEmail)
	if err != nil {
		respondReturnError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Return updated successfully",
		"data":    ord,
	})
}

// ListMessages handles GET /orders/:id/return/messages
func (h *ReturnsHandler) ListMessages(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	messages, err := h.returnsService.ListMessages(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve messages",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Messages retrieved successfully",
		"data":    messages,
	})
}

// PostMessage handles POST /orders/:id/return/messages
func (h *ReturnsHandler) PostMessage(c *gin.Context) {
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

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	role := returns.RoleCustomer
	if middleware.IsAdminFromContext(c) {
		role = returns.RoleAdmin
	}

	msg, err := h.returnsService.PostMessage(c.Request.Context(), orderID, role, email, req.Body)
	if err != nil {
		respondReturnError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message posted successfully",
		"data":    msg,
	})
}

// respondReturnError maps return workflow errors onto HTTP status codes.
func respondReturnError(c *gin.Context, err error) {
	var validationErr *returns.ValidationError

	switch {
	case errors.Is(err, order.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, order.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized for this order"})
	case errors.Is(err, returns.ErrNotAvailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, returns.ErrNotRequested):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, returns.ErrBackwardStatus):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
