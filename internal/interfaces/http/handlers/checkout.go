// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
)

// CheckoutHandler handles checkout preview endpoints
type CheckoutHandler struct {
	cartService *cart.Service
	engine      *pricing.Engine
	cartIDs     *CartHandler
	config      *config.Config
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(cartService *cart.Service, engine *pricing.Engine, cartHandler *CartHandler, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		cartService: cartService,
		engine:      engine,
		cartIDs:     cartHandler,
		config:      cfg,
	}
}

// QuoteRequest represents a quote preview payload
type QuoteRequest struct {
	Country      string `json:"country" binding:"required"`
	DiscountCode string `json:"discount_code,omitempty"`
	ShippingCode string `json:"shipping_code,omitempty"`
}

// Quote handles POST /checkout/quote. It prices the current cart for a
// destination without creating an order, so the storefront can show an
// itemized total before checkout.
func (h *CheckoutHandler) Quote(c *gin.Context) {
	cartID := h.cartIDs.getOrCreateCartID(c)

	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	crt, items, err := h.cartService.Checkout(c.Request.Context(), cartID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}
	if len(items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Cart is empty",
		})
		return
	}

	quote, err := h.engine.Quote(c.Request.Context(), crt.Lines, req.DiscountCode, req.ShippingCode, req.Country, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to price cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quote generated successfully",
		"data": gin.H{
			"items": items,
			"quote": quote,
		},
	})
}
