// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

const cartSessionCookie = "cart_session"

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
	config      *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service, cfg *config.Config) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		config:      cfg,
	}
}

// AddToCartRequest represents the add-to-cart payload
type AddToCartRequest struct {
	ProductID uint  `json:"product_id" binding:"required"`
	VariantID *uint `json:"variant_id,omitempty"`
	Quantity  int   `json:"quantity" binding:"required"`
}

// UpdateCartItemRequest represents the set-quantity payload
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	cartID := h.getOrCreateCartID(c)

	view, err := h.cartService.Get(c.Request.Context(), cartID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    view,
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	cartID := h.getOrCreateCartID(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	view, signal, err := h.cartService.AddLine(c.Request.Context(), cartID, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		h.respondCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": cartMessage(signal, "Item added to cart successfully"),
		"data":    view,
		"stock":   signal,
	})
}

// UpdateCartItem handles PUT /cart/items/:product_id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	cartID := h.getOrCreateCartID(c)

	productID, variantID, ok := parseCartItemKey(c)
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	view, signal, err := h.cartService.SetQuantity(c.Request.Context(), cartID, productID, variantID, req.Quantity)
	if err != nil {
		h.respondCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": cartMessage(signal, "Cart item updated successfully"),
		"data":    view,
		"stock":   signal,
	})
}

// RemoveCartItem handles DELETE /cart/items/:product_id
func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	cartID := h.getOrCreateCartID(c)

	productID, variantID, ok := parseCartItemKey(c)
	if !ok {
		return
	}

	view, err := h.cartService.RemoveLine(c.Request.Context(), cartID, productID, variantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to remove item from cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    view,
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	cartID := h.getOrCreateCartID(c)

	if err := h.cartService.Clear(c.Request.Context(), cartID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// getOrCreateCartID resolves the cart identity: authenticated customers get a
// stable per-account cart, guests get a session cookie minted on first touch.
func (h *CartHandler) getOrCreateCartID(c *gin.Context) string {
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		return fmt.Sprintf("customer:%d", userID)
	}

	if sessionID, err := c.Cookie(cartSessionCookie); err == nil && sessionID != "" {
		return sessionID
	}

	sessionID := uuid.New().String()
	c.SetCookie(cartSessionCookie, sessionID, 30*24*3600, "/", "", h.config.IsProduction(), true)
	return sessionID
}

func (h *CartHandler) respondCartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cart.ErrQuantityInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func parseCartItemKey(c *gin.Context) (uint, *uint, bool) {
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return 0, nil, false
	}

	var variantID *uint
	if variantIDParam := c.Query("variant_id"); variantIDParam != "" {
		vID, err := strconv.ParseUint(variantIDParam, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid variant ID",
			})
			return 0, nil, false
		}
		variantIDUint := uint(vID)
		variantID = &variantIDUint
	}

	return uint(productID), variantID, true
}

func cartMessage(signal cart.Signal, ok string) string {
	switch {
	case signal.OutOfStock:
		return "Item is out of stock"
	case signal.Clamped:
		return fmt.Sprintf("Quantity limited to available stock (%d)", signal.Available)
	default:
		return ok
	}
}
