// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// Line is one (product, variant, quantity) entry in a cart. Lines are
// uniquely keyed by (ProductID, VariantID); re-adding the same key merges
// quantities.
type Line struct {
	ProductID uint      `json:"product_id"`
	VariantID *uint     `json:"variant_id,omitempty"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// SameKey reports whether the line matches the given (product, variant) key.
func (l *Line) SameKey(productID uint, variantID *uint) bool {
	if l.ProductID != productID {
		return false
	}
	if l.VariantID == nil && variantID == nil {
		return true
	}
	return l.VariantID != nil && variantID != nil && *l.VariantID == *variantID
}

// Cart is the server-authoritative shopping cart, stored in Redis and keyed
// by customer or guest session. It is created empty on first use and
// destroyed the moment an order is created from it.
type Cart struct {
	ID        string    `json:"id"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FindLine returns the index of the line matching the key, or -1.
func (c *Cart) FindLine(productID uint, variantID *uint) int {
	for i := range c.Lines {
		if c.Lines[i].SameKey(productID, variantID) {
			return i
		}
	}
	return -1
}

// RemoveLineAt deletes the line at index i, preserving order.
func (c *Cart) RemoveLineAt(i int) {
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

// Signal describes a stock-driven adjustment applied during a cart mutation.
// A zero Signal means the mutation applied exactly as requested.
type Signal struct {
	OutOfStock bool `json:"out_of_stock,omitempty"` // Requested item had no stock; mutation was a no-op
	Clamped    bool `json:"clamped,omitempty"`      // Quantity was reduced to the available stock
	Available  int  `json:"available_stock,omitempty"`
}
