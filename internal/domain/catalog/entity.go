// internal/domain/catalog/entity.go
package catalog

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Product represents a catalog product as seen by the commerce core.
// The catalog is owned by the admin subsystem; the core only reads it.
type Product struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	SKU              string         `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name             string         `gorm:"not null;size:255" json:"name"`
	Slug             string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description      string         `gorm:"type:text" json:"description"`
	PriceCents       int64          `gorm:"not null" json:"price_cents"`
	ShippingFeeCents int64          `gorm:"default:0" json:"shipping_fee_cents"` // Per-item fee added to base shipping
	Quantity         int            `gorm:"default:0" json:"quantity"`           // Total inventory when no variant is selected
	IsActive         bool           `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Relationships
	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants,omitempty"`
}

// ProductVariant represents a purchasable variant (size, color, etc.)
type ProductVariant struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ProductID  uint           `gorm:"not null;index" json:"product_id"`
	SKU        string         `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name       string         `gorm:"not null;size:255" json:"name"`
	PriceCents int64          `json:"price_cents"` // Overrides product price when > 0
	Quantity   int            `gorm:"default:0" json:"quantity"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Product) TableName() string        { return "products" }
func (ProductVariant) TableName() string { return "product_variants" }

// Deleted reports whether the product has been soft-deleted. Soft-deleted
// products stay in the table so historical orders remain valid, but carts
// and quotes must treat them as gone.
func (p *Product) Deleted() bool {
	return p.DeletedAt.Valid
}

// Variant returns the variant with the given ID, or nil.
func (p *Product) Variant(variantID uint) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// AvailableStock returns the stock visible for the given variant selection:
// the variant inventory when a variant is selected, the product total
// otherwise. An unknown variant has zero stock.
func (p *Product) AvailableStock(variantID *uint) int {
	if variantID == nil {
		return p.Quantity
	}
	if v := p.Variant(*variantID); v != nil {
		return v.Quantity
	}
	return 0
}

// UnitPriceCents resolves the effective unit price for a variant selection.
// Variant price overrides the product price when set.
func (p *Product) UnitPriceCents(variantID *uint) int64 {
	if variantID != nil {
		if v := p.Variant(*variantID); v != nil && v.PriceCents > 0 {
			return v.PriceCents
		}
	}
	return p.PriceCents
}

// TitleSnapshot builds the display title frozen onto order items.
func (p *Product) TitleSnapshot(variantID *uint) string {
	if variantID != nil {
		if v := p.Variant(*variantID); v != nil {
			return fmt.Sprintf("%s - %s", p.Name, v.Name)
		}
	}
	return p.Name
}
