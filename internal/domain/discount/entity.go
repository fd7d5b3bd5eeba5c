// internal/domain/discount/entity.go
package discount

import (
	"strings"
	"time"
)

// Kind is the discount code type.
type Kind string

const (
	KindPercent     Kind = "percent"      // Percentage off the item subtotal
	KindFixed       Kind = "fixed"        // Fixed amount off the item subtotal
	KindShipPercent Kind = "ship_percent" // Percentage off the shipping cost
)

// Code represents a discount code record owned by the discount directory.
// The pricing engine only evaluates codes; it never mutates them except to
// bump UsageCount when an order applies one.
type Code struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Code             string     `gorm:"uniqueIndex;not null;size:50" json:"code"` // Canonical uppercase, charset A-Z0-9-
	Kind             Kind       `gorm:"not null;size:20" json:"kind"`
	Value            int64      `gorm:"not null" json:"value"` // Percent points or cents, per Kind
	MinSubtotalCents int64      `gorm:"default:0" json:"min_subtotal_cents"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	DisabledAt       *time.Time `json:"disabled_at,omitempty"`
	UsageCount       int        `gorm:"default:0" json:"usage_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName overrides the table name
func (Code) TableName() string {
	return "discount_codes"
}

// Normalize maps user input to the canonical code form.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// WellFormed reports whether a normalized code uses the allowed charset.
func WellFormed(code string) bool {
	if code == "" {
		return false
	}
	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}

// Expired reports whether the code has passed its expiry.
func (c *Code) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// Disabled reports whether the code has been administratively disabled.
func (c *Code) Disabled() bool {
	return c.DisabledAt != nil
}

// MeetsMinimum reports whether the subtotal qualifies for the code.
func (c *Code) MeetsMinimum(subtotalCents int64) bool {
	return subtotalCents >= c.MinSubtotalCents
}
