// internal/domain/order/errors.go
package order

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no order exists for a lookup.
	ErrNotFound = errors.New("order not found")

	// ErrInvalidTransition is returned when a lifecycle action is attempted
	// from a state that does not permit it. The order is left unchanged and
	// no event is written.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnauthorized is returned when the caller is not allowed to perform
	// the action, e.g. an email mismatch on complete.
	ErrUnauthorized = errors.New("not authorized for this order")

	// ErrEmptyCart is returned when order creation finds no purchasable
	// lines after the sanitize pass.
	ErrEmptyCart = errors.New("cart is empty")
)

// ValidationError reports malformed input caught before touching any
// collaborator. It never partially applies.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// ConflictLine identifies a cart line whose quantity exceeds current stock.
type ConflictLine struct {
	ProductID uint  `json:"product_id"`
	VariantID *uint `json:"variant_id,omitempty"`
	Requested int   `json:"requested"`
	Available int   `json:"available"`
}

// StockConflictError aborts checkout when stock moved between the cart
// mutation and order creation. It lists every offending line so the caller
// can fix the cart in one pass.
type StockConflictError struct {
	Lines []ConflictLine
}

func (e *StockConflictError) Error() string {
	parts := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		parts[i] = fmt.Sprintf("product %d: requested %d, available %d", l.ProductID, l.Requested, l.Available)
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}
