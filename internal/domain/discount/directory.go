// internal/domain/discount/directory.go
package discount

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when no code record exists for a lookup.
var ErrNotFound = errors.New("discount code not found")

// Directory is the external discount-code lookup the pricing engine
// evaluates against.
type Directory interface {
	Lookup(ctx context.Context, code string) (*Code, error)
}

// Store is the GORM-backed discount directory.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new discount store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Lookup fetches a code record by its canonical form.
func (s *Store) Lookup(ctx context.Context, code string) (*Code, error) {
	var rec Code
	result := s.db.WithContext(ctx).Where("code = ?", Normalize(code)).First(&rec)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up discount code: %w", result.Error)
	}
	return &rec, nil
}

// IncrementUsage bumps the usage counter for a code within the caller's
// transaction. Missing codes are ignored: the quote already decided the
// discount, usage tracking must not fail the order.
func (s *Store) IncrementUsage(tx *gorm.DB, code string) error {
	result := tx.Model(&Code{}).
		Where("code = ?", Normalize(code)).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to update code usage: %w", result.Error)
	}
	return nil
}
