// internal/domain/catalog/store.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a product does not exist in the catalog.
var ErrNotFound = errors.New("product not found")

// Snapshot is the read-only view of the catalog the commerce core consumes.
// Lookups return soft-deleted products with DeletedAt set; callers decide
// whether a deleted product is acceptable (order history) or must be pruned
// (carts, quotes).
type Snapshot interface {
	Product(ctx context.Context, id uint) (*Product, error)
}

// Store is the GORM-backed catalog repository.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new catalog store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Product retrieves a single product with its variants, including
// soft-deleted records.
func (s *Store) Product(ctx context.Context, id uint) (*Product, error) {
	var prod Product
	result := s.db.WithContext(ctx).Unscoped().
		Preload("Variants").
		Where("id = ?", id).
		First(&prod)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	return &prod, nil
}

// List retrieves active products with pagination.
func (s *Store) List(ctx context.Context, page, limit int) ([]Product, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var products []Product
	var total int64

	query := s.db.WithContext(ctx).Model(&Product{}).Where("is_active = ?", true)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (page - 1) * limit
	if err := query.Preload("Variants").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return products, total, nil
}

// SoftDelete marks a product unavailable without erasing its record.
func (s *Store) SoftDelete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Restore clears the soft-delete marker on a product.
func (s *Store) Restore(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Unscoped().
		Model(&Product{}).
		Where("id = ?", id).
		Update("deleted_at", nil)
	if result.Error != nil {
		return fmt.Errorf("failed to restore product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustStock applies a signed inventory delta to a product or variant.
// Runs inside the caller's transaction so order creation and cancellation
// stay atomic with their stock movements.
func (s *Store) AdjustStock(tx *gorm.DB, productID uint, variantID *uint, delta int) error {
	if variantID != nil {
		result := tx.Model(&ProductVariant{}).
			Where("id = ?", *variantID).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", delta))
		if result.Error != nil {
			return fmt.Errorf("failed to update variant inventory: %w", result.Error)
		}
		return nil
	}

	result := tx.Model(&Product{}).
		Where("id = ?", productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("failed to update product inventory: %w", result.Error)
	}
	return nil
}
