// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/discount"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/returns"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		// Catalog domain - base tables
		&catalog.Product{},
		&catalog.ProductVariant{},

		// Discount domain
		&discount.Code{},

		// Order domain - dependent tables
		&order.Order{},
		&order.OrderItem{},
		&order.OrderEvent{},

		// Return workflow
		&returns.Message{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_active ON products(is_active) WHERE deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_products_sku ON products(sku)",
		"CREATE INDEX IF NOT EXISTS idx_products_slug ON products(slug)",
		"CREATE INDEX IF NOT EXISTS idx_product_variants_product ON product_variants(product_id)",

		// Discount indexes
		"CREATE INDEX IF NOT EXISTS idx_discount_codes_code ON discount_codes(code)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_customer_email ON orders(customer_email)",
		"CREATE INDEX IF NOT EXISTS idx_orders_return_status ON orders(return_admin_status) WHERE return_requested_at IS NOT NULL",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_events_order_at ON order_events(order_id, at)",

		// Return thread indexes
		"CREATE INDEX IF NOT EXISTS idx_refund_messages_order_created ON refund_messages(order_id, created_at)",
	}

	for _, index := range indexes {
		if err := m.db.Exec(index).Error; err != nil {
			log.Printf("Warning: failed to create index: %v", err)
		}
	}

	log.Println("✅ Database indexes created successfully")
	return nil
}

// SeedInitialData seeds a handful of products and discount codes for
// development environments. It is idempotent.
func (m *Migration) SeedInitialData() error {
	log.Println("🔄 Seeding initial data...")

	var productCount int64
	if err := m.db.Model(&catalog.Product{}).Count(&productCount).Error; err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}

	if productCount == 0 {
		products := []catalog.Product{
			{
				SKU:              "MUG-CLASSIC",
				Name:             "Classic Mug",
				Slug:             "classic-mug",
				Description:      "A sturdy ceramic mug.",
				PriceCents:       1250,
				ShippingFeeCents: 150,
				Quantity:         40,
				IsActive:         true,
			},
			{
				SKU:              "TEE-LOGO",
				Name:             "Logo Tee",
				Slug:             "logo-tee",
				Description:      "Cotton tee with the shop logo.",
				PriceCents:       2400,
				ShippingFeeCents: 100,
				Quantity:         25,
				IsActive:         true,
				Variants: []catalog.ProductVariant{
					{SKU: "TEE-LOGO-S", Name: "Small", Quantity: 10},
					{SKU: "TEE-LOGO-M", Name: "Medium", Quantity: 10},
					{SKU: "TEE-LOGO-L", Name: "Large", Quantity: 5},
				},
			},
			{
				SKU:              "POSTER-A2",
				Name:             "A2 Poster",
				Slug:             "a2-poster",
				Description:      "Matte print, ships rolled.",
				PriceCents:       1800,
				ShippingFeeCents: 250,
				Quantity:         60,
				IsActive:         true,
			},
		}

		for i := range products {
			if err := m.db.Create(&products[i]).Error; err != nil {
				return fmt.Errorf("failed to seed product %s: %w", products[i].SKU, err)
			}
		}
		log.Printf("Seeded %d products", len(products))
	}

	var codeCount int64
	if err := m.db.Model(&discount.Code{}).Count(&codeCount).Error; err != nil {
		return fmt.Errorf("failed to count discount codes: %w", err)
	}

	if codeCount == 0 {
		expiry := time.Now().AddDate(1, 0, 0)
		codes := []discount.Code{
			{Code: "WELCOME10", Kind: discount.KindPercent, Value: 10},
			{Code: "FIVEOFF", Kind: discount.KindFixed, Value: 500, MinSubtotalCents: 2000},
			{Code: "FREESHIP", Kind: discount.KindShipPercent, Value: 100, ExpiresAt: &expiry},
		}

		for i := range codes {
			if err := m.db.Create(&codes[i]).Error; err != nil {
				return fmt.Errorf("failed to seed discount code %s: %w", codes[i].Code, err)
			}
		}
		log.Printf("Seeded %d discount codes", len(codes))
	}

	log.Println("✅ Initial data seeding completed")
	return nil
}

// GetTableInfo logs row counts for the main tables. Development only.
func (m *Migration) GetTableInfo() {
	tables := []string{"products", "product_variants", "discount_codes", "orders", "order_items", "order_events", "refund_messages"}
	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			log.Printf("Table %s: error counting rows: %v", table, err)
			continue
		}
		log.Printf("Table %s: %d rows", table, count)
	}
}
