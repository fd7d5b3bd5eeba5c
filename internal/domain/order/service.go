// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/discount"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"gorm.io/gorm"
)

// Service handles order business logic
type Service struct {
	db        *gorm.DB
	catalog   *catalog.Store
	discounts *discount.Store
	engine    *pricing.Engine
	carts     *cart.Service
}

// NewService creates a new order service
func NewService(db *gorm.DB, catalogStore *catalog.Store, discountStore *discount.Store, engine *pricing.Engine, cartService *cart.Service) *Service {
	return &Service{
		db:        db,
		catalog:   catalogStore,
		discounts: discountStore,
		engine:    engine,
		carts:     cartService,
	}
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	Customer     Customer `json:"customer" binding:"required"`
	DiscountCode string   `json:"discount_code,omitempty"`
	ShippingCode string   `json:"shipping_code,omitempty"`
}

// ListRequest represents order list query parameters
type ListRequest struct {
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=20"`
	Status    Status `form:"status"`
	Email     string `form:"email"`
	SortBy    string `form:"sort_by,default=created_at"`
	SortOrder string `form:"sort_order,default=desc"`
}

// ListResponse represents an order page with pagination
type ListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// CreateOrder turns the cart into a persisted order: revalidates stock
// against the current catalog, prices the cart, freezes the line items, and
// appends the first lifecycle event. The cart is destroyed on success and
// left intact on any failure.
func (s *Service) CreateOrder(ctx context.Context, cartID string, req *CreateOrderRequest) (*Order, error) {
	if err := validateCustomer(&req.Customer); err != nil {
		return nil, err
	}

	c, items, err := s.carts.Checkout(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	// Revalidate stock against the snapshot loaded this instant.
	var conflicts []ConflictLine
	for _, item := range items {
		available := item.Product.AvailableStock(item.VariantID)
		if item.Quantity > available {
			conflicts = append(conflicts, ConflictLine{
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Requested: item.Quantity,
				Available: available,
			})
		}
	}
	if len(conflicts) > 0 {
		return nil, &StockConflictError{Lines: conflicts}
	}

	now := time.Now().UTC()
	quote, err := s.engine.Quote(ctx, c.Lines, req.DiscountCode, req.ShippingCode, req.Customer.Country, now)
	if err != nil {
		return nil, fmt.Errorf("failed to price cart: %w", err)
	}

	ord := Order{
		Status:                StatusCreated,
		SubtotalCents:         quote.SubtotalCents,
		DiscountCents:         quote.ItemDiscountCents,
		ShippingCents:         quote.ShippingCents,
		ShippingDiscountCents: quote.ShippingDiscountCents,
		TaxCents:              quote.TaxCents,
		TotalCents:            quote.TotalCents,
		Customer:              req.Customer,
	}
	if quote.ItemDiscountCents > 0 {
		ord.DiscountCode = discount.Normalize(req.DiscountCode)
	}
	if quote.ShippingDiscountCents > 0 {
		ord.ShippingCode = discount.Normalize(req.ShippingCode)
	}

	// Freeze the item snapshot: later catalog edits must never change it.
	for _, item := range items {
		unit := item.Product.UnitPriceCents(item.VariantID)
		ord.Items = append(ord.Items, OrderItem{
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Quantity:       item.Quantity,
			UnitPriceCents: unit,
			TitleSnapshot:  item.Product.TitleSnapshot(item.VariantID),
			TotalCents:     unit * int64(item.Quantity),
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ord).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		ord.OrderNumber = GenerateOrderNumber(ord.ID, now)
		if err := tx.Model(&ord).Update("order_number", ord.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to set order number: %w", err)
		}

		event := OrderEvent{OrderID: ord.ID, Status: StatusCreated, At: now}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to create order event: %w", err)
		}

		for _, item := range ord.Items {
			if err := s.catalog.AdjustStock(tx, item.ProductID, item.VariantID, -item.Quantity); err != nil {
				return err
			}
		}

		if ord.DiscountCode != "" {
			if err := s.discounts.IncrementUsage(tx, ord.DiscountCode); err != nil {
				return err
			}
		}
		if ord.ShippingCode != "" {
			if err := s.discounts.IncrementUsage(tx, ord.ShippingCode); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// The originating cart is destroyed once the order exists.
	if err := s.carts.Clear(ctx, cartID); err != nil {
		return nil, fmt.Errorf("order %s created but cart not cleared: %w", ord.OrderNumber, err)
	}

	return s.GetOrder(ctx, ord.ID)
}

// Pay advances a created order to paid.
func (s *Service) Pay(ctx context.Context, orderID uint, actor string) (*Order, error) {
	return s.transition(ctx, orderID, StatusPaid, "", actor, nil)
}

// Fulfill advances a paid order to fulfilled.
func (s *Service) Fulfill(ctx context.Context, orderID uint, actor string) (*Order, error) {
	return s.transition(ctx, orderID, StatusFulfilled, "", actor, nil)
}

// Ship advances a fulfilled order to shipped.
func (s *Service) Ship(ctx context.Context, orderID uint, actor string) (*Order, error) {
	return s.transition(ctx, orderID, StatusShipped, "", actor, nil)
}

// Complete advances a shipped order to completed. The supplied email must
// match the order's customer email, case-insensitively.
func (s *Service) Complete(ctx context.Context, orderID uint, email string) (*Order, error) {
	return s.transition(ctx, orderID, StatusCompleted, "", email, func(o *Order) error {
		if !strings.EqualFold(email, o.Customer.Email) {
			return ErrUnauthorized
		}
		return nil
	})
}

// Cancel cancels an order still in created, paid, or fulfilled status and
// restores the reserved inventory. A non-empty reason is required; shipped
// orders must go through the return workflow instead.
func (s *Service) Cancel(ctx context.Context, orderID uint, reason, actor string) (*Order, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Field: "reason", Reason: "cancel reason is required"}
	}

	return s.transition(ctx, orderID, StatusCancelled, reason, actor, nil)
}

// transition atomically applies a lifecycle transition: guard check, status
// update, per-status timestamp, exactly one appended event. A rejected
// transition writes nothing.
func (s *Service) transition(ctx context.Context, orderID uint, to Status, note, actor string, guard func(*Order) error) (*Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ord Order
		if err := tx.Preload("Items").First(&ord, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		if !CanTransition(ord.Status, to) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, ord.Status, to)
		}

		if guard != nil {
			if err := guard(&ord); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status": to,
		}
		if col := timestampColumn(to); col != "" {
			updates[col] = now
		}
		if to == StatusCancelled {
			updates["cancel_reason"] = note
		}

		if err := tx.Model(&ord).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		event := OrderEvent{OrderID: ord.ID, Status: to, At: now, Note: note, Actor: actor}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to create order event: %w", err)
		}

		if to == StatusCancelled {
			for _, item := range ord.Items {
				if err := s.catalog.AdjustStock(tx, item.ProductID, item.VariantID, item.Quantity); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, orderID)
}

// GetOrder retrieves a single order with items and event log.
func (s *Service) GetOrder(ctx context.Context, id uint) (*Order, error) {
	var ord Order
	result := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("at ASC, id ASC")
		}).
		First(&ord, id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}

	return &ord, nil
}

// GetOrderByNumber retrieves a single order by order number.
func (s *Service) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	var ord Order
	result := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("at ASC, id ASC")
		}).
		Where("order_number = ?", orderNumber).
		First(&ord)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}

	return &ord, nil
}

// List retrieves orders with filtering and pagination.
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	var orders []Order
	var total int64

	query := s.db.WithContext(ctx).Model(&Order{}).
		Preload("Items").
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("at ASC, id ASC")
		})

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Email != "" {
		query = query.Where("LOWER(customer_email) = LOWER(?)", req.Email)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	query = query.Order(buildOrderClause(req.SortBy, req.SortOrder))

	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// ListByCustomer retrieves the orders belonging to a customer email.
func (s *Service) ListByCustomer(ctx context.Context, email string, page, limit int) (*ListResponse, error) {
	return s.List(ctx, &ListRequest{
		Page:  page,
		Limit: limit,
		Email: email,
	})
}

func validateCustomer(c *Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "customer.name", Reason: "name is required"}
	}
	if strings.TrimSpace(c.Email) == "" {
		return &ValidationError{Field: "customer.email", Reason: "email is required"}
	}
	if strings.TrimSpace(c.Country) == "" {
		return &ValidationError{Field: "customer.country", Reason: "country is required"}
	}
	return nil
}

func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"total_cents":  true,
		"status":       true,
		"order_number": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}
