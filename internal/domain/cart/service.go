// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/storefront-backend/internal/domain/catalog"
)

// ErrQuantityInvalid is returned for non-positive quantities on AddLine.
var ErrQuantityInvalid = errors.New("quantity must be positive")

// Service handles cart business logic. Every read sanitizes the cart
// against the current catalog snapshot, and every mutation clamps
// quantities to the stock visible at that moment.
type Service struct {
	store   Store
	catalog catalog.Snapshot
}

// NewService creates a new cart service
func NewService(store Store, snapshot catalog.Snapshot) *Service {
	return &Service{
		store:   store,
		catalog: snapshot,
	}
}

// ItemView is a cart line enriched with catalog details for display.
type ItemView struct {
	Line
	Product        *catalog.Product `json:"product,omitempty"`
	UnitPriceCents int64            `json:"unit_price_cents"`
	LineTotalCents int64            `json:"line_total_cents"`
}

// View is the sanitized, priced rendering of a cart.
type View struct {
	ID            string     `json:"id"`
	Items         []ItemView `json:"items"`
	SubtotalCents int64      `json:"subtotal_cents"`
	RemovedLines  int        `json:"removed_lines,omitempty"` // Lines pruned by the sanitize pass
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Get retrieves the cart, pruning lines whose product is gone.
func (s *Service) Get(ctx context.Context, cartID string) (*View, error) {
	c, err := s.store.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	removed, err := s.sanitize(ctx, c)
	if err != nil {
		return nil, err
	}
	if removed > 0 {
		if err := s.store.Save(ctx, c); err != nil {
			return nil, err
		}
	}

	return s.buildView(ctx, c, removed)
}

// AddLine adds quantity of a (product, variant) key to the cart, merging
// with an existing line. Quantities are clamped to the stock visible in the
// catalog; a key with no stock leaves the cart untouched and signals
// OutOfStock.
func (s *Service) AddLine(ctx context.Context, cartID string, productID uint, variantID *uint, quantity int) (*View, Signal, error) {
	if quantity <= 0 {
		return nil, Signal{}, ErrQuantityInvalid
	}

	prod, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return nil, Signal{}, err
	}
	if prod.Deleted() {
		return nil, Signal{}, catalog.ErrNotFound
	}

	available := prod.AvailableStock(variantID)
	if available <= 0 {
		// No stock at all: no-op, but tell the caller why.
		view, err := s.Get(ctx, cartID)
		return view, Signal{OutOfStock: true, Available: 0}, err
	}

	c, err := s.store.Get(ctx, cartID)
	if err != nil {
		return nil, Signal{}, err
	}

	var sig Signal
	now := time.Now().UTC()

	if i := c.FindLine(productID, variantID); i >= 0 {
		merged := c.Lines[i].Quantity + quantity
		if merged > available {
			merged = available
			sig = Signal{Clamped: true, Available: available}
		}
		c.Lines[i].Quantity = merged
	} else {
		q := quantity
		if q > available {
			q = available
			sig = Signal{Clamped: true, Available: available}
		}
		c.Lines = append(c.Lines, Line{
			ProductID: productID,
			VariantID: variantID,
			Quantity:  q,
			AddedAt:   now,
		})
	}

	c.UpdatedAt = now
	if err := s.store.Save(ctx, c); err != nil {
		return nil, Signal{}, err
	}

	view, err := s.buildView(ctx, c, 0)
	return view, sig, err
}

// SetQuantity sets a line's quantity. Zero or negative removes the line;
// positive values are clamped to current stock.
func (s *Service) SetQuantity(ctx context.Context, cartID string, productID uint, variantID *uint, quantity int) (*View, Signal, error) {
	c, err := s.store.Get(ctx, cartID)
	if err != nil {
		return nil, Signal{}, err
	}

	i := c.FindLine(productID, variantID)
	if i < 0 {
		return nil, Signal{}, fmt.Errorf("item not found in cart")
	}

	var sig Signal
	if quantity <= 0 {
		c.RemoveLineAt(i)
	} else {
		prod, err := s.catalog.Product(ctx, productID)
		if err != nil {
			return nil, Signal{}, err
		}

		available := prod.AvailableStock(variantID)
		if quantity > available {
			quantity = available
			sig = Signal{Clamped: true, Available: available}
		}
		if quantity <= 0 {
			c.RemoveLineAt(i)
			sig = Signal{OutOfStock: true, Available: 0}
		} else {
			c.Lines[i].Quantity = quantity
		}
	}

	c.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, c); err != nil {
		return nil, Signal{}, err
	}

	view, err := s.buildView(ctx, c, 0)
	return view, sig, err
}

// RemoveLine removes the matching line; removing an absent line is a no-op.
func (s *Service) RemoveLine(ctx context.Context, cartID string, productID uint, variantID *uint) (*View, error) {
	c, err := s.store.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if i := c.FindLine(productID, variantID); i >= 0 {
		c.RemoveLineAt(i)
		c.UpdatedAt = time.Now().UTC()
		if err := s.store.Save(ctx, c); err != nil {
			return nil, err
		}
	}

	return s.buildView(ctx, c, 0)
}

// Clear destroys the cart. Called after an order is created from it.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	return s.store.Delete(ctx, cartID)
}

// Checkout returns the sanitized cart together with the catalog snapshot of
// every remaining line, for order creation. The sanitize result is saved
// back so the stored cart never references dead products.
func (s *Service) Checkout(ctx context.Context, cartID string) (*Cart, []ItemView, error) {
	c, err := s.store.Get(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}

	removed, err := s.sanitize(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	if removed > 0 {
		if err := s.store.Save(ctx, c); err != nil {
			return nil, nil, err
		}
	}

	view, err := s.buildView(ctx, c, removed)
	if err != nil {
		return nil, nil, err
	}

	return c, view.Items, nil
}

// sanitize drops lines whose product is missing or soft-deleted and returns
// the count removed.
func (s *Service) sanitize(ctx context.Context, c *Cart) (int, error) {
	removed := 0
	kept := c.Lines[:0]

	for _, line := range c.Lines {
		prod, err := s.catalog.Product(ctx, line.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			removed++
			continue
		}
		if err != nil {
			return removed, err
		}
		if prod.Deleted() {
			removed++
			continue
		}
		kept = append(kept, line)
	}

	c.Lines = kept
	if removed > 0 {
		c.UpdatedAt = time.Now().UTC()
	}
	return removed, nil
}

func (s *Service) buildView(ctx context.Context, c *Cart, removed int) (*View, error) {
	view := &View{
		ID:           c.ID,
		Items:        make([]ItemView, 0, len(c.Lines)),
		RemovedLines: removed,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}

	for _, line := range c.Lines {
		prod, err := s.catalog.Product(ctx, line.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		unit := prod.UnitPriceCents(line.VariantID)
		total := unit * int64(line.Quantity)
		view.Items = append(view.Items, ItemView{
			Line:           line,
			Product:        prod,
			UnitPriceCents: unit,
			LineTotalCents: total,
		})
		view.SubtotalCents += total
	}

	return view, nil
}
