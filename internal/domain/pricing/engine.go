// internal/domain/pricing/engine.go
package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/discount"
)

// Shipping and tax constants. These are business rules, not configuration:
// every deployment must produce identical quotes for identical inputs.
const (
	domesticFreeShipMinCents = 15000 // Domestic orders at or above this ship free
	domesticBaseCents        = 200
	phFlatCents              = 200 // PH flat rate, no per-item fees
	nearBaseCents            = 1200
	internationalBaseCents   = 2000

	// 7.5% flat tax, round half up on integer cents.
	taxNumerator   = 75
	taxDenominator = 1000
)

// Quote is the itemized result of pricing a cart. All values are
// non-negative integer cents; identical inputs always produce an identical
// quote.
type Quote struct {
	SubtotalCents         int64 `json:"subtotal_cents"`
	ItemDiscountCents     int64 `json:"item_discount_cents"`
	ShippingCents         int64 `json:"shipping_cents"`
	ShippingDiscountCents int64 `json:"shipping_discount_cents"`
	TaxCents              int64 `json:"tax_cents"`
	TotalCents            int64 `json:"total_cents"`
}

// Engine prices carts against the catalog snapshot and discount directory.
// It holds no mutable state and never fails a quote over a business-rule
// miss: expired or ineligible codes degrade to a zero discount, and lines
// whose product is gone contribute nothing.
type Engine struct {
	catalog   catalog.Snapshot
	discounts discount.Directory
}

// NewEngine creates a new pricing engine
func NewEngine(snapshot catalog.Snapshot, directory discount.Directory) *Engine {
	return &Engine{
		catalog:   snapshot,
		discounts: directory,
	}
}

// Quote prices the given cart lines for a destination country at a point in
// time. discountCode applies to the item subtotal, shippingCode to the
// shipping cost; the same code cannot serve both fields at once.
func (e *Engine) Quote(ctx context.Context, lines []cart.Line, discountCode, shippingCode, country string, now time.Time) (*Quote, error) {
	subtotal, itemFees, err := e.priceLines(ctx, lines)
	if err != nil {
		return nil, err
	}

	shipping := baseShippingCents(country, subtotal)
	if !IsPhilippines(country) {
		shipping += itemFees
	}

	itemDiscount, err := e.itemDiscount(ctx, discountCode, subtotal, now)
	if err != nil {
		return nil, err
	}

	shippingDiscount, err := e.shippingDiscount(ctx, shippingCode, discountCode, subtotal, shipping, now)
	if err != nil {
		return nil, err
	}

	tax := roundHalfUp(subtotal*taxNumerator, taxDenominator)

	total := subtotal - itemDiscount + shipping - shippingDiscount + tax
	if total < 0 {
		total = 0
	}

	return &Quote{
		SubtotalCents:         subtotal,
		ItemDiscountCents:     itemDiscount,
		ShippingCents:         shipping,
		ShippingDiscountCents: shippingDiscount,
		TaxCents:              tax,
		TotalCents:            total,
	}, nil
}

// priceLines sums unit prices and per-item shipping fees over the cart.
// Lines whose product is missing or soft-deleted are skipped, mirroring the
// sanitize pass that precedes every cart read.
func (e *Engine) priceLines(ctx context.Context, lines []cart.Line) (subtotal, itemFees int64, err error) {
	for _, line := range lines {
		prod, err := e.catalog.Product(ctx, line.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, 0, err
		}
		if prod.Deleted() {
			continue
		}

		qty := int64(line.Quantity)
		subtotal += prod.UnitPriceCents(line.VariantID) * qty
		itemFees += prod.ShippingFeeCents * qty
	}
	return subtotal, itemFees, nil
}

// baseShippingCents computes the zone base cost before per-item fees.
func baseShippingCents(country string, subtotalCents int64) int64 {
	if IsPhilippines(country) {
		return phFlatCents
	}

	switch Classify(country) {
	case ZoneDomestic:
		if subtotalCents >= domesticFreeShipMinCents {
			return 0
		}
		return domesticBaseCents
	case ZoneNear:
		return nearBaseCents
	default:
		return internationalBaseCents
	}
}

// itemDiscount evaluates the item-subtotal discount code. Any ineligibility
// resolves to zero rather than an error.
func (e *Engine) itemDiscount(ctx context.Context, code string, subtotalCents int64, now time.Time) (int64, error) {
	rec, err := e.lookup(ctx, code)
	if err != nil || rec == nil {
		return 0, err
	}

	if rec.Kind == discount.KindShipPercent ||
		rec.Expired(now) || rec.Disabled() || !rec.MeetsMinimum(subtotalCents) {
		return 0, nil
	}

	var d int64
	switch rec.Kind {
	case discount.KindPercent:
		d = subtotalCents * rec.Value / 100
	case discount.KindFixed:
		d = rec.Value
	}
	return clampDiscount(d, subtotalCents), nil
}

// shippingDiscount evaluates the shipping discount code. The normalized
// shipping code must differ from the normalized item code: one code cannot
// be applied to both fields at once.
func (e *Engine) shippingDiscount(ctx context.Context, code, itemCode string, subtotalCents, shippingCents int64, now time.Time) (int64, error) {
	if shippingCents <= 0 {
		return 0, nil
	}
	if discount.Normalize(code) == discount.Normalize(itemCode) {
		return 0, nil
	}

	rec, err := e.lookup(ctx, code)
	if err != nil || rec == nil {
		return 0, err
	}

	if rec.Kind != discount.KindShipPercent ||
		rec.Expired(now) || rec.Disabled() || !rec.MeetsMinimum(subtotalCents) {
		return 0, nil
	}

	return clampDiscount(shippingCents*rec.Value/100, shippingCents), nil
}

// clampDiscount bounds a computed discount to [0, base]. Code records come
// from an external directory; a value outside its kind's range must never
// push a quote component negative or past the amount it discounts.
func clampDiscount(d, base int64) int64 {
	if d < 0 {
		return 0
	}
	if d > base {
		return base
	}
	return d
}

// lookup normalizes and fetches a code, mapping absence and malformed input
// to (nil, nil) so discounts degrade instead of failing the quote.
func (e *Engine) lookup(ctx context.Context, code string) (*discount.Code, error) {
	norm := discount.Normalize(code)
	if !discount.WellFormed(norm) {
		return nil, nil
	}

	rec, err := e.discounts.Lookup(ctx, norm)
	if errors.Is(err, discount.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// roundHalfUp divides numerator by denominator rounding .5 up, on
// non-negative integer cents.
func roundHalfUp(numerator, denominator int64) int64 {
	return (numerator + denominator/2) / denominator
}
