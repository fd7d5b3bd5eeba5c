// internal/domain/pricing/engine_test.go
package pricing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/discount"
	"gorm.io/gorm"
)

type fakeCatalog struct {
	mu       sync.RWMutex
	products map[uint]*catalog.Product
}

func newFakeCatalog(products ...*catalog.Product) *fakeCatalog {
	m := make(map[uint]*catalog.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return &fakeCatalog{products: m}
}

func (f *fakeCatalog) Product(_ context.Context, id uint) (*catalog.Product, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

type fakeDirectory struct {
	mu    sync.RWMutex
	codes map[string]*discount.Code
}

func newFakeDirectory(codes ...*discount.Code) *fakeDirectory {
	m := make(map[string]*discount.Code, len(codes))
	for _, c := range codes {
		m[c.Code] = c
	}
	return &fakeDirectory{codes: m}
}

func (f *fakeDirectory) Lookup(_ context.Context, code string) (*discount.Code, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.codes[code]
	if !ok {
		return nil, discount.ErrNotFound
	}
	return c, nil
}

func singleLineCart(productID uint, qty int) []cart.Line {
	return []cart.Line{{ProductID: productID, Quantity: qty}}
}

func TestQuotePHFlatRate(t *testing.T) {
	// 1 line, unit 2500, qty 3, PH, no codes.
	engine := NewEngine(newFakeCatalog(
		&catalog.Product{ID: 1, PriceCents: 2500, ShippingFeeCents: 150, Quantity: 10},
	), newFakeDirectory())

	quote, err := engine.Quote(context.Background(), singleLineCart(1, 3), "", "", "PH", time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(7500), quote.SubtotalCents)
	assert.Equal(t, int64(200), quote.ShippingCents) // Flat rate, per-item fees skipped
	assert.Equal(t, int64(563), quote.TaxCents)
	assert.Equal(t, int64(8263), quote.TotalCents)
}

func TestQuoteDomesticPerItemFees(t *testing.T) {
	engine := NewEngine(newFakeCatalog(
		&catalog.Product{ID: 1, PriceCents: 2500, ShippingFeeCents: 150, Quantity: 10},
	), newFakeDirectory())

	quote, err := engine.Quote(context.Background(), singleLineCart(1, 3), "", "", "US", time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(7500), quote.SubtotalCents)
	assert.Equal(t, int64(650), quote.ShippingCents) // 200 base + 3x150
	assert.Equal(t, int64(563), quote.TaxCents)
	assert.Equal(t, int64(8713), quote.TotalCents)
}

func TestQuotePercentDiscount(t *testing.T) {
	engine := NewEngine(newFakeCatalog(
		&catalog.Product{ID: 1, PriceCents: 2500, Quantity: 10},
	), newFakeDirectory(
		&discount.Code{Code: "SAVE10", Kind: discount.KindPercent, Value: 10},
	))

	quote, err := engine.Quote(context.Background(), singleLineCart(1, 3), "save10", "", "PH", time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(750), quote.ItemDiscountCents)
	assert.Equal(t, int64(7513), quote.TotalCents) // 7500 - 750 + 200 + 563
}

func TestQuoteDomesticFreeShippingThreshold(t *testing.T) {
	engine := NewEngine(newFakeCatalog(
		&catalog.Product{ID: 1, PriceCents: 7600, Quantity: 10},
		&catalog.Product{ID: 2, PriceCents: 7600, Quantity: 10},
	), newFakeDirectory())

	lines := []cart.Line{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
	}

	quote, err := engine.Quote(context.Background(), lines, "", "", "United States", time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(15200), quote.SubtotalCents)
	assert.Equal(t, int64(0), quote.ShippingCents)
}

func TestQuoteDeterministic(t *testing.T) {
	engine := NewEngine(newFakeCatalog(
		&catalog.Product{ID: 1, PriceCents: 2500, ShippingFeeCents: 75, Quantity: 10},
	), newFakeDirectory(
		&discount.Code{Code: "SAVE10", Kind: discount.KindPercent, Value: 10},
	))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first, err := engine.Quote(context.Background(), singleLineCart(1, 3), "SAVE10", "", "CA", now)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := engine.Quote(context.Background(), singleLineCart(1, 3), "SAVE10", "", "CA", now)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestQuoteNonNegative(t *testing.T) {
	// Fixed discount exceeding the subtotal clamps at the subtotal, and the
	// total never goes below zero.
	engine := NewEngine(newFakeCatalog(
		&catalog.Product{ID: 1, PriceCents: 100, Quantity: 10},
	), newFakeDirectory(
		&discount.Code{Code: "BIGFIX", Kind: discount.KindFixed, Value: 100000},
	))

	quote, err := engine.Quote(context.Background(), singleLineCart(1, 1), "BIGFIX", "", "US", time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(100), quote.ItemDiscountCents)
	assert.GreaterOrEqual(t, quote.TotalCents, int64(0))
	assert.GreaterOrEqual(t, quote.ShippingCents, int64(0))
	assert.GreaterOrEqual(t, quote.TaxCents, int64(0))
}

func TestQuoteClampsOutOfRangeCodes(t *testing.T) {
	// The directory is external data: a record outside its kind's range must
	// clamp into [0, base], never inflate or invert a quote component.
	engine := NewEngine(newFakeCatalog(
		&catalog.Product{ID: 1, PriceCents: 1000, Quantity: 10},
	), newFakeDirectory(
		&discount.Code{Code: "OVER100", Kind: discount.KindPercent, Value: 150},
		&discount.Code{Code: "NEGPCT", Kind: discount.KindPercent, Value: -30},
		&discount.Code{Code: "NEGFIX", Kind: discount.KindFixed, Value: -500},
		&discount.Code{Code: "NEGSHIP", Kind: discount.KindShipPercent, Value: -50},
		&discount.Code{Code: "BIGSHIP", Kind: discount.KindShipPercent, Value: 400},
	))

	// Percent over 100 caps at the full subtotal.
	quote, err := engine.Quote(context.Background(), singleLineCart(1, 1), "OVER100", "", "JP", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), quote.ItemDiscountCents)

	// Negative values floor at zero instead of inflating the total.
	for _, code := range []string{"NEGPCT", "NEGFIX"} {
		quote, err = engine.Quote(context.Background(), singleLineCart(1, 1), code, "", "JP", time.Now())
		require.NoError(t, err)
		assert.Equal(t, int64(0), quote.ItemDiscountCents, "code %s", code)
		assert.Equal(t, int64(1000+2000+75), quote.TotalCents, "code %s", code)
	}

	quote, err = engine.Quote(context.Background(), singleLineCart(1, 1), "", "NEGSHIP", "JP", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), quote.ShippingDiscountCents)
	assert.Equal(t, int64(1000+2000+75), quote.TotalCents)

	// Shipping percent over 100 caps at the shipping cost.
	quote, err = engine.Quote(context.Background(), singleLineCart(1, 1), "", "BIGSHIP", "JP", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2000), quote.ShippingDiscountCents)
}

func TestQuoteDiscountIneligibility(t *testing.T) {
	now := time.Now()
	expired := now.Add(-time.Hour)
	disabled := now.Add(-time.Minute)

	engine := NewEngine(newFakeCatalog(
		&catalog.Product{ID: 1, PriceCents: 2500, Quantity: 10},
	), newFakeDirectory(
		&discount.Code{Code: "EXPIRED", Kind: discount.KindPercent, Value: 10, ExpiresAt: &expired},
		&discount.Code{Code: "DISABLED", Kind: discount.KindPercent, Value: 10, DisabledAt: &disabled},
		&discount.Code{Code: "BIGMIN", Kind: discount.KindPercent, Value: 10, MinSubtotalCents: 100000},
		&discount.Code{Code: "SHIPONLY", Kind: discount.KindShipPercent, Value: 50},
	))

	for _, code := range []string{"EXPIRED", "DISABLED", "BIGMIN", "SHIPONLY", "NOSUCH", "bad code!"} {
		quote, err := engine.Quote(context.Background(), singleLineCart(1, 3), code, "", "US", now)
		require.NoError(t, err, "code %s must degrade, not fail", code)
		assert.Equal(t, int64(0), quote.ItemDiscountCents, "code %s", code)
	}
}

func TestQuoteShippingDiscount(t *testing.T) {
	engine := NewEngine(newFakeCatalog(
		&catalog.Product{ID: 1, PriceCents: 2500, Quantity: 10},
	), newFakeDirectory(
		&discount.Code{Code: "HALFSHIP", Kind: discount.KindShipPercent, Value: 50},
		&discount.Code{Code: "SAVE10", Kind: discount.KindPercent, Value: 10},
	))

	quote, err := engine.Quote(context.Background(), singleLineCart(1, 1), "", "HALFSHIP", "JP", time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(2000), quote.ShippingCents)
	assert.Equal(t, int64(1000), quote.ShippingDiscountCents)

	// A non-shipping kind never discounts shipping.
	quote, err = engine.Quote(context.Background(), singleLineCart(1, 1), "", "SAVE10", "JP", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), quote.ShippingDiscountCents)
}

func TestQuoteSameCodeBothFields(t *testing.T) {
	engine := NewEngine(newFakeCatalog(
		&catalog.Product{ID: 1, PriceCents: 2500, Quantity: 10},
	), newFakeDirectory(
		&discount.Code{Code: "HALFSHIP", Kind: discount.KindShipPercent, Value: 50},
	))

	quote, err := engine.Quote(context.Background(), singleLineCart(1, 1), "halfship", "HALFSHIP", "JP", time.Now())
	require.NoError(t, err)

	// The shipping field rejects the code because the item field already
	// names it, even though the item discount itself degraded to zero.
	assert.Equal(t, int64(0), quote.ItemDiscountCents)
	assert.Equal(t, int64(0), quote.ShippingDiscountCents)
}

func TestQuoteSkipsDeadLines(t *testing.T) {
	deleted := &catalog.Product{ID: 2, PriceCents: 9999, Quantity: 5}
	deleted.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}

	engine := NewEngine(newFakeCatalog(
		&catalog.Product{ID: 1, PriceCents: 2500, Quantity: 10},
		deleted,
	), newFakeDirectory())

	lines := []cart.Line{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1}, // Soft-deleted
		{ProductID: 3, Quantity: 1}, // Missing
	}

	quote, err := engine.Quote(context.Background(), lines, "", "", "PH", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2500), quote.SubtotalCents)
}

func TestZoneClassification(t *testing.T) {
	tests := []struct {
		country string
		zone    Zone
	}{
		{"US", ZoneDomestic},
		{"united states", ZoneDomestic},
		{"USA", ZoneDomestic},
		{"PH", ZoneDomestic},
		{"Philippines", ZoneDomestic},
		{"CA", ZoneNear},
		{"Canada", ZoneNear},
		{"DE", ZoneNear},
		{"France", ZoneNear},
		{"GB", ZoneInternational}, // Not in the EU list
		{"JP", ZoneInternational},
		{"BR", ZoneInternational},
		{"", ZoneInternational},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.zone, Classify(tt.country), "country %q", tt.country)
	}
}

func TestTaxRoundsHalfUp(t *testing.T) {
	// 7500 * 7.5% = 562.5, rounds up to 563.
	assert.Equal(t, int64(563), roundHalfUp(7500*taxNumerator, taxDenominator))
	// 1000 * 7.5% = 75 exactly.
	assert.Equal(t, int64(75), roundHalfUp(1000*taxNumerator, taxDenominator))
	// 6 * 7.5% = 0.45, rounds down to 0.
	assert.Equal(t, int64(0), roundHalfUp(6*taxNumerator, taxDenominator))
	// 7 * 7.5% = 0.525, rounds up to 1.
	assert.Equal(t, int64(1), roundHalfUp(7*taxNumerator, taxDenominator))
}
