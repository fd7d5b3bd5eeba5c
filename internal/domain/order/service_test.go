// internal/domain/order/service_test.go
package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/discount"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// memoryCartStore is an in-memory cart.Store for tests.
type memoryCartStore struct {
	mu    sync.RWMutex
	carts map[string]*cart.Cart
}

func newMemoryCartStore() *memoryCartStore {
	return &memoryCartStore{carts: make(map[string]*cart.Cart)}
}

func (s *memoryCartStore) Get(_ context.Context, id string) (*cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.carts[id]; ok {
		cp := *c
		cp.Lines = append([]cart.Line(nil), c.Lines...)
		return &cp, nil
	}
	now := time.Now().UTC()
	return &cart.Cart{ID: id, Lines: []cart.Line{}, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *memoryCartStore) Save(_ context.Context, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	cp.Lines = append([]cart.Line(nil), c.Lines...)
	s.carts[c.ID] = &cp
	return nil
}

func (s *memoryCartStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, id)
	return nil
}

func (s *memoryCartStore) has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.carts[id]
	return ok
}

type testEnv struct {
	db        *gorm.DB
	service   *Service
	carts     *cart.Service
	cartStore *memoryCartStore
	catalog   *catalog.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&catalog.Product{}, &catalog.ProductVariant{},
		&discount.Code{},
		&Order{}, &OrderItem{}, &OrderEvent{},
	))

	catalogStore := catalog.NewStore(db)
	discountStore := discount.NewStore(db)
	cartStore := newMemoryCartStore()
	cartService := cart.NewService(cartStore, catalogStore)
	engine := pricing.NewEngine(catalogStore, discountStore)

	return &testEnv{
		db:        db,
		service:   NewService(db, catalogStore, discountStore, engine, cartService),
		carts:     cartService,
		cartStore: cartStore,
		catalog:   catalogStore,
	}
}

func (e *testEnv) seedProduct(t *testing.T, p *catalog.Product) {
	t.Helper()
	require.NoError(t, e.db.Create(p).Error)
}

func (e *testEnv) addToCart(t *testing.T, cartID string, productID uint, qty int) {
	t.Helper()
	_, _, err := e.carts.AddLine(context.Background(), cartID, productID, nil, qty)
	require.NoError(t, err)
}

func testCustomer() Customer {
	return Customer{
		Name:    "Ana Reyes",
		Email:   "ana@example.com",
		Country: "PH",
	}
}

func TestCreateOrderHappyPath(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, &catalog.Product{ID: 1, SKU: "A", Name: "Alpha", Slug: "alpha", PriceCents: 2500, Quantity: 10, IsActive: true})
	env.addToCart(t, "c1", 1, 3)

	ord, err := env.service.CreateOrder(context.Background(), "c1", &CreateOrderRequest{Customer: testCustomer()})
	require.NoError(t, err)

	assert.Equal(t, StatusCreated, ord.Status)
	assert.Regexp(t, `^ORD-\d{8}-\d{5}$`, ord.OrderNumber)
	assert.Equal(t, int64(7500), ord.SubtotalCents)
	assert.Equal(t, int64(200), ord.ShippingCents)
	assert.Equal(t, int64(563), ord.TaxCents)
	assert.Equal(t, int64(8263), ord.TotalCents)

	require.Len(t, ord.Items, 1)
	assert.Equal(t, "Alpha", ord.Items[0].TitleSnapshot)
	assert.Equal(t, int64(2500), ord.Items[0].UnitPriceCents)

	require.Len(t, ord.Events, 1)
	assert.Equal(t, StatusCreated, ord.Events[0].Status)

	// Inventory decremented and the originating cart destroyed.
	prod, err := env.catalog.Product(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 7, prod.Quantity)
	assert.False(t, env.cartStore.has("c1"))
}

func TestCreateOrderEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.CreateOrder(context.Background(), "nope", &CreateOrderRequest{Customer: testCustomer()})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateOrderValidatesCustomer(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.CreateOrder(context.Background(), "c1", &CreateOrderRequest{
		Customer: Customer{Name: "No Email", Country: "US"},
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "customer.email", validationErr.Field)
}

func TestCreateOrderStockConflict(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, &catalog.Product{ID: 1, SKU: "A", Name: "Alpha", Slug: "alpha", PriceCents: 2500, Quantity: 5, IsActive: true})
	env.addToCart(t, "c1", 1, 5)

	// Stock moves between the cart mutation and checkout.
	require.NoError(t, env.db.Model(&catalog.Product{}).Where("id = ?", 1).Update("quantity", 2).Error)

	_, err := env.service.CreateOrder(context.Background(), "c1", &CreateOrderRequest{Customer: testCustomer()})

	var stockErr *StockConflictError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Lines, 1)
	assert.Equal(t, uint(1), stockErr.Lines[0].ProductID)
	assert.Equal(t, 5, stockErr.Lines[0].Requested)
	assert.Equal(t, 2, stockErr.Lines[0].Available)

	// Nothing was written and the cart survives.
	var count int64
	env.db.Model(&Order{}).Count(&count)
	assert.Equal(t, int64(0), count)
	assert.True(t, env.cartStore.has("c1"))
}

func TestCreateOrderIncrementsCodeUsage(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, &catalog.Product{ID: 1, SKU: "A", Name: "Alpha", Slug: "alpha", PriceCents: 2500, Quantity: 10, IsActive: true})
	require.NoError(t, env.db.Create(&discount.Code{Code: "SAVE10", Kind: discount.KindPercent, Value: 10}).Error)
	env.addToCart(t, "c1", 1, 3)

	req := &CreateOrderRequest{Customer: testCustomer(), DiscountCode: "save10"}
	ord, err := env.service.CreateOrder(context.Background(), "c1", req)
	require.NoError(t, err)

	assert.Equal(t, "SAVE10", ord.DiscountCode)
	assert.Equal(t, int64(750), ord.DiscountCents)

	var rec discount.Code
	require.NoError(t, env.db.Where("code = ?", "SAVE10").First(&rec).Error)
	assert.Equal(t, 1, rec.UsageCount)
}

func TestFrozenItemsSurviveCatalogEdits(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, &catalog.Product{ID: 1, SKU: "A", Name: "Alpha", Slug: "alpha", PriceCents: 2500, Quantity: 10, IsActive: true})
	env.addToCart(t, "c1", 1, 2)

	ord, err := env.service.CreateOrder(context.Background(), "c1", &CreateOrderRequest{Customer: testCustomer()})
	require.NoError(t, err)

	// Reprice and rename the product after the fact.
	require.NoError(t, env.db.Model(&catalog.Product{}).Where("id = ?", 1).
		Updates(map[string]interface{}{"price_cents": 9900, "name": "Alpha v2"}).Error)

	reloaded, err := env.service.GetOrder(context.Background(), ord.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), reloaded.Items[0].UnitPriceCents)
	assert.Equal(t, "Alpha", reloaded.Items[0].TitleSnapshot)
	assert.Equal(t, ord.TotalCents, reloaded.TotalCents)
}

func createTestOrder(t *testing.T, env *testEnv) *Order {
	t.Helper()
	env.seedProduct(t, &catalog.Product{ID: 1, SKU: "A", Name: "Alpha", Slug: "alpha", PriceCents: 2500, Quantity: 10, IsActive: true})
	env.addToCart(t, "c1", 1, 3)

	ord, err := env.service.CreateOrder(context.Background(), "c1", &CreateOrderRequest{Customer: testCustomer()})
	require.NoError(t, err)
	return ord
}

func TestLifecycleHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ord := createTestOrder(t, env)
	ctx := context.Background()

	ord, err := env.service.Pay(ctx, ord.ID, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, ord.Status)
	assert.NotNil(t, ord.PaidAt)

	ord, err = env.service.Fulfill(ctx, ord.ID, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusFulfilled, ord.Status)

	ord, err = env.service.Ship(ctx, ord.ID, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, ord.Status)

	// Email match is case-insensitive.
	ord, err = env.service.Complete(ctx, ord.ID, "ANA@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, ord.Status)
	assert.NotNil(t, ord.CompletedAt)

	// Exactly one event per transition, in order.
	require.Len(t, ord.Events, 5)
	statuses := make([]Status, len(ord.Events))
	for i, ev := range ord.Events {
		statuses[i] = ev.Status
	}
	assert.Equal(t, []Status{StatusCreated, StatusPaid, StatusFulfilled, StatusShipped, StatusCompleted}, statuses)
}

func TestInvalidTransitionWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	ord := createTestOrder(t, env)

	// Created cannot ship directly.
	_, err := env.service.Ship(context.Background(), ord.ID, "admin@example.com")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	reloaded, err := env.service.GetOrder(context.Background(), ord.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, reloaded.Status)
	assert.Len(t, reloaded.Events, 1)
}

func TestCompleteRequiresEmailMatch(t *testing.T) {
	env := newTestEnv(t)
	ord := createTestOrder(t, env)
	ctx := context.Background()

	for _, step := range []func(context.Context, uint, string) (*Order, error){
		env.service.Pay, env.service.Fulfill, env.service.Ship,
	} {
		var err error
		ord, err = step(ctx, ord.ID, "admin@example.com")
		require.NoError(t, err)
	}

	_, err := env.service.Complete(ctx, ord.ID, "intruder@example.com")
	assert.ErrorIs(t, err, ErrUnauthorized)

	reloaded, err := env.service.GetOrder(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, reloaded.Status)
	assert.Len(t, reloaded.Events, 4)
}

func TestCancelRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	ord := createTestOrder(t, env)

	_, err := env.service.Cancel(context.Background(), ord.ID, "  ", "ana@example.com")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "reason", validationErr.Field)
}

func TestCancelRestoresInventory(t *testing.T) {
	env := newTestEnv(t)
	ord := createTestOrder(t, env) // Decrements 10 -> 7

	cancelled, err := env.service.Cancel(context.Background(), ord.ID, "changed my mind", "ana@example.com")
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancelReason)
	assert.NotNil(t, cancelled.CancelledAt)

	prod, err := env.catalog.Product(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 10, prod.Quantity)
}

func TestShippedOrdersCannotCancel(t *testing.T) {
	env := newTestEnv(t)
	ord := createTestOrder(t, env)
	ctx := context.Background()

	for _, step := range []func(context.Context, uint, string) (*Order, error){
		env.service.Pay, env.service.Fulfill, env.service.Ship,
	} {
		var err error
		ord, err = step(ctx, ord.ID, "admin@example.com")
		require.NoError(t, err)
	}

	_, err := env.service.Cancel(ctx, ord.ID, "too late", "ana@example.com")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGetOrderByNumber(t *testing.T) {
	env := newTestEnv(t)
	ord := createTestOrder(t, env)

	found, err := env.service.GetOrderByNumber(context.Background(), ord.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, ord.ID, found.ID)

	_, err = env.service.GetOrderByNumber(context.Background(), "ORD-00000000-00000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersByStatusAndEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, &catalog.Product{ID: 1, SKU: "A", Name: "Alpha", Slug: "alpha", PriceCents: 2500, Quantity: 50, IsActive: true})

	customers := []Customer{
		{Name: "Ana Reyes", Email: "ana@example.com", Country: "PH"},
		{Name: "Ben Cruz", Email: "ben@example.com", Country: "US"},
	}
	var first *Order
	for i, cust := range customers {
		cartID := string(rune('a' + i))
		env.addToCart(t, cartID, 1, 1)
		ord, err := env.service.CreateOrder(context.Background(), cartID, &CreateOrderRequest{Customer: cust})
		require.NoError(t, err)
		if first == nil {
			first = ord
		}
	}

	_, err := env.service.Pay(context.Background(), first.ID, "admin@example.com")
	require.NoError(t, err)

	resp, err := env.service.List(context.Background(), &ListRequest{Status: StatusPaid})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, first.ID, resp.Orders[0].ID)

	resp, err = env.service.ListByCustomer(context.Background(), "BEN@example.com", 1, 20)
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, "ben@example.com", resp.Orders[0].Customer.Email)
	assert.Equal(t, int64(1), resp.Pagination.Total)
}

func TestOrderEventsMonotone(t *testing.T) {
	env := newTestEnv(t)
	ord := createTestOrder(t, env)
	ctx := context.Background()

	for _, step := range []func(context.Context, uint, string) (*Order, error){
		env.service.Pay, env.service.Fulfill,
	} {
		var err error
		ord, err = step(ctx, ord.ID, "admin@example.com")
		require.NoError(t, err)
	}

	for i := 1; i < len(ord.Events); i++ {
		assert.False(t, ord.Events[i].At.Before(ord.Events[i-1].At))
	}
}

func TestGetOrderNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.GetOrder(context.Background(), 999)
	assert.True(t, errors.Is(err, ErrNotFound))
}
