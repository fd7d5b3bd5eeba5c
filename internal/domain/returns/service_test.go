// internal/domain/returns/service_test.go
package returns

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&order.Order{}, &order.OrderItem{}, &order.OrderEvent{},
		&Message{},
	))

	return NewService(db), db
}

var orderSeq int

func seedOrder(t *testing.T, db *gorm.DB, status order.Status) *order.Order {
	t.Helper()

	orderSeq++
	ord := &order.Order{
		OrderNumber: fmt.Sprintf("ORD-20260301-%05d", orderSeq),
		Status:      status,
		Customer: order.Customer{
			Name:    "Ana Reyes",
			Email:   "ana@example.com",
			Country: "PH",
		},
		SubtotalCents: 7500,
		TotalCents:    8263,
	}
	require.NoError(t, db.Create(ord).Error)
	return ord
}

func TestRequestReturnOnShippedOrder(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, order.StatusShipped)

	updated, err := svc.RequestReturn(context.Background(), ord.ID, "ana@example.com", ReasonWrongItem, "")
	require.NoError(t, err)

	assert.NotNil(t, updated.ReturnRequestedAt)
	assert.Equal(t, string(ReasonWrongItem), updated.ReturnReason)
	assert.Equal(t, order.ReturnStatusPending, updated.ReturnAdminStatus)
}

func TestRequestReturnAvailability(t *testing.T) {
	svc, db := newTestService(t)

	for _, status := range []order.Status{
		order.StatusCreated, order.StatusPaid, order.StatusFulfilled, order.StatusCancelled,
	} {
		ord := seedOrder(t, db, status)
		_, err := svc.RequestReturn(context.Background(), ord.ID, "ana@example.com", ReasonBrokenItem, "")
		assert.ErrorIs(t, err, ErrNotAvailable, "status %s", status)
	}

	// Completed orders still qualify.
	ord := seedOrder(t, db, order.StatusCompleted)
	_, err := svc.RequestReturn(context.Background(), ord.ID, "ana@example.com", ReasonBrokenItem, "")
	assert.NoError(t, err)
}

func TestRequestReturnOnlyOnce(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, order.StatusShipped)

	_, err := svc.RequestReturn(context.Background(), ord.ID, "ana@example.com", ReasonMissingParts, "")
	require.NoError(t, err)

	_, err = svc.RequestReturn(context.Background(), ord.ID, "ana@example.com", ReasonBrokenItem, "")
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestRequestReturnEmailGuard(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, order.StatusShipped)

	_, err := svc.RequestReturn(context.Background(), ord.ID, "intruder@example.com", ReasonWrongItem, "")
	assert.ErrorIs(t, err, order.ErrUnauthorized)

	// Case-insensitive match is fine.
	_, err = svc.RequestReturn(context.Background(), ord.ID, "ANA@Example.com", ReasonWrongItem, "")
	assert.NoError(t, err)
}

func TestRequestReturnOtherNeedsText(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, order.StatusShipped)

	_, err := svc.RequestReturn(context.Background(), ord.ID, "ana@example.com", ReasonOther, "   ")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	updated, err := svc.RequestReturn(context.Background(), ord.ID, "ana@example.com", ReasonOther, "arrived opened")
	require.NoError(t, err)
	assert.Equal(t, "Other: arrived opened", updated.ReturnReason)
}

func TestRequestReturnRejectsUnknownReason(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, order.StatusShipped)

	_, err := svc.RequestReturn(context.Background(), ord.ID, "ana@example.com", Reason("Just because"), "")
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestRespondUpdatesStatusAndAppendsMessage(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, order.StatusShipped)

	_, err := svc.RequestReturn(context.Background(), ord.ID, "ana@example.com", ReasonWrongItem, "")
	require.NoError(t, err)

	updated, err := svc.RespondToReturn(context.Background(), ord.ID, &RespondRequest{
		Status:  order.ReturnStatusInReview,
		Message: "We'll exchange it",
	}, "support@example.com")
	require.NoError(t, err)

	assert.Equal(t, order.ReturnStatusInReview, updated.ReturnAdminStatus)
	assert.NotNil(t, updated.ReturnAdminRespondedAt)

	messages, err := svc.ListMessages(context.Background(), ord.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, RoleAdmin, messages[0].AuthorRole)
	assert.Equal(t, "support@example.com", messages[0].AuthorName)
	assert.Equal(t, "We'll exchange it", messages[0].Body)
}

func TestRespondRequiresOpenReturn(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, order.StatusShipped)

	_, err := svc.RespondToReturn(context.Background(), ord.ID, &RespondRequest{
		Status: order.ReturnStatusInReview,
	}, "support@example.com")
	assert.ErrorIs(t, err, ErrNotRequested)
}

func TestRespondForwardOnly(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, order.StatusShipped)

	_, err := svc.RequestReturn(context.Background(), ord.ID, "ana@example.com", ReasonWrongPrice, "")
	require.NoError(t, err)

	ctx := context.Background()
	for _, status := range []order.ReturnStatus{
		order.ReturnStatusInReview, order.ReturnStatusApproved, order.ReturnStatusRefunded,
	} {
		_, err = svc.RespondToReturn(ctx, ord.ID, &RespondRequest{Status: status}, "support@example.com")
		require.NoError(t, err)
	}

	// Refunded cannot slide back to pending without an explicit reopen.
	_, err = svc.RespondToReturn(ctx, ord.ID, &RespondRequest{Status: order.ReturnStatusPending}, "support@example.com")
	assert.ErrorIs(t, err, ErrBackwardStatus)

	// Reopen permits the backward move.
	updated, err := svc.RespondToReturn(ctx, ord.ID, &RespondRequest{
		Status: order.ReturnStatusInReview,
		Reopen: true,
	}, "support@example.com")
	require.NoError(t, err)
	assert.Equal(t, order.ReturnStatusInReview, updated.ReturnAdminStatus)
}

func TestRespondDeclinedSharesTopRank(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, order.StatusShipped)

	_, err := svc.RequestReturn(context.Background(), ord.ID, "ana@example.com", ReasonPackageDropped, "")
	require.NoError(t, err)

	// Pending straight to declined is a forward move.
	updated, err := svc.RespondToReturn(context.Background(), ord.ID, &RespondRequest{
		Status: order.ReturnStatusDeclined,
	}, "support@example.com")
	require.NoError(t, err)
	assert.Equal(t, order.ReturnStatusDeclined, updated.ReturnAdminStatus)

	// Declined to refunded keeps the same rank, so it is still allowed.
	updated, err = svc.RespondToReturn(context.Background(), ord.ID, &RespondRequest{
		Status: order.ReturnStatusRefunded,
	}, "support@example.com")
	require.NoError(t, err)
	assert.Equal(t, order.ReturnStatusRefunded, updated.ReturnAdminStatus)
}

func TestMessageThreadAppendOnly(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, order.StatusShipped)

	ctx := context.Background()
	_, err := svc.RequestReturn(ctx, ord.ID, "ana@example.com", ReasonWrongItem, "")
	require.NoError(t, err)

	_, err = svc.PostMessage(ctx, ord.ID, RoleCustomer, "ana@example.com", "The sleeves are different lengths")
	require.NoError(t, err)
	_, err = svc.PostMessage(ctx, ord.ID, RoleAdmin, "support@example.com", "Sorry about that, photos please?")
	require.NoError(t, err)
	_, err = svc.PostMessage(ctx, ord.ID, RoleCustomer, "ana@example.com", "Attached")
	require.NoError(t, err)

	messages, err := svc.ListMessages(ctx, ord.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	assert.Equal(t, RoleCustomer, messages[0].AuthorRole)
	assert.Equal(t, RoleAdmin, messages[1].AuthorRole)
	assert.Equal(t, RoleCustomer, messages[2].AuthorRole)
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
	}
}

func TestPostMessageNeedsOpenReturn(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, order.StatusShipped)

	_, err := svc.PostMessage(context.Background(), ord.ID, RoleCustomer, "ana@example.com", "hello?")
	assert.ErrorIs(t, err, ErrNotRequested)
}

func TestPostMessageValidation(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, order.StatusShipped)

	_, err := svc.RequestReturn(context.Background(), ord.ID, "ana@example.com", ReasonWrongItem, "")
	require.NoError(t, err)

	var validationErr *ValidationError
	_, err = svc.PostMessage(context.Background(), ord.ID, RoleCustomer, "ana@example.com", "   ")
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.PostMessage(context.Background(), ord.ID, AuthorRole("bot"), "x", "hi")
	assert.ErrorAs(t, err, &validationErr)
}
