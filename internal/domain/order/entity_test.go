// internal/domain/order/entity_test.go
package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	// The main lifecycle is a strict linear chain.
	assert.True(t, CanTransition(StatusCreated, StatusPaid))
	assert.True(t, CanTransition(StatusPaid, StatusFulfilled))
	assert.True(t, CanTransition(StatusFulfilled, StatusShipped))
	assert.True(t, CanTransition(StatusShipped, StatusCompleted))

	// No skipping, no going back.
	assert.False(t, CanTransition(StatusCreated, StatusShipped))
	assert.False(t, CanTransition(StatusPaid, StatusCreated))
	assert.False(t, CanTransition(StatusCompleted, StatusShipped))

	// Cancel is allowed until the order ships.
	assert.True(t, CanTransition(StatusCreated, StatusCancelled))
	assert.True(t, CanTransition(StatusPaid, StatusCancelled))
	assert.True(t, CanTransition(StatusFulfilled, StatusCancelled))
	assert.False(t, CanTransition(StatusShipped, StatusCancelled))
	assert.False(t, CanTransition(StatusCompleted, StatusCancelled))

	// Terminal states go nowhere.
	assert.False(t, CanTransition(StatusCancelled, StatusPaid))
	assert.False(t, CanTransition(StatusCompleted, StatusPaid))
}

func TestGenerateOrderNumber(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "ORD-20260301-00042", GenerateOrderNumber(42, at))
}

func TestTerminal(t *testing.T) {
	assert.True(t, (&Order{Status: StatusCompleted}).Terminal())
	assert.True(t, (&Order{Status: StatusCancelled}).Terminal())
	assert.False(t, (&Order{Status: StatusShipped}).Terminal())
}
