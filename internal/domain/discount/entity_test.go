// internal/domain/discount/entity_test.go
package discount

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "SAVE10", Normalize("  save10 "))
	assert.Equal(t, "FREE-SHIP", Normalize("free-ship"))
	assert.Equal(t, "", Normalize("   "))
}

func TestWellFormed(t *testing.T) {
	assert.True(t, WellFormed("SAVE10"))
	assert.True(t, WellFormed("FREE-SHIP-2026"))
	assert.False(t, WellFormed(""))
	assert.False(t, WellFormed("SAVE 10"))
	assert.False(t, WellFormed("SAVE_10"))
	assert.False(t, WellFormed("save10")) // Lowercase is not canonical
}

func TestCodeEligibility(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	c := Code{Code: "SAVE10", Kind: KindPercent, Value: 10, MinSubtotalCents: 1000}
	assert.False(t, c.Expired(now))
	assert.False(t, c.Disabled())
	assert.True(t, c.MeetsMinimum(1000))
	assert.False(t, c.MeetsMinimum(999))

	c.ExpiresAt = &past
	assert.True(t, c.Expired(now))
	c.ExpiresAt = &future
	assert.False(t, c.Expired(now))

	c.DisabledAt = &past
	assert.True(t, c.Disabled())
}
