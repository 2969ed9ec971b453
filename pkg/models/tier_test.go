package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTier(t *testing.T) {
	for _, valid := range []string{"free", "pro", "premium", "premium_plus"} {
		tier, err := ParseTier(valid)
		require.NoError(t, err)
		assert.Equal(t, Tier(valid), tier)
	}

	for _, invalid := range []string{"", "Free", "platinum", "premium+"} {
		_, err := ParseTier(invalid)
		assert.Error(t, err, "expected %q to be rejected", invalid)
	}
}

func TestTierLimitsTable(t *testing.T) {
	assert.Equal(t, 10, TierFree.Limits().KeysPerDay)
	assert.Equal(t, 50, TierPro.Limits().KeysPerDay)
	assert.Equal(t, 200, TierPremium.Limits().KeysPerDay)
	assert.Equal(t, 1000, TierPremiumPlus.Limits().KeysPerDay)

	assert.Equal(t, "Premium+", TierPremiumPlus.DisplayName())
}

func TestUnknownTierLimitsFallBackToFree(t *testing.T) {
	assert.Equal(t, TierFree.Limits(), Tier("corrupt").Limits())
}

func TestRetryAfterSeconds(t *testing.T) {
	now := time.Now()

	r := RateLimitResult{ResetAt: now.Add(7 * time.Second).UnixMilli()}
	retry := r.RetryAfterSeconds(now)
	assert.GreaterOrEqual(t, retry, 7)
	assert.LessOrEqual(t, retry, 8)

	// Already elapsed still yields at least one second
	r = RateLimitResult{ResetAt: now.Add(-time.Minute).UnixMilli()}
	assert.Equal(t, 1, r.RetryAfterSeconds(now))

	r = RateLimitResult{ResetAt: now.Add(500 * time.Millisecond).UnixMilli()}
	assert.Equal(t, 1, r.RetryAfterSeconds(now))
}
