package payments_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"song-request-backend/internal/payments"
)

func TestSplitAmount_PremiumExample(t *testing.T) {
	fee, payout := payments.SplitAmount(payments.ToCents(200.00), payments.DefaultPlatformFeePercent)

	assert.Equal(t, int64(3000), fee)
	assert.Equal(t, int64(17000), payout)
}

func TestSplitAmount_SumsAndRounds(t *testing.T) {
	for total := int64(1); total <= 50000; total += 37 {
		fee, payout := payments.SplitAmount(total, 15)

		assert.Equal(t, total, fee+payout, "total %d", total)
		assert.Equal(t, int64(math.Round(float64(total)*0.15)), fee, "total %d", total)
	}
}

func TestSplitAmount_NonPositive(t *testing.T) {
	fee, payout := payments.SplitAmount(0, 15)
	assert.Zero(t, fee)
	assert.Zero(t, payout)
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(20000), payments.ToCents(200.00))
	assert.Equal(t, int64(1999), payments.ToCents(19.99))
}
