package payments

import "math"

// DefaultPlatformFeePercent is the platform's cut of every order.
const DefaultPlatformFeePercent = 15

// MaxChargeCents is the largest single charge Stripe accepts ($999,999.99).
const MaxChargeCents = 99_999_999

// ToCents converts a major-unit price (200.00) into integer minor units.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// SplitAmount splits totalCents into the platform fee, rounded half-up, and
// the producer payout. fee + payout always equals totalCents.
func SplitAmount(totalCents, feePercent int64) (feeCents, payoutCents int64) {
	if totalCents <= 0 {
		return 0, 0
	}
	feeCents = (totalCents*feePercent + 50) / 100
	return feeCents, totalCents - feeCents
}
