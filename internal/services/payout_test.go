package services_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/discord"
	"song-request-backend/internal/models"
	"song-request-backend/internal/services"
)

// completedOrder drives an order from checkout to delivery by the producer
// with the given Discord id.
func (h *harness) completedOrder(t *testing.T, producer *models.Producer) *models.SongRequest {
	t.Helper()
	ctx := context.Background()
	orderID := h.paidOrder(t, customer(), premium())

	outcome, err := h.acceptance.HandleClick(ctx, services.ButtonClick{
		Action:        discord.ActionAccept,
		OrderID:       orderID,
		DiscordUserID: producer.DiscordUserID.String,
	})
	require.NoError(t, err)
	require.Equal(t, services.OutcomeAccepted, outcome)

	done, err := h.orders.Deliver(ctx, services.Caller{UserID: producer.UserID}, orderID, "https://drive.example.com/final")
	require.NoError(t, err)
	return done
}

func TestPremiumOrder_EndToEndWithManualPayout(t *testing.T) {
	h := newHarness(t)
	p := h.addProducer(t, "Beat Smith", "Hip Hop", "111")
	order := h.completedOrder(t, p)
	assert.Equal(t, models.StatusCompleted, order.Status)

	res, err := h.payouts.Payout(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutMethodManual, res.Method)
	assert.Empty(t, res.TransferID)
	assert.Equal(t, int64(3000), res.PlatformFeeCents)
	assert.Equal(t, int64(17000), res.ProducerPayoutCents)

	stored := h.store.order(order.ID)
	assert.True(t, stored.ProducerPaidAt.Valid)
	assert.Equal(t, h.now, stored.ProducerPaidAt.Time)
	assert.False(t, stored.StripeTransferID.Valid)
	assert.Empty(t, h.processor.transfers)
}

func TestPayout_ConnectTransfer(t *testing.T) {
	h := newHarness(t)
	p := h.addProducer(t, "Beat Smith", "Hip Hop", "111")
	h.store.producers[p.ID].StripeAccountID = sql.NullString{String: "acct_beat", Valid: true}
	h.store.producers[p.ID].StripeOnboardedAt = sql.NullTime{Time: h.now, Valid: true}
	order := h.completedOrder(t, p)

	res, err := h.payouts.Payout(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutMethodStripeConnect, res.Method)
	assert.NotEmpty(t, res.TransferID)

	require.Len(t, h.processor.transfers, 1)
	tr := h.processor.transfers[0]
	assert.Equal(t, int64(17000), tr.AmountCents)
	assert.Equal(t, "acct_beat", tr.DestinationAccountID)
	assert.Equal(t, order.ID.String(), tr.TransferGroup)
	assert.NotEmpty(t, tr.SourceChargeID)
	assert.Equal(t, res.TransferID, h.store.order(order.ID).StripeTransferID.String)
}

func TestPayout_UsesCapturedAmount(t *testing.T) {
	h := newHarness(t)
	p := h.addProducer(t, "Beat Smith", "Hip Hop", "111")
	order := h.completedOrder(t, p)
	h.processor.intents[order.PaymentIntentID.String].AmountReceived = 10000

	res, err := h.payouts.Payout(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), res.PlatformFeeCents)
	assert.Equal(t, int64(8500), res.ProducerPayoutCents)
}

func TestPayout_Rejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.addProducer(t, "Beat Smith", "Hip Hop", "111")

	open := h.paidOrder(t, customer(), premium())
	_, err := h.payouts.Payout(ctx, open)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	order := h.completedOrder(t, p)
	_, err = h.payouts.Payout(ctx, order.ID)
	require.NoError(t, err)
	_, err = h.payouts.Payout(ctx, order.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}
