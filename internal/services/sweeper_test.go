package services_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"song-request-backend/internal/models"
	"song-request-backend/internal/payments"
)

func TestSweep_RefundsExpiredOrderOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	orderID := h.paidOrder(t, customer(), premium())

	h.now = h.now.Add(47 * time.Hour)
	res, err := h.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Checked)

	h.now = h.now.Add(2 * time.Hour)
	res, err = h.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{orderID.String()}, res.Refunded)
	assert.Empty(t, res.Errors)

	order := h.store.order(orderID)
	assert.Equal(t, models.StatusRefunded, order.Status)
	assert.True(t, order.RefundedAt.Valid)
	assert.Len(t, h.processor.refunds, 1)
	assert.Contains(t, h.mailer.kinds(), "refund:fan@example.com")

	res, err = h.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Checked)
	assert.Len(t, h.processor.refunds, 1)
}

func TestSweep_CancelsUncapturedAuthorization(t *testing.T) {
	h := newHarness(t)
	orderID := h.paidOrder(t, customer(), premium())
	pi := h.store.order(orderID).PaymentIntentID.String
	h.processor.intents[pi].Status = payments.IntentRequiresCapture

	h.now = h.now.Add(72 * time.Hour)
	res, err := h.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Refunded, 1)
	assert.Equal(t, []string{pi}, h.processor.cancels)
	assert.Empty(t, h.processor.refunds)
}

func TestSweep_ContinuesPastFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	good := h.paidOrder(t, customer(), premium())

	broken := &models.SongRequest{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		CustomerEmail:      "other@example.com",
		Status:             models.StatusPaid,
		PaymentIntentID:    sql.NullString{String: "pi_missing", Valid: true},
		AcceptanceDeadline: sql.NullTime{Time: h.now.Add(time.Hour), Valid: true},
	}
	require.NoError(t, h.store.CreateSongRequest(ctx, broken))

	h.now = h.now.Add(72 * time.Hour)
	res, err := h.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Checked)
	assert.Equal(t, []string{good.String()}, res.Refunded)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], broken.ID.String())
	assert.Equal(t, models.StatusPaid, h.store.order(broken.ID).Status)
}

func TestSweep_LeavesAcceptedOrdersAlone(t *testing.T) {
	h := newHarness(t)
	p := h.addProducer(t, "Beat Smith", "Hip Hop", "111")
	orderID := h.paidOrder(t, customer(), premium())
	_, err := h.store.AcceptSongRequest(context.Background(), orderID, p.ID)
	require.NoError(t, err)

	h.now = h.now.Add(72 * time.Hour)
	res, err := h.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Checked)
	assert.Empty(t, h.processor.refunds)
}

func TestSweep_OrderWithoutPaymentIsMarkedRefunded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := &models.SongRequest{
		ID:                 uuid.New(),
		Status:             models.StatusPending,
		AcceptanceDeadline: sql.NullTime{Time: h.now.Add(-time.Minute), Valid: true},
	}
	require.NoError(t, h.store.CreateSongRequest(ctx, o))

	res, err := h.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{o.ID.String()}, res.Refunded)
	assert.Empty(t, h.processor.refunds)
	assert.Empty(t, h.processor.cancels)
}
