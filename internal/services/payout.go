package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/events"
	"song-request-backend/internal/models"
	"song-request-backend/internal/payments"
)

// PayoutService pays the producer of a completed order, by Connect transfer
// when they finished onboarding and otherwise by recording a manual payout.
type PayoutService struct {
	rt        *Runtime
	orders    OrderStore
	producers ProducerStore
	processor payments.Processor
}

func NewPayoutService(rt *Runtime, orders OrderStore, producers ProducerStore, processor payments.Processor) *PayoutService {
	return &PayoutService{rt: rt, orders: orders, producers: producers, processor: processor}
}

func (s *PayoutService) Payout(ctx context.Context, orderID uuid.UUID) (*models.PayoutResponse, error) {
	order, err := s.orders.GetSongRequest(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ProducerPaidAt.Valid {
		return nil, fmt.Errorf("order %s was already paid out: %w", orderID, apperr.ErrConflict)
	}
	if order.Status != models.StatusCompleted {
		return nil, fmt.Errorf("order %s is %s, not completed: %w", orderID, order.Status, apperr.ErrValidation)
	}
	if !order.PaymentIntentID.Valid || order.PaymentIntentID.String == "" {
		return nil, fmt.Errorf("order %s has no payment intent: %w", orderID, apperr.ErrValidation)
	}
	if !order.AssignedProducerID.Valid {
		return nil, fmt.Errorf("order %s has no producer: %w", orderID, apperr.ErrValidation)
	}

	pi, err := s.processor.GetPaymentIntent(ctx, order.PaymentIntentID.String)
	if err != nil {
		return nil, err
	}
	captured := pi.AmountReceived
	if captured <= 0 {
		return nil, fmt.Errorf("payment %s captured nothing: %w", pi.ID, apperr.ErrValidation)
	}
	fee, payout := payments.SplitAmount(captured, s.rt.Settings.PlatformFeePercent)

	producer, err := s.producers.GetProducer(ctx, order.AssignedProducerID.UUID)
	if err != nil {
		return nil, err
	}

	record := models.PayoutRecord{
		OrderID:             order.ID,
		Method:              models.PayoutMethodManual,
		PlatformFeeCents:    fee,
		ProducerPayoutCents: payout,
		PaidAt:              s.rt.now(),
	}
	if producer.CanReceiveTransfers() {
		transferID, err := s.processor.CreateTransfer(ctx, payments.TransferParams{
			AmountCents:          payout,
			Currency:             s.rt.Settings.Currency,
			DestinationAccountID: producer.StripeAccountID.String,
			TransferGroup:        order.ID.String(),
			SourceChargeID:       pi.ChargeID,
		})
		if err != nil {
			return nil, err
		}
		record.Method = models.PayoutMethodStripeConnect
		record.TransferID = transferID
	}

	recorded, err := s.orders.RecordPayout(ctx, record)
	if err != nil {
		return nil, err
	}
	if !recorded {
		return nil, fmt.Errorf("order %s was already paid out: %w", orderID, apperr.ErrConflict)
	}

	s.rt.Logger.Info("producer paid out",
		zap.String("order_id", order.ID.String()),
		zap.String("producer_id", producer.ID.String()),
		zap.String("method", record.Method),
		zap.Int64("payout_cents", payout))

	order.ProducerPaidAt.Time, order.ProducerPaidAt.Valid = record.PaidAt, true
	s.rt.publish(events.OrderPaidOut, order)

	return &models.PayoutResponse{
		OrderID:             order.ID.String(),
		Method:              record.Method,
		TransferID:          record.TransferID,
		PlatformFeeCents:    fee,
		ProducerPayoutCents: payout,
		PaidAt:              record.PaidAt,
	}, nil
}
