package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"song-request-backend/internal/email"
	"song-request-backend/internal/events"
	"song-request-backend/internal/models"
	"song-request-backend/internal/payments"
)

// ExpirySweeper refunds orders nobody accepted before their deadline.
type ExpirySweeper struct {
	rt        *Runtime
	orders    OrderStore
	processor payments.Processor
	mailer    Mailer
}

func NewExpirySweeper(rt *Runtime, orders OrderStore, processor payments.Processor, mailer Mailer) *ExpirySweeper {
	return &ExpirySweeper{rt: rt, orders: orders, processor: processor, mailer: mailer}
}

// Sweep refunds every expired order it selects. A failing order is recorded
// in Errors and the sweep moves on.
func (s *ExpirySweeper) Sweep(ctx context.Context) (*models.SweepResponse, error) {
	now := s.rt.now()
	expired, err := s.orders.ListExpiredAwaiting(ctx, s.rt.Settings.SweeperStatuses, now)
	if err != nil {
		return nil, err
	}

	result := &models.SweepResponse{Checked: len(expired), Refunded: []string{}, Errors: []string{}}
	for i := range expired {
		order := &expired[i]
		refunded, err := s.refund(ctx, order)
		if err != nil {
			s.rt.Logger.Error("expiry refund failed", zap.String("order_id", order.ID.String()), zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", order.ID, err))
			continue
		}
		if refunded {
			result.Refunded = append(result.Refunded, order.ID.String())
		}
	}

	s.rt.Logger.Info("expiry sweep finished",
		zap.Int("checked", result.Checked),
		zap.Int("refunded", len(result.Refunded)),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// Run is the cron entry point.
func (s *ExpirySweeper) Run() {
	if _, err := s.Sweep(context.Background()); err != nil {
		s.rt.Logger.Error("expiry sweep failed", zap.Error(err))
	}
}

func (s *ExpirySweeper) refund(ctx context.Context, order *models.SongRequest) (bool, error) {
	if order.PaymentIntentID.Valid && order.PaymentIntentID.String != "" {
		pi, err := s.processor.GetPaymentIntent(ctx, order.PaymentIntentID.String)
		if err != nil {
			return false, err
		}
		switch pi.Status {
		case payments.IntentSucceeded:
			if !pi.Refunded {
				if _, err := s.processor.RefundPaymentIntent(ctx, pi.ID); err != nil {
					return false, err
				}
			}
		case payments.IntentCanceled:
			// authorization already released
		default:
			if err := s.processor.CancelPaymentIntent(ctx, pi.ID); err != nil {
				return false, err
			}
		}
	}

	marked, err := s.orders.MarkRefunded(ctx, order.ID, s.rt.now())
	if err != nil || !marked {
		return false, err
	}

	order.Status = models.StatusRefunded
	s.rt.publish(events.OrderRefunded, order)
	s.rt.Tasks.Go("email refund", func(ctx context.Context) error {
		return s.mailer.Refund(ctx, order.CustomerEmail, email.Refund{
			OrderID:      order.ID.String(),
			CustomerName: customerName(order),
			Amount:       email.FormatCents(order.PriceCents, s.rt.Settings.Currency),
		})
	})
	return true, nil
}
