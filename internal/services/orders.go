package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/email"
	"song-request-backend/internal/events"
	"song-request-backend/internal/models"
	"song-request-backend/internal/payments"
)

// Checkout session metadata keys.
const (
	metaOrderID            = "order_id"
	metaTier               = "tier"
	metaPlatformFeeCents   = "platform_fee_cents"
	metaProducerPayout     = "producer_payout_cents"
	metaAcceptanceDeadline = "acceptance_deadline"
)

type OrderService struct {
	rt        *Runtime
	orders    OrderStore
	revisions RevisionStore
	processor payments.Processor
	mailer    Mailer
	assigner  *AssignmentNotifier
	access    access
}

func NewOrderService(rt *Runtime, orders OrderStore, producers ProducerStore, revisions RevisionStore,
	processor payments.Processor, mailer Mailer, assigner *AssignmentNotifier, roles RoleSource) *OrderService {
	return &OrderService{
		rt:        rt,
		orders:    orders,
		revisions: revisions,
		processor: processor,
		mailer:    mailer,
		assigner:  assigner,
		access:    access{producers: producers, roles: roles},
	}
}

// Checkout creates the order in pending_payment and opens a hosted checkout
// session for it.
func (s *OrderService) Checkout(ctx context.Context, caller Caller, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if strings.TrimSpace(req.Tier) == "" {
		return nil, fmt.Errorf("tier is required: %w", apperr.ErrValidation)
	}
	if req.TotalPrice <= 0 {
		return nil, fmt.Errorf("total_price must be positive: %w", apperr.ErrValidation)
	}
	if req.RevisionCount < 0 {
		return nil, fmt.Errorf("revision_count cannot be negative: %w", apperr.ErrValidation)
	}

	totalCents := payments.ToCents(req.TotalPrice)
	if totalCents <= 0 || totalCents > payments.MaxChargeCents {
		return nil, fmt.Errorf("total_price must be between 0.01 and %.2f: %w",
			float64(payments.MaxChargeCents)/100, apperr.ErrValidation)
	}
	fee, payout := payments.SplitAmount(totalCents, s.rt.Settings.PlatformFeePercent)
	deadline := s.rt.now().Add(s.rt.Settings.AcceptanceWindow)

	order := &models.SongRequest{
		ID:                  uuid.New(),
		UserID:              caller.UserID,
		CustomerEmail:       caller.Email,
		CustomerName:        sql.NullString{String: req.CustomerName, Valid: req.CustomerName != ""},
		SongIdea:            req.SongIdea,
		Tier:                req.Tier,
		Genre:               sql.NullString{String: req.Genre, Valid: req.Genre != ""},
		PriceCents:          totalCents,
		Status:              models.StatusPendingPayment,
		PlatformFeeCents:    fee,
		ProducerPayoutCents: payout,
		AcceptanceDeadline:  sql.NullTime{Time: deadline, Valid: true},
		AddOns:              req.AddOns,
		RevisionCount:       req.RevisionCount,
		UploadedFiles:       req.UploadedFiles,
	}
	if err := s.orders.CreateSongRequest(ctx, order); err != nil {
		return nil, err
	}

	frontend := s.rt.Settings.FrontendURL
	sess, err := s.processor.CreateCheckoutSession(ctx, payments.CheckoutParams{
		OrderID:       order.ID.String(),
		CustomerEmail: caller.Email,
		ProductName:   "Custom song (" + req.Tier + ")",
		Description:   truncate(req.SongIdea, 300),
		AmountCents:   totalCents,
		Currency:      s.rt.Settings.Currency,
		SuccessURL:    frontend + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     frontend + "/checkout/cancel?order_id=" + url.QueryEscape(order.ID.String()),
		Metadata: map[string]string{
			metaOrderID:            order.ID.String(),
			metaTier:               req.Tier,
			metaPlatformFeeCents:   strconv.FormatInt(fee, 10),
			metaProducerPayout:     strconv.FormatInt(payout, 10),
			metaAcceptanceDeadline: deadline.Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.SetStripeSession(ctx, order.ID, sess.ID); err != nil {
		return nil, err
	}

	s.rt.Logger.Info("checkout session created",
		zap.String("order_id", order.ID.String()),
		zap.String("session_id", sess.ID),
		zap.Int64("price_cents", totalCents))

	return &models.CheckoutResponse{
		OrderID:             order.ID.String(),
		SessionID:           sess.ID,
		CheckoutURL:         sess.URL,
		PriceCents:          totalCents,
		PlatformFeeCents:    fee,
		ProducerPayoutCents: payout,
		AcceptanceDeadline:  deadline,
	}, nil
}

// VerifyPayment records the purchase for a paid session exactly once and moves
// the order to paid. Calls that find the order already moved report
// AlreadyProcessed.
func (s *OrderService) VerifyPayment(ctx context.Context, sessionID string) (*models.VerifyPaymentResponse, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required: %w", apperr.ErrValidation)
	}

	sess, err := s.processor.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Paid {
		return nil, fmt.Errorf("checkout session %s is not paid: %w", sessionID, apperr.ErrPaymentRequired)
	}

	orderID, err := uuid.Parse(sess.Metadata[metaOrderID])
	if err != nil {
		return nil, fmt.Errorf("checkout session %s has no order: %w", sessionID, apperr.ErrValidation)
	}
	order, err := s.orders.GetSongRequest(ctx, orderID)
	if err != nil {
		return nil, err
	}

	already := func() (*models.VerifyPaymentResponse, error) {
		current, err := s.orders.GetSongRequest(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return &models.VerifyPaymentResponse{OrderID: orderID.String(), Status: current.Status, AlreadyProcessed: true}, nil
	}

	// A recorded purchase does not mean the order moved: MarkPaid may have
	// failed after the insert, so the conditional update always runs.
	_, err = s.orders.GetPurchaseBySession(ctx, sessionID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		err = s.orders.CreatePurchase(ctx, &models.Purchase{
			UserID:          order.UserID,
			SongRequestID:   order.ID,
			StripeSessionID: sessionID,
			AmountCents:     sess.AmountTotal,
			Currency:        sess.Currency,
		})
		if err != nil && !errors.Is(err, apperr.ErrConflict) {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	fee, payout := splitFromMetadata(sess, s.rt.Settings.PlatformFeePercent)
	moved, err := s.orders.MarkPaid(ctx, order.ID, sess.PaymentIntentID, fee, payout)
	if err != nil {
		return nil, err
	}
	if !moved {
		return already()
	}

	if order.RevisionCount > 0 {
		if err := s.revisions.CreateRevisions(ctx, order.ID, order.RevisionCount); err != nil {
			s.rt.Logger.Error("failed to create revisions", zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}

	order.Status = models.StatusPaid
	s.rt.publish(events.OrderPaid, order)
	s.assigner.Dispatch(order.ID, nil)

	s.rt.Logger.Info("payment verified", zap.String("order_id", order.ID.String()), zap.String("session_id", sessionID))
	return &models.VerifyPaymentResponse{OrderID: order.ID.String(), Status: models.StatusPaid}, nil
}

// splitFromMetadata reads back the split stored at checkout, recomputing it
// from the session total when the metadata is missing or inconsistent.
func splitFromMetadata(sess *payments.CheckoutSession, feePercent int64) (int64, int64) {
	fee, errFee := strconv.ParseInt(sess.Metadata[metaPlatformFeeCents], 10, 64)
	payout, errPayout := strconv.ParseInt(sess.Metadata[metaProducerPayout], 10, 64)
	if errFee != nil || errPayout != nil || fee+payout != sess.AmountTotal {
		return payments.SplitAmount(sess.AmountTotal, feePercent)
	}
	return fee, payout
}

func (s *OrderService) Get(ctx context.Context, caller Caller, orderID uuid.UUID) (*models.SongRequest, error) {
	order, err := s.orders.GetSongRequest(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.party(ctx, caller, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListMine(ctx context.Context, caller Caller) ([]models.SongRequest, error) {
	return s.orders.ListSongRequestsByUser(ctx, caller.UserID)
}

// ListAssigned returns the calling producer's queue.
func (s *OrderService) ListAssigned(ctx context.Context, caller Caller) ([]models.SongRequest, error) {
	p, err := s.access.producers.GetProducerByUserID(ctx, caller.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("not a producer: %w", apperr.ErrForbidden)
	}
	if err != nil {
		return nil, err
	}
	return s.orders.ListSongRequestsByProducer(ctx, p.ID)
}

// Start moves an accepted order into production.
func (s *OrderService) Start(ctx context.Context, caller Caller, orderID uuid.UUID) (*models.SongRequest, error) {
	order, err := s.orders.GetSongRequest(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.assignedProducer(ctx, caller, order); err != nil {
		return nil, err
	}
	return s.orders.TransitionStatus(ctx, orderID, []string{models.StatusAccepted}, models.StatusInProgress)
}

// RequestCancellation flags the customer's order for review.
func (s *OrderService) RequestCancellation(ctx context.Context, caller Caller, orderID uuid.UUID) (*models.SongRequest, error) {
	order, err := s.orders.GetSongRequest(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != caller.UserID {
		return nil, fmt.Errorf("order %s: %w", orderID, apperr.ErrForbidden)
	}
	return s.orders.TransitionStatus(ctx, orderID,
		[]string{models.StatusPaid, models.StatusAccepted, models.StatusInProgress},
		models.StatusCancellationRequested)
}

// Deliver records the final delivery link and completes the order.
func (s *OrderService) Deliver(ctx context.Context, caller Caller, orderID uuid.UUID, link string) (*models.SongRequest, error) {
	if err := validLink("delivery_link", link); err != nil {
		return nil, err
	}
	order, err := s.orders.GetSongRequest(ctx, orderID)
	if err != nil {
		return nil, err
	}
	producer, err := s.access.assignedProducer(ctx, caller, order)
	if err != nil {
		return nil, err
	}

	done, err := s.orders.CompleteSongRequest(ctx, orderID, producer.ID, link)
	if err != nil {
		return nil, err
	}

	s.rt.publish(events.OrderComplete, done)
	s.rt.Tasks.Go("email final delivery", func(ctx context.Context) error {
		return s.mailer.FinalDelivery(ctx, done.CustomerEmail, email.FinalDelivery{
			OrderID:      done.ID.String(),
			CustomerName: customerName(done),
			DeliveryLink: link,
		})
	})
	return done, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
