package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"song-request-backend/internal/apperr"
)

// Payment intent statuses the sweeper and payout processor branch on.
const (
	IntentSucceeded       = string(stripe.PaymentIntentStatusSucceeded)
	IntentRequiresCapture = string(stripe.PaymentIntentStatusRequiresCapture)
	IntentCanceled        = string(stripe.PaymentIntentStatusCanceled)
)

type CheckoutParams struct {
	OrderID       string
	CustomerEmail string
	ProductName   string
	Description   string
	AmountCents   int64
	Currency      string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type CheckoutSession struct {
	ID              string
	URL             string
	Paid            bool
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	CustomerEmail   string
	Metadata        map[string]string
}

type PaymentIntent struct {
	ID             string
	Status         string
	Amount         int64
	AmountReceived int64
	ChargeID       string
	Refunded       bool
}

type TransferParams struct {
	AmountCents          int64
	Currency             string
	DestinationAccountID string
	TransferGroup        string
	SourceChargeID       string
}

type ConnectAccount struct {
	ID               string
	DetailsSubmitted bool
	PayoutsEnabled   bool
}

// Processor is the slice of the payment processor the services depend on.
type Processor interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)
	CancelPaymentIntent(ctx context.Context, paymentIntentID string) error
	RefundPaymentIntent(ctx context.Context, paymentIntentID string) (string, error)
	CreateTransfer(ctx context.Context, p TransferParams) (string, error)
	CreateConnectAccount(ctx context.Context, email string) (string, error)
	CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	GetConnectAccount(ctx context.Context, accountID string) (*ConnectAccount, error)
}

type StripeClient struct {
	api *client.API
}

func NewStripeClient(secretKey string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api}
}

// upstream wraps a Stripe failure so handlers answer 502 with Stripe's own message.
func upstream(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return fmt.Errorf("%s: %s: %w", op, stripeErr.Msg, apperr.ErrUpstream)
	}
	return fmt.Errorf("%s: %v: %w", op, err, apperr.ErrUpstream)
}

func (s *StripeClient) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		ClientReferenceID: stripe.String(p.OrderID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.ProductName),
					},
					UnitAmount: stripe.Int64(p.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			TransferGroup: stripe.String(p.OrderID),
		},
	}
	if p.Description != "" {
		params.LineItems[0].PriceData.ProductData.Description = stripe.String(p.Description)
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, upstream("failed to create checkout session", err)
	}
	return toCheckoutSession(sess), nil
}

func (s *StripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, upstream("failed to get checkout session", err)
	}
	return toCheckoutSession(sess), nil
}

func toCheckoutSession(sess *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            sess.ID,
		URL:           sess.URL,
		Paid:          sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		CustomerEmail: sess.CustomerEmail,
		Metadata:      sess.Metadata,
	}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	if out.CustomerEmail == "" && sess.CustomerDetails != nil {
		out.CustomerEmail = sess.CustomerDetails.Email
	}
	return out
}

func (s *StripeClient) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.AddExpand("latest_charge")
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return nil, upstream("failed to get payment intent", err)
	}

	out := &PaymentIntent{
		ID:             pi.ID,
		Status:         string(pi.Status),
		Amount:         pi.Amount,
		AmountReceived: pi.AmountReceived,
	}
	if pi.LatestCharge != nil {
		out.ChargeID = pi.LatestCharge.ID
		out.Refunded = pi.LatestCharge.Refunded
	}
	return out, nil
}

func (s *StripeClient) CancelPaymentIntent(ctx context.Context, paymentIntentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := s.api.PaymentIntents.Cancel(paymentIntentID, params); err != nil {
		return upstream("failed to cancel payment intent", err)
	}
	return nil
}

func (s *StripeClient) RefundPaymentIntent(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx

	refund, err := s.api.Refunds.New(params)
	if err != nil {
		return "", upstream("failed to refund payment", err)
	}
	return refund.ID, nil
}

func (s *StripeClient) CreateTransfer(ctx context.Context, p TransferParams) (string, error) {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(p.AmountCents),
		Currency:      stripe.String(p.Currency),
		Destination:   stripe.String(p.DestinationAccountID),
		TransferGroup: stripe.String(p.TransferGroup),
	}
	if p.SourceChargeID != "" {
		params.SourceTransaction = stripe.String(p.SourceChargeID)
	}
	// One transfer per order even if two payout calls race.
	params.SetIdempotencyKey("transfer-" + p.TransferGroup)
	params.Context = ctx

	transfer, err := s.api.Transfers.New(params)
	if err != nil {
		return "", upstream("failed to create transfer", err)
	}
	return transfer.ID, nil
}

func (s *StripeClient) CreateConnectAccount(ctx context.Context, email string) (string, error) {
	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			Transfers: &stripe.AccountCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
	}
	params.Context = ctx

	acct, err := s.api.Accounts.New(params)
	if err != nil {
		return "", upstream("failed to create connect account", err)
	}
	return acct.ID, nil
}

func (s *StripeClient) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := s.api.AccountLinks.New(params)
	if err != nil {
		return "", upstream("failed to create onboarding link", err)
	}
	return link.URL, nil
}

func (s *StripeClient) GetConnectAccount(ctx context.Context, accountID string) (*ConnectAccount, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := s.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, upstream("failed to get connect account", err)
	}
	return &ConnectAccount{
		ID:               acct.ID,
		DetailsSubmitted: acct.DetailsSubmitted,
		PayoutsEnabled:   acct.PayoutsEnabled,
	}, nil
}
