package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SongRequest is a customer order, stored in song_requests.
type SongRequest struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	CustomerEmail       string
	CustomerName        sql.NullString
	SongIdea            string
	Tier                string
	Genre               sql.NullString
	PriceCents          int64
	Status              string
	PaymentIntentID     sql.NullString
	StripeSessionID     sql.NullString
	PlatformFeeCents    int64
	ProducerPayoutCents int64
	AcceptanceDeadline  sql.NullTime
	RefundedAt          sql.NullTime
	ProducerPaidAt      sql.NullTime
	PayoutMethod        sql.NullString
	StripeTransferID    sql.NullString
	AddOns              AddOns
	RevisionCount       int
	AssignedProducerID  uuid.NullUUID
	UploadedFiles       []string
	Checklist           json.RawMessage
	FinalDeliveryLink   sql.NullString
	DriveFolderURL      sql.NullString
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type AddOns struct {
	Stems     bool `json:"stems"`
	Analog    bool `json:"analog"`
	Mixing    bool `json:"mixing"`
	Mastering bool `json:"mastering"`
}

// Purchase is the record of a completed checkout, keyed by the Stripe session id.
type Purchase struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	SongRequestID   uuid.UUID
	StripeSessionID string
	AmountCents     int64
	Currency        string
	CreatedAt       time.Time
}

// PayoutRecord is what the payout processor writes back onto the order.
type PayoutRecord struct {
	OrderID             uuid.UUID
	Method              string
	TransferID          string
	PlatformFeeCents    int64
	ProducerPayoutCents int64
	PaidAt              time.Time
}

const (
	PayoutMethodStripeConnect = "stripe_connect"
	PayoutMethodManual        = "manual"
)
