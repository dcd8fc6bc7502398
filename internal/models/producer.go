package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Producer struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Slug              string
	DisplayName       string
	Email             string
	Bio               sql.NullString
	Genres            string
	AvatarURL         sql.NullString
	BannerURL         sql.NullString
	SocialLinks       json.RawMessage
	DiscordUserID     sql.NullString
	StripeAccountID   sql.NullString
	StripeOnboardedAt sql.NullTime
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CanReceiveTransfers reports whether Connect onboarding finished.
func (p *Producer) CanReceiveTransfers() bool {
	return p.StripeAccountID.Valid && p.StripeAccountID.String != "" && p.StripeOnboardedAt.Valid
}

type ProducerApplication struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Email        string
	DisplayName  string
	Genres       string
	PortfolioURL sql.NullString
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

type Revision struct {
	ID             uuid.UUID
	SongRequestID  uuid.UUID
	RevisionNumber int
	Status         string
	Notes          sql.NullString
	DeliveryLink   sql.NullString
	MeetingLink    sql.NullString
	DeliveredAt    sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const (
	RevisionPending   = "pending"
	RevisionRequested = "requested"
	RevisionDelivered = "delivered"
)

type RevisionMessage struct {
	ID         uuid.UUID
	RevisionID uuid.UUID
	SenderID   uuid.UUID
	SenderRole string
	Body       string
	CreatedAt  time.Time
}

type DriveToken struct {
	ProducerID   uuid.UUID
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}
