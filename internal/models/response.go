package models

import (
	"encoding/json"
	"time"
)

type CheckoutResponse struct {
	OrderID             string    `json:"order_id"`
	SessionID           string    `json:"session_id"`
	CheckoutURL         string    `json:"checkout_url"`
	PriceCents          int64     `json:"price_cents"`
	PlatformFeeCents    int64     `json:"platform_fee_cents"`
	ProducerPayoutCents int64     `json:"producer_payout_cents"`
	AcceptanceDeadline  time.Time `json:"acceptance_deadline"`
}

type VerifyPaymentResponse struct {
	OrderID          string `json:"order_id"`
	Status           string `json:"status"`
	AlreadyProcessed bool   `json:"already_processed"`
}

type OrderResponse struct {
	ID                  string          `json:"order_id"`
	Status              string          `json:"status"`
	StatusLabel         string          `json:"status_label,omitempty"`
	Tier                string          `json:"tier"`
	SongIdea            string          `json:"song_idea"`
	Genre               string          `json:"genre,omitempty"`
	PriceCents          int64           `json:"price_cents"`
	PlatformFeeCents    int64           `json:"platform_fee_cents"`
	ProducerPayoutCents int64           `json:"producer_payout_cents"`
	AddOns              AddOns          `json:"add_ons"`
	RevisionCount       int             `json:"revision_count"`
	AssignedProducerID  string          `json:"assigned_producer_id,omitempty"`
	UploadedFiles       []string        `json:"uploaded_files"`
	Checklist           json.RawMessage `json:"checklist,omitempty"`
	FinalDeliveryLink   string          `json:"final_delivery_link,omitempty"`
	DriveFolderURL      string          `json:"drive_folder_url,omitempty"`
	AcceptanceDeadline  *time.Time      `json:"acceptance_deadline,omitempty"`
	RefundedAt          *time.Time      `json:"refunded_at,omitempty"`
	ProducerPaidAt      *time.Time      `json:"producer_paid_at,omitempty"`
	PayoutMethod        string          `json:"payout_method,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
}

type ProducerResponse struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	DisplayName string          `json:"display_name"`
	Bio         string          `json:"bio,omitempty"`
	Genres      string          `json:"genres"`
	AvatarURL   string          `json:"avatar_url,omitempty"`
	BannerURL   string          `json:"banner_url,omitempty"`
	SocialLinks json.RawMessage `json:"social_links,omitempty"`
	PayoutReady bool            `json:"payout_ready"`
}

type RevisionResponse struct {
	ID             string     `json:"id"`
	OrderID        string     `json:"order_id"`
	RevisionNumber int        `json:"revision_number"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes,omitempty"`
	DeliveryLink   string     `json:"delivery_link,omitempty"`
	MeetingLink    string     `json:"meeting_link,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type RevisionMessageResponse struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	SenderRole string    `json:"sender_role"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type PayoutResponse struct {
	OrderID             string    `json:"order_id"`
	Method              string    `json:"payout_method"`
	TransferID          string    `json:"transfer_id,omitempty"`
	PlatformFeeCents    int64     `json:"platform_fee_cents"`
	ProducerPayoutCents int64     `json:"producer_payout_cents"`
	PaidAt              time.Time `json:"producer_paid_at"`
}

type SweepResponse struct {
	Checked  int      `json:"checked"`
	Refunded []string `json:"refunded"`
	Errors   []string `json:"errors"`
}

type ConnectResponse struct {
	AccountID     string `json:"account_id"`
	OnboardingURL string `json:"onboarding_url,omitempty"`
	Onboarded     bool   `json:"onboarded"`
}

type DriveAuthURLResponse struct {
	URL string `json:"url"`
}

type DriveUploadSessionResponse struct {
	UploadURL string `json:"upload_url"`
	FolderID  string `json:"folder_id"`
	FolderURL string `json:"folder_url"`
}

type UploadResponse struct {
	Files  []FileInfo `json:"files"`
	Errors []string   `json:"errors,omitempty"`
}

type FileInfo struct {
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	StorageURL string `json:"storage_url"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// NewOrderResponse flattens the nullable columns of a song request for JSON.
func NewOrderResponse(o *SongRequest) OrderResponse {
	resp := OrderResponse{
		ID:                  o.ID.String(),
		Status:              o.Status,
		Tier:                o.Tier,
		SongIdea:            o.SongIdea,
		PriceCents:          o.PriceCents,
		PlatformFeeCents:    o.PlatformFeeCents,
		ProducerPayoutCents: o.ProducerPayoutCents,
		AddOns:              o.AddOns,
		RevisionCount:       o.RevisionCount,
		UploadedFiles:       o.UploadedFiles,
		Checklist:           o.Checklist,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	if resp.UploadedFiles == nil {
		resp.UploadedFiles = []string{}
	}
	if info, ok := LookupStatus(o.Status); ok {
		resp.StatusLabel = info.Label
	}
	if o.Genre.Valid {
		resp.Genre = o.Genre.String
	}
	if o.AssignedProducerID.Valid {
		resp.AssignedProducerID = o.AssignedProducerID.UUID.String()
	}
	if o.FinalDeliveryLink.Valid {
		resp.FinalDeliveryLink = o.FinalDeliveryLink.String
	}
	if o.DriveFolderURL.Valid {
		resp.DriveFolderURL = o.DriveFolderURL.String
	}
	if o.PayoutMethod.Valid {
		resp.PayoutMethod = o.PayoutMethod.String
	}
	if o.AcceptanceDeadline.Valid {
		resp.AcceptanceDeadline = &o.AcceptanceDeadline.Time
	}
	if o.RefundedAt.Valid {
		resp.RefundedAt = &o.RefundedAt.Time
	}
	if o.ProducerPaidAt.Valid {
		resp.ProducerPaidAt = &o.ProducerPaidAt.Time
	}
	return resp
}

func NewProducerResponse(p *Producer) ProducerResponse {
	resp := ProducerResponse{
		ID:          p.ID.String(),
		Slug:        p.Slug,
		DisplayName: p.DisplayName,
		Genres:      p.Genres,
		SocialLinks: p.SocialLinks,
		PayoutReady: p.CanReceiveTransfers(),
	}
	if p.Bio.Valid {
		resp.Bio = p.Bio.String
	}
	if p.AvatarURL.Valid {
		resp.AvatarURL = p.AvatarURL.String
	}
	if p.BannerURL.Valid {
		resp.BannerURL = p.BannerURL.String
	}
	return resp
}

func NewRevisionResponse(r *Revision) RevisionResponse {
	resp := RevisionResponse{
		ID:             r.ID.String(),
		OrderID:        r.SongRequestID.String(),
		RevisionNumber: r.RevisionNumber,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
	}
	if r.Notes.Valid {
		resp.Notes = r.Notes.String
	}
	if r.DeliveryLink.Valid {
		resp.DeliveryLink = r.DeliveryLink.String
	}
	if r.MeetingLink.Valid {
		resp.MeetingLink = r.MeetingLink.String
	}
	if r.DeliveredAt.Valid {
		resp.DeliveredAt = &r.DeliveredAt.Time
	}
	return resp
}

func NewRevisionMessageResponse(m *RevisionMessage) RevisionMessageResponse {
	return RevisionMessageResponse{
		ID:         m.ID.String(),
		SenderID:   m.SenderID.String(),
		SenderRole: m.SenderRole,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
	}
}

type ApplicationResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Genres       string    `json:"genres"`
	PortfolioURL string    `json:"portfolio_url,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewApplicationResponse(a *ProducerApplication) ApplicationResponse {
	return ApplicationResponse{
		ID:           a.ID.String(),
		UserID:       a.UserID.String(),
		Email:        a.Email,
		DisplayName:  a.DisplayName,
		Genres:       a.Genres,
		PortfolioURL: a.PortfolioURL.String,
		Status:       a.Status,
		CreatedAt:    a.CreatedAt,
	}
}

type DecideApplicationRequest struct {
	Approve bool `json:"approve"`
}

type NotifyResponse struct {
	OrderID    string `json:"order_id"`
	ProducerID string `json:"producer_id,omitempty"`
}
