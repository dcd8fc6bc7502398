package models

type CheckoutRequest struct {
	Tier          string   `json:"tier" example:"premium"`
	SongIdea      string   `json:"song_idea"`
	Genre         string   `json:"genre,omitempty" example:"hip_hop"`
	CustomerName  string   `json:"customer_name,omitempty"`
	UploadedFiles []string `json:"uploaded_files,omitempty"`
	// TotalPrice is in major currency units, e.g. 200.00.
	TotalPrice    float64 `json:"total_price" example:"200.00"`
	AddOns        AddOns  `json:"add_ons"`
	RevisionCount int     `json:"revision_count"`
}

type VerifyPaymentRequest struct {
	SessionID string `json:"session_id"`
}

type DeliverRevisionRequest struct {
	DeliveryLink string `json:"delivery_link"`
	Notes        string `json:"notes,omitempty"`
	MeetingLink  string `json:"meeting_link,omitempty"`
}

type RequestRevisionRequest struct {
	Notes string `json:"notes"`
}

type RevisionMessageRequest struct {
	Body string `json:"body"`
}

type FinalDeliveryRequest struct {
	DeliveryLink string `json:"delivery_link"`
}

type UpdateProducerProfileRequest struct {
	DisplayName   *string                `json:"display_name,omitempty"`
	Bio           *string                `json:"bio,omitempty"`
	Genres        *string                `json:"genres,omitempty"`
	AvatarURL     *string                `json:"avatar_url,omitempty"`
	BannerURL     *string                `json:"banner_url,omitempty"`
	DiscordUserID *string                `json:"discord_user_id,omitempty"`
	SocialLinks   map[string]interface{} `json:"social_links,omitempty"`
}

type ProducerApplicationRequest struct {
	DisplayName  string `json:"display_name"`
	Genres       string `json:"genres"`
	PortfolioURL string `json:"portfolio_url,omitempty"`
}

type DriveCallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state,omitempty"`
}

type DriveUploadSessionRequest struct {
	// FolderID reuses the folder created by an earlier upload session.
	FolderID string `json:"folder_id,omitempty"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

type DriveFinalizeRequest struct {
	FolderURL string `json:"folder_url"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
