package services

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"song-request-backend/internal/discord"
	"song-request-backend/internal/email"
	"song-request-backend/internal/models"
)

// OrderStore is the song_requests / purchases side of the database client.
type OrderStore interface {
	CreateSongRequest(ctx context.Context, o *models.SongRequest) error
	SetStripeSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
	GetSongRequest(ctx context.Context, orderID uuid.UUID) (*models.SongRequest, error)
	ListSongRequestsByUser(ctx context.Context, userID uuid.UUID) ([]models.SongRequest, error)
	ListSongRequestsByProducer(ctx context.Context, producerID uuid.UUID) ([]models.SongRequest, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, paymentIntentID string, feeCents, payoutCents int64) (bool, error)
	AcceptSongRequest(ctx context.Context, orderID, producerID uuid.UUID) (*models.SongRequest, error)
	DeclineSongRequest(ctx context.Context, orderID, producerID uuid.UUID) (bool, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, from []string, to string) (*models.SongRequest, error)
	CompleteSongRequest(ctx context.Context, orderID, producerID uuid.UUID, deliveryLink string) (*models.SongRequest, error)
	ListExpiredAwaiting(ctx context.Context, statuses []string, now time.Time) ([]models.SongRequest, error)
	MarkRefunded(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error)
	RecordPayout(ctx context.Context, p models.PayoutRecord) (bool, error)
	SetDriveFolderURL(ctx context.Context, orderID uuid.UUID, folderURL string) error
	GetPurchaseBySession(ctx context.Context, sessionID string) (*models.Purchase, error)
	CreatePurchase(ctx context.Context, p *models.Purchase) error
}

type ProducerStore interface {
	GetProducer(ctx context.Context, id uuid.UUID) (*models.Producer, error)
	GetProducerBySlug(ctx context.Context, slug string) (*models.Producer, error)
	GetProducerByUserID(ctx context.Context, userID uuid.UUID) (*models.Producer, error)
	GetProducerByDiscordID(ctx context.Context, discordUserID string) (*models.Producer, error)
	ListProducers(ctx context.Context) ([]models.Producer, error)
	CreateProducer(ctx context.Context, p *models.Producer) error
	UpdateProducerProfile(ctx context.Context, producerID uuid.UUID, req models.UpdateProducerProfileRequest) (*models.Producer, error)
	SetStripeAccount(ctx context.Context, producerID uuid.UUID, accountID string) error
	MarkStripeOnboarded(ctx context.Context, producerID uuid.UUID, at time.Time) error
	CreateApplication(ctx context.Context, a *models.ProducerApplication) error
	ListApplications(ctx context.Context, status string) ([]models.ProducerApplication, error)
	DecideApplication(ctx context.Context, id uuid.UUID, status string) (*models.ProducerApplication, error)
	GrantRole(ctx context.Context, userID uuid.UUID, role string) error
}

type RevisionStore interface {
	CreateRevisions(ctx context.Context, orderID uuid.UUID, count int) error
	ListRevisions(ctx context.Context, orderID uuid.UUID) ([]models.Revision, error)
	GetRevision(ctx context.Context, revisionID uuid.UUID) (*models.Revision, error)
	DeliverRevision(ctx context.Context, revisionID uuid.UUID, deliveryLink, notes, meetingLink string) (*models.Revision, error)
	RequestRevision(ctx context.Context, revisionID uuid.UUID, notes string) (*models.Revision, error)
	CreateRevisionMessage(ctx context.Context, m *models.RevisionMessage) error
	ListRevisionMessages(ctx context.Context, revisionID uuid.UUID) ([]models.RevisionMessage, error)
}

// Mailer is implemented by *email.Mailer.
type Mailer interface {
	ProducerAssigned(ctx context.Context, to string, d email.ProducerAssigned) error
	InternalFiles(ctx context.Context, d email.InternalFiles) error
	NewRequest(ctx context.Context, to string, d email.NewRequest) error
	Refund(ctx context.Context, to string, d email.Refund) error
	RevisionDelivered(ctx context.Context, to string, d email.RevisionDelivered) error
	RevisionRequested(ctx context.Context, to string, d email.RevisionRequested) error
	FinalDelivery(ctx context.Context, to string, d email.FinalDelivery) error
}

// Chat is implemented by *discord.Client.
type Chat interface {
	PostAssignment(ctx context.Context, a discord.Assignment) error
	EditOriginal(ctx context.Context, i *discordgo.Interaction, content string) error
}

// Dispatcher runs work after the caller has answered. *tasks.Runner
// implements it.
type Dispatcher interface {
	Go(name string, fn func(ctx context.Context) error)
}

// Clock is swapped in tests.
type Clock func() time.Time
