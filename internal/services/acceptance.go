package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/discord"
	"song-request-backend/internal/email"
	"song-request-backend/internal/events"
	"song-request-backend/internal/models"
)

// Click outcomes.
const (
	OutcomeAccepted     = "accepted"
	OutcomeAlreadyTaken = "already_taken"
	OutcomeUnregistered = "unregistered"
	OutcomeDeclined     = "declined"
	OutcomeDeclineNoop  = "decline_noop"
)

// ButtonClick is an accept/decline press on an assignment offer.
type ButtonClick struct {
	Action        string
	OrderID       uuid.UUID
	DiscordUserID string
	Interaction   *discordgo.Interaction
}

type AcceptanceService struct {
	rt        *Runtime
	orders    OrderStore
	producers ProducerStore
	chat      Chat
	mailer    Mailer
	assigner  *AssignmentNotifier
}

func NewAcceptanceService(rt *Runtime, orders OrderStore, producers ProducerStore, chat Chat, mailer Mailer, assigner *AssignmentNotifier) *AcceptanceService {
	return &AcceptanceService{rt: rt, orders: orders, producers: producers, chat: chat, mailer: mailer, assigner: assigner}
}

// Dispatch handles the click after the interaction was acknowledged.
func (s *AcceptanceService) Dispatch(click ButtonClick) {
	s.rt.Tasks.Go(click.Action+" "+click.OrderID.String(), func(ctx context.Context) error {
		_, err := s.HandleClick(ctx, click)
		return err
	})
}

func (s *AcceptanceService) HandleClick(ctx context.Context, click ButtonClick) (string, error) {
	logger := s.rt.Logger.With(
		zap.String("order_id", click.OrderID.String()),
		zap.String("discord_user_id", click.DiscordUserID),
		zap.String("action", click.Action))

	producer, err := s.producers.GetProducerByDiscordID(ctx, click.DiscordUserID)
	if errors.Is(err, apperr.ErrNotFound) {
		s.edit(ctx, logger, click, "Your Discord account is not linked to a producer profile. Link it in your dashboard and try again.")
		return OutcomeUnregistered, nil
	}
	if err != nil {
		return "", err
	}

	switch click.Action {
	case discord.ActionAccept:
		return s.accept(ctx, logger, click, producer)
	case discord.ActionDecline:
		return s.decline(ctx, logger, click, producer)
	default:
		return "", fmt.Errorf("unknown action %q: %w", click.Action, apperr.ErrValidation)
	}
}

func (s *AcceptanceService) accept(ctx context.Context, logger *zap.Logger, click ButtonClick, producer *models.Producer) (string, error) {
	order, err := s.orders.AcceptSongRequest(ctx, click.OrderID, producer.ID)
	if errors.Is(err, apperr.ErrConflict) {
		logger.Info("accept lost the race")
		s.edit(ctx, logger, click, "This song request has already been accepted by another producer.")
		return OutcomeAlreadyTaken, nil
	}
	if err != nil {
		return "", err
	}

	logger.Info("song request accepted", zap.String("producer_id", producer.ID.String()))
	s.edit(ctx, logger, click, fmt.Sprintf("Accepted by **%s**. Check your dashboard for the brief and files.", producer.DisplayName))
	s.rt.publish(events.OrderAccepted, order)

	// Independent sends: a failure in one must not cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		return s.mailer.ProducerAssigned(ctx, order.CustomerEmail, email.ProducerAssigned{
			OrderID:      order.ID.String(),
			CustomerName: customerName(order),
			ProducerName: producer.DisplayName,
			SongIdea:     order.SongIdea,
			OrderURL:     s.rt.orderURL(order.ID),
		})
	})
	g.Go(func() error {
		return s.mailer.InternalFiles(ctx, email.InternalFiles{
			OrderID:       order.ID.String(),
			ProducerName:  producer.DisplayName,
			ProducerEmail: producer.Email,
			Tier:          order.Tier,
			Genre:         order.Genre.String,
			SongIdea:      order.SongIdea,
			Files:         order.UploadedFiles,
		})
	})
	if err := g.Wait(); err != nil {
		logger.Warn("acceptance notification failed", zap.Error(err))
	}
	return OutcomeAccepted, nil
}

func (s *AcceptanceService) decline(ctx context.Context, logger *zap.Logger, click ButtonClick, producer *models.Producer) (string, error) {
	reopened, err := s.orders.DeclineSongRequest(ctx, click.OrderID, producer.ID)
	if err != nil {
		return "", err
	}
	if !reopened {
		s.edit(ctx, logger, click, fmt.Sprintf("%s passed on this request.", producer.DisplayName))
		return OutcomeDeclineNoop, nil
	}

	logger.Info("song request declined", zap.String("producer_id", producer.ID.String()))
	s.edit(ctx, logger, click, fmt.Sprintf("%s declined. Looking for another producer.", producer.DisplayName))
	s.rt.publish(events.OrderDeclined, &models.SongRequest{ID: click.OrderID, Status: models.StatusPaid})
	s.assigner.Dispatch(click.OrderID, []uuid.UUID{producer.ID})
	return OutcomeDeclined, nil
}

func (s *AcceptanceService) edit(ctx context.Context, logger *zap.Logger, click ButtonClick, content string) {
	if s.chat == nil || click.Interaction == nil {
		return
	}
	if err := s.chat.EditOriginal(ctx, click.Interaction, content); err != nil {
		logger.Warn("failed to edit interaction message", zap.Error(err))
	}
}
