package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"song-request-backend/internal/discord"
	"song-request-backend/internal/email"
	"song-request-backend/internal/matching"
	"song-request-backend/internal/models"
)

// AssignmentNotifier offers a paid order to the best matching producer over
// Discord and email.
type AssignmentNotifier struct {
	rt        *Runtime
	orders    OrderStore
	producers ProducerStore
	chat      Chat
	mailer    Mailer

	mu  sync.Mutex
	rng *rand.Rand
}

// NewAssignmentNotifier accepts a nil chat when Discord is not configured.
func NewAssignmentNotifier(rt *Runtime, orders OrderStore, producers ProducerStore, chat Chat, mailer Mailer, rng *rand.Rand) *AssignmentNotifier {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &AssignmentNotifier{rt: rt, orders: orders, producers: producers, chat: chat, mailer: mailer, rng: rng}
}

// Dispatch runs Notify in the background.
func (n *AssignmentNotifier) Dispatch(orderID uuid.UUID, exclude []uuid.UUID) {
	n.rt.Tasks.Go("assign "+orderID.String(), func(ctx context.Context) error {
		_, err := n.Notify(ctx, orderID, exclude)
		return err
	})
}

func (n *AssignmentNotifier) match(genre string, producers []models.Producer, exclude []uuid.UUID) *models.Producer {
	n.mu.Lock()
	defer n.mu.Unlock()
	return matching.Match(genre, producers, exclude, n.rng)
}

// Notify posts the offer and emails the matched producer. It returns the
// matched producer, nil when nobody is eligible. Delivery failures are joined
// into the returned error after both channels were tried.
func (n *AssignmentNotifier) Notify(ctx context.Context, orderID uuid.UUID, exclude []uuid.UUID) (*models.Producer, error) {
	order, err := n.orders.GetSongRequest(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPaid {
		n.rt.Logger.Info("order no longer awaiting a producer", zap.String("order_id", orderID.String()), zap.String("status", order.Status))
		return nil, nil
	}

	producers, err := n.producers.ListProducers(ctx)
	if err != nil {
		return nil, err
	}
	producer := n.match(order.Genre.String, producers, exclude)

	payout := email.FormatCents(order.ProducerPayoutCents, n.rt.Settings.Currency)
	deadline := ""
	if order.AcceptanceDeadline.Valid {
		deadline = order.AcceptanceDeadline.Time.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
	}

	var errs []error
	if n.chat != nil {
		offer := discord.Assignment{
			OrderID:  order.ID,
			Tier:     order.Tier,
			Genre:    order.Genre.String,
			SongIdea: order.SongIdea,
			Payout:   payout,
			Deadline: deadline,
		}
		if producer != nil {
			offer.ProducerName = producer.DisplayName
			if producer.DiscordUserID.Valid {
				offer.ProducerDiscordID = producer.DiscordUserID.String
			}
		}
		if err := n.chat.PostAssignment(ctx, offer); err != nil {
			errs = append(errs, err)
		}
	}

	if producer != nil {
		err := n.mailer.NewRequest(ctx, producer.Email, email.NewRequest{
			OrderID:      order.ID.String(),
			ProducerName: producer.DisplayName,
			Tier:         order.Tier,
			SongIdea:     order.SongIdea,
			Payout:       payout,
			Deadline:     deadline,
		})
		if err != nil {
			errs = append(errs, err)
		}
	}

	fields := []zap.Field{zap.String("order_id", order.ID.String())}
	if producer != nil {
		fields = append(fields, zap.String("producer_id", producer.ID.String()))
	}
	n.rt.Logger.Info("assignment offered", fields...)

	if len(errs) > 0 {
		return producer, fmt.Errorf("assignment notifications for %s: %w", order.ID, errors.Join(errs...))
	}
	return producer, nil
}
