package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/email"
	"song-request-backend/internal/models"
)

type RevisionService struct {
	rt        *Runtime
	orders    OrderStore
	producers ProducerStore
	revisions RevisionStore
	mailer    Mailer
	access    access
}

func NewRevisionService(rt *Runtime, orders OrderStore, producers ProducerStore, revisions RevisionStore, mailer Mailer, roles RoleSource) *RevisionService {
	return &RevisionService{
		rt:        rt,
		orders:    orders,
		producers: producers,
		revisions: revisions,
		mailer:    mailer,
		access:    access{producers: producers, roles: roles},
	}
}

func (s *RevisionService) List(ctx context.Context, caller Caller, orderID uuid.UUID) ([]models.Revision, error) {
	order, err := s.orders.GetSongRequest(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.party(ctx, caller, order); err != nil {
		return nil, err
	}
	return s.revisions.ListRevisions(ctx, orderID)
}

// load returns a revision with its order.
func (s *RevisionService) load(ctx context.Context, revisionID uuid.UUID) (*models.Revision, *models.SongRequest, error) {
	rev, err := s.revisions.GetRevision(ctx, revisionID)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.orders.GetSongRequest(ctx, rev.SongRequestID)
	if err != nil {
		return nil, nil, err
	}
	return rev, order, nil
}

// Request lets the customer ask for a pending revision with notes.
func (s *RevisionService) Request(ctx context.Context, caller Caller, revisionID uuid.UUID, notes string) (*models.Revision, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, fmt.Errorf("notes are required: %w", apperr.ErrValidation)
	}
	_, order, err := s.load(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	if order.UserID != caller.UserID {
		return nil, fmt.Errorf("revision %s: %w", revisionID, apperr.ErrForbidden)
	}

	rev, err := s.revisions.RequestRevision(ctx, revisionID, notes)
	if err != nil {
		return nil, err
	}

	if order.AssignedProducerID.Valid {
		producerID := order.AssignedProducerID.UUID
		s.rt.Tasks.Go("email revision requested", func(ctx context.Context) error {
			producer, err := s.producers.GetProducer(ctx, producerID)
			if err != nil {
				return err
			}
			return s.mailer.RevisionRequested(ctx, producer.Email, email.RevisionRequested{
				OrderID:        order.ID.String(),
				ProducerName:   producer.DisplayName,
				RevisionNumber: rev.RevisionNumber,
				Notes:          notes,
			})
		})
	}
	return rev, nil
}

// Deliver records the assigned producer's link for a revision.
func (s *RevisionService) Deliver(ctx context.Context, caller Caller, revisionID uuid.UUID, req models.DeliverRevisionRequest) (*models.Revision, error) {
	if err := validLink("delivery_link", req.DeliveryLink); err != nil {
		return nil, err
	}
	if req.MeetingLink != "" {
		if err := validLink("meeting_link", req.MeetingLink); err != nil {
			return nil, err
		}
	}
	_, order, err := s.load(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.assignedProducer(ctx, caller, order); err != nil {
		return nil, err
	}

	rev, err := s.revisions.DeliverRevision(ctx, revisionID, req.DeliveryLink, req.Notes, req.MeetingLink)
	if err != nil {
		return nil, err
	}

	s.rt.Tasks.Go("email revision delivered", func(ctx context.Context) error {
		return s.mailer.RevisionDelivered(ctx, order.CustomerEmail, email.RevisionDelivered{
			OrderID:        order.ID.String(),
			CustomerName:   customerName(order),
			RevisionNumber: rev.RevisionNumber,
			DeliveryLink:   req.DeliveryLink,
			Notes:          req.Notes,
			MeetingLink:    req.MeetingLink,
		})
	})
	return rev, nil
}

func (s *RevisionService) PostMessage(ctx context.Context, caller Caller, revisionID uuid.UUID, body string) (*models.RevisionMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("message body is required: %w", apperr.ErrValidation)
	}
	_, order, err := s.load(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	party, err := s.access.party(ctx, caller, order)
	if err != nil {
		return nil, err
	}

	msg := &models.RevisionMessage{
		RevisionID: revisionID,
		SenderID:   caller.UserID,
		SenderRole: party,
		Body:       body,
	}
	if err := s.revisions.CreateRevisionMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *RevisionService) Messages(ctx context.Context, caller Caller, revisionID uuid.UUID) ([]models.RevisionMessage, error) {
	_, order, err := s.load(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.party(ctx, caller, order); err != nil {
		return nil, err
	}
	return s.revisions.ListRevisionMessages(ctx, revisionID)
}
