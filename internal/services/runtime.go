package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/events"
	"song-request-backend/internal/models"
)

// Settings are the business knobs read from configuration.
type Settings struct {
	PlatformFeePercent int64
	AcceptanceWindow   time.Duration
	Currency           string
	FrontendURL        string
	SweeperStatuses    []string
}

// Runtime bundles what every service needs besides its stores.
type Runtime struct {
	Logger   *zap.Logger
	Tasks    Dispatcher
	Events   events.Publisher
	Now      Clock
	Settings Settings
}

func (rt *Runtime) now() time.Time {
	if rt.Now != nil {
		return rt.Now()
	}
	return time.Now().UTC()
}

// publish emits a lifecycle event in the background.
func (rt *Runtime) publish(routingKey string, o *models.SongRequest) {
	if rt.Events == nil {
		return
	}
	evt := events.OrderEvent{
		OrderID:    o.ID.String(),
		Status:     o.Status,
		OccurredAt: rt.now(),
	}
	if o.AssignedProducerID.Valid {
		evt.ProducerID = o.AssignedProducerID.UUID.String()
	}
	rt.Tasks.Go("publish "+routingKey, func(ctx context.Context) error {
		return rt.Events.Publish(ctx, routingKey, evt)
	})
}

func (rt *Runtime) orderURL(orderID uuid.UUID) string {
	return rt.Settings.FrontendURL + "/orders/" + orderID.String()
}

// Caller is the authenticated user behind a request.
type Caller struct {
	UserID uuid.UUID
	Email  string
}

type RoleSource interface {
	Roles(ctx context.Context, userID string) ([]string, error)
}

const (
	PartyCustomer = "customer"
	PartyProducer = "producer"
	PartyAdmin    = "admin"
)

// access decides how a caller relates to an order.
type access struct {
	producers ProducerStore
	roles     RoleSource
}

// party returns the caller's relation to o, or apperr.ErrForbidden.
func (a access) party(ctx context.Context, caller Caller, o *models.SongRequest) (string, error) {
	if o.UserID == caller.UserID {
		return PartyCustomer, nil
	}
	if o.AssignedProducerID.Valid {
		p, err := a.producers.GetProducerByUserID(ctx, caller.UserID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return "", err
		}
		if p != nil && p.ID == o.AssignedProducerID.UUID {
			return PartyProducer, nil
		}
	}
	if a.roles != nil {
		roles, err := a.roles.Roles(ctx, caller.UserID.String())
		if err != nil {
			return "", err
		}
		if slices.Contains(roles, PartyAdmin) {
			return PartyAdmin, nil
		}
	}
	return "", fmt.Errorf("order %s: %w", o.ID, apperr.ErrForbidden)
}

// assignedProducer returns the caller's producer row when they are the
// producer assigned to o.
func (a access) assignedProducer(ctx context.Context, caller Caller, o *models.SongRequest) (*models.Producer, error) {
	p, err := a.producers.GetProducerByUserID(ctx, caller.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("not a producer: %w", apperr.ErrForbidden)
	}
	if err != nil {
		return nil, err
	}
	if !o.AssignedProducerID.Valid || o.AssignedProducerID.UUID != p.ID {
		return nil, fmt.Errorf("order %s is not assigned to you: %w", o.ID, apperr.ErrForbidden)
	}
	return p, nil
}

// validLink accepts absolute http(s) URLs only.
func validLink(field, raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be a valid URL: %w", field, apperr.ErrValidation)
	}
	return nil
}

func customerName(o *models.SongRequest) string {
	if o.CustomerName.Valid && o.CustomerName.String != "" {
		return o.CustomerName.String
	}
	return "there"
}
