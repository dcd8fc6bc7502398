package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/models"
	"song-request-backend/internal/payments"
)

const roleProducer = "producer"

// ProducerService covers producer profiles, applications and Stripe Connect
// onboarding.
type ProducerService struct {
	rt        *Runtime
	producers ProducerStore
	processor payments.Processor
}

func NewProducerService(rt *Runtime, producers ProducerStore, processor payments.Processor) *ProducerService {
	return &ProducerService{rt: rt, producers: producers, processor: processor}
}

func (s *ProducerService) List(ctx context.Context) ([]models.Producer, error) {
	return s.producers.ListProducers(ctx)
}

func (s *ProducerService) GetBySlug(ctx context.Context, slug string) (*models.Producer, error) {
	return s.producers.GetProducerBySlug(ctx, slug)
}

func (s *ProducerService) mine(ctx context.Context, caller Caller) (*models.Producer, error) {
	p, err := s.producers.GetProducerByUserID(ctx, caller.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("not a producer: %w", apperr.ErrForbidden)
	}
	return p, err
}

func (s *ProducerService) Me(ctx context.Context, caller Caller) (*models.Producer, error) {
	return s.mine(ctx, caller)
}

func (s *ProducerService) UpdateProfile(ctx context.Context, caller Caller, req models.UpdateProducerProfileRequest) (*models.Producer, error) {
	if req.DisplayName != nil && strings.TrimSpace(*req.DisplayName) == "" {
		return nil, fmt.Errorf("display_name cannot be empty: %w", apperr.ErrValidation)
	}
	for field, link := range map[string]*string{"avatar_url": req.AvatarURL, "banner_url": req.BannerURL} {
		if link != nil && *link != "" {
			if err := validLink(field, *link); err != nil {
				return nil, err
			}
		}
	}
	p, err := s.mine(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.producers.UpdateProducerProfile(ctx, p.ID, req)
}

func (s *ProducerService) Apply(ctx context.Context, caller Caller, req models.ProducerApplicationRequest) (*models.ProducerApplication, error) {
	if strings.TrimSpace(req.DisplayName) == "" {
		return nil, fmt.Errorf("display_name is required: %w", apperr.ErrValidation)
	}
	if req.PortfolioURL != "" {
		if err := validLink("portfolio_url", req.PortfolioURL); err != nil {
			return nil, err
		}
	}
	app := &models.ProducerApplication{
		UserID:       caller.UserID,
		Email:        caller.Email,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Genres:       req.Genres,
		PortfolioURL: sql.NullString{String: req.PortfolioURL, Valid: req.PortfolioURL != ""},
		Status:       models.ApplicationPending,
	}
	if err := s.producers.CreateApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *ProducerService) Applications(ctx context.Context, status string) ([]models.ProducerApplication, error) {
	return s.producers.ListApplications(ctx, status)
}

// Decide approves or rejects a pending application. Approval creates the
// producer and grants the producer role.
func (s *ProducerService) Decide(ctx context.Context, applicationID uuid.UUID, approve bool) (*models.ProducerApplication, error) {
	status := models.ApplicationRejected
	if approve {
		status = models.ApplicationApproved
	}
	app, err := s.producers.DecideApplication(ctx, applicationID, status)
	if err != nil {
		return nil, err
	}
	if !approve {
		return app, nil
	}

	producer := &models.Producer{
		UserID:      app.UserID,
		Slug:        Slugify(app.DisplayName) + "-" + app.ID.String()[:6],
		DisplayName: app.DisplayName,
		Email:       app.Email,
		Genres:      app.Genres,
	}
	if err := s.producers.CreateProducer(ctx, producer); err != nil {
		return nil, err
	}
	if err := s.producers.GrantRole(ctx, app.UserID, roleProducer); err != nil {
		return nil, err
	}

	s.rt.Logger.Info("producer application approved",
		zap.String("application_id", app.ID.String()),
		zap.String("producer_id", producer.ID.String()))
	return app, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(name string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		return "producer"
	}
	return slug
}

// Connect creates the producer's Express account on first use and returns a
// fresh onboarding link.
func (s *ProducerService) Connect(ctx context.Context, caller Caller) (*models.ConnectResponse, error) {
	p, err := s.mine(ctx, caller)
	if err != nil {
		return nil, err
	}

	accountID := p.StripeAccountID.String
	if !p.StripeAccountID.Valid || accountID == "" {
		accountID, err = s.processor.CreateConnectAccount(ctx, p.Email)
		if err != nil {
			return nil, err
		}
		if err := s.producers.SetStripeAccount(ctx, p.ID, accountID); err != nil {
			return nil, err
		}
	}

	base := s.rt.Settings.FrontendURL + "/producer/payouts"
	link, err := s.processor.CreateOnboardingLink(ctx, accountID, base+"?refresh=1", base+"?onboarded=1")
	if err != nil {
		return nil, err
	}
	return &models.ConnectResponse{AccountID: accountID, OnboardingURL: link, Onboarded: p.StripeOnboardedAt.Valid}, nil
}

// ConnectStatus checks the account with Stripe and stamps
// stripe_onboarded_at the first time payouts are enabled.
func (s *ProducerService) ConnectStatus(ctx context.Context, caller Caller) (*models.ConnectResponse, error) {
	p, err := s.mine(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !p.StripeAccountID.Valid || p.StripeAccountID.String == "" {
		return &models.ConnectResponse{}, nil
	}

	acct, err := s.processor.GetConnectAccount(ctx, p.StripeAccountID.String)
	if err != nil {
		return nil, err
	}
	ready := acct.DetailsSubmitted && acct.PayoutsEnabled
	if ready && !p.StripeOnboardedAt.Valid {
		if err := s.producers.MarkStripeOnboarded(ctx, p.ID, s.rt.now()); err != nil {
			return nil, err
		}
	}
	return &models.ConnectResponse{AccountID: acct.ID, Onboarded: ready}, nil
}
