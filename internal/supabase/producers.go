package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/models"
)

const producerColumns = `id, user_id, slug, display_name, email, bio, genres, avatar_url, banner_url,
	social_links, discord_user_id, stripe_account_id, stripe_onboarded_at, created_at, updated_at`

func scanProducer(row rowScanner) (*models.Producer, error) {
	var p models.Producer
	err := row.Scan(
		&p.ID, &p.UserID, &p.Slug, &p.DisplayName, &p.Email, &p.Bio, &p.Genres, &p.AvatarURL,
		&p.BannerURL, &p.SocialLinks, &p.DiscordUserID, &p.StripeAccountID, &p.StripeOnboardedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DatabaseClient) getProducer(ctx context.Context, where string, arg any) (*models.Producer, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+producerColumns+` FROM producers WHERE `+where+` = $1`, arg)
	p, err := scanProducer(row)
	if err != nil {
		return nil, notFound("producer", err)
	}
	return p, nil
}

func (d *DatabaseClient) GetProducer(ctx context.Context, id uuid.UUID) (*models.Producer, error) {
	return d.getProducer(ctx, "id", id)
}

func (d *DatabaseClient) GetProducerBySlug(ctx context.Context, slug string) (*models.Producer, error) {
	return d.getProducer(ctx, "slug", slug)
}

func (d *DatabaseClient) GetProducerByUserID(ctx context.Context, userID uuid.UUID) (*models.Producer, error) {
	return d.getProducer(ctx, "user_id", userID)
}

func (d *DatabaseClient) GetProducerByDiscordID(ctx context.Context, discordUserID string) (*models.Producer, error) {
	return d.getProducer(ctx, "discord_user_id", discordUserID)
}

func (d *DatabaseClient) ListProducers(ctx context.Context) ([]models.Producer, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+producerColumns+` FROM producers ORDER BY display_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list producers: %w", err)
	}
	defer rows.Close()

	var producers []models.Producer
	for rows.Next() {
		p, err := scanProducer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan producer: %w", err)
		}
		producers = append(producers, *p)
	}
	return producers, rows.Err()
}

func (d *DatabaseClient) CreateProducer(ctx context.Context, p *models.Producer) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	social := []byte(p.SocialLinks)
	if len(social) == 0 {
		social = []byte("{}")
	}
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO producers (id, user_id, slug, display_name, email, bio, genres, social_links)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, p.ID, p.UserID, p.Slug, p.DisplayName, p.Email, p.Bio, p.Genres, social).Scan(&p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("producer %s already exists: %w", p.Slug, apperr.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create producer: %w", err)
	}
	return nil
}

// UpdateProducerProfile applies the non-nil fields of req. COALESCE keeps the
// stored value for every field the caller left out.
func (d *DatabaseClient) UpdateProducerProfile(ctx context.Context, producerID uuid.UUID, req models.UpdateProducerProfileRequest) (*models.Producer, error) {
	var social []byte
	if req.SocialLinks != nil {
		var err error
		social, err = json.Marshal(req.SocialLinks)
		if err != nil {
			return nil, fmt.Errorf("invalid social links: %w", apperr.ErrValidation)
		}
	}

	row := d.db.QueryRowContext(ctx, `
		UPDATE producers
		SET display_name = COALESCE($1, display_name),
			bio = COALESCE($2, bio),
			genres = COALESCE($3, genres),
			avatar_url = COALESCE($4, avatar_url),
			banner_url = COALESCE($5, banner_url),
			discord_user_id = COALESCE($6, discord_user_id),
			social_links = COALESCE($7::jsonb, social_links)
		WHERE id = $8
		RETURNING `+producerColumns,
		nullable(req.DisplayName), nullable(req.Bio), nullable(req.Genres), nullable(req.AvatarURL),
		nullable(req.BannerURL), nullable(req.DiscordUserID), nullableBytes(social), producerID)
	p, err := scanProducer(row)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("discord account already linked to another producer: %w", apperr.ErrConflict)
	}
	if err != nil {
		return nil, notFound("producer", err)
	}
	return p, nil
}

func (d *DatabaseClient) SetStripeAccount(ctx context.Context, producerID uuid.UUID, accountID string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE producers
		SET stripe_account_id = $1
		WHERE id = $2
	`, accountID, producerID)
	if err != nil {
		return fmt.Errorf("failed to store stripe account: %w", err)
	}
	return nil
}

func (d *DatabaseClient) MarkStripeOnboarded(ctx context.Context, producerID uuid.UUID, at time.Time) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE producers
		SET stripe_onboarded_at = $1
		WHERE id = $2 AND stripe_onboarded_at IS NULL
	`, at, producerID)
	if err != nil {
		return fmt.Errorf("failed to mark stripe onboarding: %w", err)
	}
	return nil
}

func (d *DatabaseClient) CreateApplication(ctx context.Context, a *models.ProducerApplication) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = models.ApplicationPending
	}
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO producer_applications (id, user_id, email, display_name, genres, portfolio_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, a.ID, a.UserID, a.Email, a.DisplayName, a.Genres, a.PortfolioURL, a.Status).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create producer application: %w", err)
	}
	return nil
}

const applicationColumns = `id, user_id, email, display_name, genres, portfolio_url, status, created_at, updated_at`

func scanApplication(row rowScanner) (*models.ProducerApplication, error) {
	var a models.ProducerApplication
	err := row.Scan(&a.ID, &a.UserID, &a.Email, &a.DisplayName, &a.Genres, &a.PortfolioURL, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (d *DatabaseClient) ListApplications(ctx context.Context, status string) ([]models.ProducerApplication, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+applicationColumns+`
		FROM producer_applications
		WHERE status = $1
		ORDER BY created_at ASC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list producer applications: %w", err)
	}
	defer rows.Close()

	var apps []models.ProducerApplication
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan producer application: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// DecideApplication moves a pending application to status.
func (d *DatabaseClient) DecideApplication(ctx context.Context, id uuid.UUID, status string) (*models.ProducerApplication, error) {
	row := d.db.QueryRowContext(ctx, `
		UPDATE producer_applications
		SET status = $1
		WHERE id = $2 AND status = $3
		RETURNING `+applicationColumns,
		status, id, models.ApplicationPending)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application %s is not pending: %w", id, apperr.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update producer application: %w", err)
	}
	return a, nil
}

func (d *DatabaseClient) GetDriveToken(ctx context.Context, producerID uuid.UUID) (*models.DriveToken, error) {
	var t models.DriveToken
	err := d.db.QueryRowContext(ctx, `
		SELECT producer_id, access_token, refresh_token, expires_at, updated_at
		FROM google_drive_tokens
		WHERE producer_id = $1
	`, producerID).Scan(&t.ProducerID, &t.AccessToken, &t.RefreshToken, &t.ExpiresAt, &t.UpdatedAt)
	if err != nil {
		return nil, notFound("google drive token", err)
	}
	return &t, nil
}

func (d *DatabaseClient) UpsertDriveToken(ctx context.Context, t *models.DriveToken) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO google_drive_tokens (producer_id, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (producer_id) DO UPDATE
		SET access_token = EXCLUDED.access_token,
			refresh_token = CASE WHEN EXCLUDED.refresh_token = '' THEN google_drive_tokens.refresh_token ELSE EXCLUDED.refresh_token END,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`, t.ProducerID, t.AccessToken, t.RefreshToken, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to store google drive token: %w", err)
	}
	return nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

// GrantRole adds role to userID; granting an existing role is a no-op.
func (d *DatabaseClient) GrantRole(ctx context.Context, userID uuid.UUID, role string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING
	`, userID, role)
	if err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}
	return nil
}
