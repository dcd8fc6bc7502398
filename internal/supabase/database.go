package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/models"
)

const uniqueViolation = "23505"

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// NewDatabaseClientFromDB wraps an already opened handle.
func NewDatabaseClientFromDB(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{db: db}
}

func (d *DatabaseClient) DB() *sql.DB {
	return d.db
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

const songRequestColumns = `id, user_id, customer_email, customer_name, song_idea, tier, genre, price_cents, status,
	payment_intent_id, stripe_session_id, platform_fee_cents, producer_payout_cents,
	acceptance_deadline, refunded_at, producer_paid_at, payout_method, stripe_transfer_id,
	add_stems, add_analog, add_mixing, add_mastering, revision_count, assigned_producer_id,
	uploaded_files, checklist, final_delivery_link, drive_folder_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSongRequest(row rowScanner) (*models.SongRequest, error) {
	var o models.SongRequest
	err := row.Scan(
		&o.ID, &o.UserID, &o.CustomerEmail, &o.CustomerName, &o.SongIdea, &o.Tier, &o.Genre,
		&o.PriceCents, &o.Status, &o.PaymentIntentID, &o.StripeSessionID, &o.PlatformFeeCents,
		&o.ProducerPayoutCents, &o.AcceptanceDeadline, &o.RefundedAt, &o.ProducerPaidAt,
		&o.PayoutMethod, &o.StripeTransferID, &o.AddOns.Stems, &o.AddOns.Analog, &o.AddOns.Mixing,
		&o.AddOns.Mastering, &o.RevisionCount, &o.AssignedProducerID, pq.Array(&o.UploadedFiles),
		&o.Checklist, &o.FinalDeliveryLink, &o.DriveFolderURL, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (d *DatabaseClient) querySongRequests(ctx context.Context, query string, args ...any) ([]models.SongRequest, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list song requests: %w", err)
	}
	defer rows.Close()

	var orders []models.SongRequest
	for rows.Next() {
		o, err := scanSongRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song request: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// notFound maps sql.ErrNoRows onto apperr.ErrNotFound and wraps everything else.
func notFound(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (d *DatabaseClient) CreateSongRequest(ctx context.Context, o *models.SongRequest) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	checklist := []byte(o.Checklist)
	if len(checklist) == 0 {
		checklist = []byte("{}")
	}
	uploaded := o.UploadedFiles
	if uploaded == nil {
		uploaded = []string{}
	}

	err := d.db.QueryRowContext(ctx, `
		INSERT INTO song_requests (id, user_id, customer_email, customer_name, song_idea, tier, genre,
			price_cents, status, platform_fee_cents, producer_payout_cents, acceptance_deadline,
			add_stems, add_analog, add_mixing, add_mastering, revision_count, uploaded_files, checklist)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING created_at, updated_at
	`, o.ID, o.UserID, o.CustomerEmail, o.CustomerName, o.SongIdea, o.Tier, o.Genre,
		o.PriceCents, o.Status, o.PlatformFeeCents, o.ProducerPayoutCents, o.AcceptanceDeadline,
		o.AddOns.Stems, o.AddOns.Analog, o.AddOns.Mixing, o.AddOns.Mastering, o.RevisionCount,
		pq.Array(uploaded), checklist,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create song request: %w", err)
	}
	return nil
}

func (d *DatabaseClient) SetStripeSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE song_requests
		SET stripe_session_id = $1
		WHERE id = $2
	`, sessionID, orderID)
	if err != nil {
		return fmt.Errorf("failed to store checkout session: %w", err)
	}
	return nil
}

func (d *DatabaseClient) GetSongRequest(ctx context.Context, orderID uuid.UUID) (*models.SongRequest, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+songRequestColumns+` FROM song_requests WHERE id = $1`, orderID)
	o, err := scanSongRequest(row)
	if err != nil {
		return nil, notFound("song request", err)
	}
	return o, nil
}

func (d *DatabaseClient) ListSongRequestsByUser(ctx context.Context, userID uuid.UUID) ([]models.SongRequest, error) {
	return d.querySongRequests(ctx, `
		SELECT `+songRequestColumns+`
		FROM song_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
}

func (d *DatabaseClient) ListSongRequestsByProducer(ctx context.Context, producerID uuid.UUID) ([]models.SongRequest, error) {
	return d.querySongRequests(ctx, `
		SELECT `+songRequestColumns+`
		FROM song_requests
		WHERE assigned_producer_id = $1
		ORDER BY created_at DESC
	`, producerID)
}

// MarkPaid moves an order from pending_payment to paid. It reports false when
// the order was already past pending_payment.
func (d *DatabaseClient) MarkPaid(ctx context.Context, orderID uuid.UUID, paymentIntentID string, feeCents, payoutCents int64) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE song_requests
		SET status = $1, payment_intent_id = $2, platform_fee_cents = $3, producer_payout_cents = $4
		WHERE id = $5 AND status = $6 AND refunded_at IS NULL
	`, models.StatusPaid, paymentIntentID, feeCents, payoutCents, orderID, models.StatusPendingPayment)
	if err != nil {
		return false, fmt.Errorf("failed to mark song request paid: %w", err)
	}
	return affected(res)
}

// AcceptSongRequest assigns producerID if and only if the order is still paid.
// A lost race surfaces as apperr.ErrConflict.
func (d *DatabaseClient) AcceptSongRequest(ctx context.Context, orderID, producerID uuid.UUID) (*models.SongRequest, error) {
	row := d.db.QueryRowContext(ctx, `
		UPDATE song_requests
		SET status = $1, assigned_producer_id = $2
		WHERE id = $3 AND status = $4 AND refunded_at IS NULL
		RETURNING `+songRequestColumns,
		models.StatusAccepted, producerID, orderID, models.StatusPaid)
	o, err := scanSongRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("song request %s is no longer awaiting a producer: %w", orderID, apperr.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to accept song request: %w", err)
	}
	return o, nil
}

// DeclineSongRequest un-assigns producerID and reopens the order.
func (d *DatabaseClient) DeclineSongRequest(ctx context.Context, orderID, producerID uuid.UUID) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE song_requests
		SET status = $1, assigned_producer_id = NULL
		WHERE id = $2 AND status = $3 AND assigned_producer_id = $4 AND refunded_at IS NULL
	`, models.StatusPaid, orderID, models.StatusAccepted, producerID)
	if err != nil {
		return false, fmt.Errorf("failed to decline song request: %w", err)
	}
	return affected(res)
}

// TransitionStatus sets status to `to` when the current status is one of `from`.
func (d *DatabaseClient) TransitionStatus(ctx context.Context, orderID uuid.UUID, from []string, to string) (*models.SongRequest, error) {
	row := d.db.QueryRowContext(ctx, `
		UPDATE song_requests
		SET status = $1
		WHERE id = $2 AND status = ANY($3) AND refunded_at IS NULL
		RETURNING `+songRequestColumns,
		to, orderID, pq.Array(from))
	o, err := scanSongRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("song request %s cannot move to %s: %w", orderID, to, apperr.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update song request status: %w", err)
	}
	return o, nil
}

// CompleteSongRequest records the final delivery link for the assigned producer.
func (d *DatabaseClient) CompleteSongRequest(ctx context.Context, orderID, producerID uuid.UUID, deliveryLink string) (*models.SongRequest, error) {
	row := d.db.QueryRowContext(ctx, `
		UPDATE song_requests
		SET status = $1, final_delivery_link = $2
		WHERE id = $3 AND assigned_producer_id = $4 AND status = ANY($5) AND refunded_at IS NULL
		RETURNING `+songRequestColumns,
		models.StatusCompleted, deliveryLink, orderID, producerID,
		pq.Array([]string{models.StatusAccepted, models.StatusInProgress}))
	o, err := scanSongRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("song request %s cannot be delivered: %w", orderID, apperr.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete song request: %w", err)
	}
	return o, nil
}

func (d *DatabaseClient) ListExpiredAwaiting(ctx context.Context, statuses []string, now time.Time) ([]models.SongRequest, error) {
	return d.querySongRequests(ctx, `
		SELECT `+songRequestColumns+`
		FROM song_requests
		WHERE status = ANY($1) AND acceptance_deadline < $2 AND refunded_at IS NULL
		ORDER BY acceptance_deadline ASC
	`, pq.Array(statuses), now)
}

// MarkRefunded sets refunded_at once; a second call reports false.
func (d *DatabaseClient) MarkRefunded(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE song_requests
		SET status = $1, refunded_at = $2
		WHERE id = $3 AND refunded_at IS NULL
	`, models.StatusRefunded, at, orderID)
	if err != nil {
		return false, fmt.Errorf("failed to mark song request refunded: %w", err)
	}
	return affected(res)
}

// RecordPayout stamps producer_paid_at once; a second call reports false.
func (d *DatabaseClient) RecordPayout(ctx context.Context, p models.PayoutRecord) (bool, error) {
	transferID := sql.NullString{String: p.TransferID, Valid: p.TransferID != ""}
	res, err := d.db.ExecContext(ctx, `
		UPDATE song_requests
		SET producer_paid_at = $1, payout_method = $2, stripe_transfer_id = $3,
			platform_fee_cents = $4, producer_payout_cents = $5
		WHERE id = $6 AND producer_paid_at IS NULL AND status = $7
	`, p.PaidAt, p.Method, transferID, p.PlatformFeeCents, p.ProducerPayoutCents, p.OrderID, models.StatusCompleted)
	if err != nil {
		return false, fmt.Errorf("failed to record payout: %w", err)
	}
	return affected(res)
}

func (d *DatabaseClient) SetDriveFolderURL(ctx context.Context, orderID uuid.UUID, folderURL string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE song_requests
		SET drive_folder_url = $1
		WHERE id = $2
	`, folderURL, orderID)
	if err != nil {
		return fmt.Errorf("failed to store drive folder: %w", err)
	}
	return nil
}

func (d *DatabaseClient) GetPurchaseBySession(ctx context.Context, sessionID string) (*models.Purchase, error) {
	var p models.Purchase
	err := d.db.QueryRowContext(ctx, `
		SELECT id, user_id, song_request_id, stripe_session_id, amount_cents, currency, created_at
		FROM purchases
		WHERE stripe_session_id = $1
	`, sessionID).Scan(&p.ID, &p.UserID, &p.SongRequestID, &p.StripeSessionID, &p.AmountCents, &p.Currency, &p.CreatedAt)
	if err != nil {
		return nil, notFound("purchase", err)
	}
	return &p, nil
}

// CreatePurchase inserts the purchase row. A duplicate session id is reported
// as apperr.ErrConflict.
func (d *DatabaseClient) CreatePurchase(ctx context.Context, p *models.Purchase) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO purchases (id, user_id, song_request_id, stripe_session_id, amount_cents, currency)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, p.ID, p.UserID, p.SongRequestID, p.StripeSessionID, p.AmountCents, p.Currency).Scan(&p.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("purchase for session %s: %w", p.StripeSessionID, apperr.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}
	return nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
