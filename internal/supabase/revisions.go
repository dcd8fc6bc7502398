package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/models"
)

const revisionColumns = `id, song_request_id, revision_number, status, notes, delivery_link, meeting_link,
	delivered_at, created_at, updated_at`

func scanRevision(row rowScanner) (*models.Revision, error) {
	var r models.Revision
	err := row.Scan(&r.ID, &r.SongRequestID, &r.RevisionNumber, &r.Status, &r.Notes, &r.DeliveryLink,
		&r.MeetingLink, &r.DeliveredAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRevisions inserts revisions 1..count for the order, skipping numbers
// that already exist.
func (d *DatabaseClient) CreateRevisions(ctx context.Context, orderID uuid.UUID, count int) error {
	if count <= 0 {
		return nil
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO revisions (song_request_id, revision_number, status)
		SELECT $1, n, $2 FROM generate_series(1, $3) AS n
		ON CONFLICT (song_request_id, revision_number) DO NOTHING
	`, orderID, models.RevisionPending, count)
	if err != nil {
		return fmt.Errorf("failed to create revisions: %w", err)
	}
	return nil
}

func (d *DatabaseClient) ListRevisions(ctx context.Context, orderID uuid.UUID) ([]models.Revision, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+revisionColumns+`
		FROM revisions
		WHERE song_request_id = $1
		ORDER BY revision_number ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	defer rows.Close()

	var revisions []models.Revision
	for rows.Next() {
		r, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		revisions = append(revisions, *r)
	}
	return revisions, rows.Err()
}

func (d *DatabaseClient) GetRevision(ctx context.Context, revisionID uuid.UUID) (*models.Revision, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+revisionColumns+` FROM revisions WHERE id = $1`, revisionID)
	r, err := scanRevision(row)
	if err != nil {
		return nil, notFound("revision", err)
	}
	return r, nil
}

func (d *DatabaseClient) DeliverRevision(ctx context.Context, revisionID uuid.UUID, deliveryLink, notes, meetingLink string) (*models.Revision, error) {
	row := d.db.QueryRowContext(ctx, `
		UPDATE revisions
		SET status = $1, delivery_link = $2, notes = COALESCE(NULLIF($3, ''), notes),
			meeting_link = NULLIF($4, ''), delivered_at = NOW()
		WHERE id = $5 AND status = ANY($6)
		RETURNING `+revisionColumns,
		models.RevisionDelivered, deliveryLink, notes, meetingLink, revisionID,
		pq.Array([]string{models.RevisionPending, models.RevisionRequested}))
	r, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("revision %s was already delivered: %w", revisionID, apperr.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to deliver revision: %w", err)
	}
	return r, nil
}

func (d *DatabaseClient) RequestRevision(ctx context.Context, revisionID uuid.UUID, notes string) (*models.Revision, error) {
	row := d.db.QueryRowContext(ctx, `
		UPDATE revisions
		SET status = $1, notes = $2
		WHERE id = $3 AND status = $4
		RETURNING `+revisionColumns,
		models.RevisionRequested, notes, revisionID, models.RevisionPending)
	r, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("revision %s is not pending: %w", revisionID, apperr.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to request revision: %w", err)
	}
	return r, nil
}

func (d *DatabaseClient) CreateRevisionMessage(ctx context.Context, m *models.RevisionMessage) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO revision_messages (id, revision_id, sender_id, sender_role, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, m.ID, m.RevisionID, m.SenderID, m.SenderRole, m.Body).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create revision message: %w", err)
	}
	return nil
}

func (d *DatabaseClient) ListRevisionMessages(ctx context.Context, revisionID uuid.UUID) ([]models.RevisionMessage, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, revision_id, sender_id, sender_role, body, created_at
		FROM revision_messages
		WHERE revision_id = $1
		ORDER BY created_at ASC
	`, revisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list revision messages: %w", err)
	}
	defer rows.Close()

	var messages []models.RevisionMessage
	for rows.Next() {
		var m models.RevisionMessage
		if err := rows.Scan(&m.ID, &m.RevisionID, &m.SenderID, &m.SenderRole, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan revision message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
