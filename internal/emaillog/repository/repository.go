// Package repository is the append-only email log: one row per outbound send
// attempt, keyed by an idempotency key the database enforces as unique.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Email delivery statuses.
const (
	StatusQueued = "queued"
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// ClaimOutcome tags the result of a Claim call.
type ClaimOutcome int

const (
	// Claimed means a queued row now exists for the key and the caller owns the send.
	Claimed ClaimOutcome = iota
	// AlreadySent means a sent row already holds the key; the send is a no-op replay.
	AlreadySent
)

const maxErrorLen = 500

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Entry is one email log row.
type Entry struct {
	ID                uuid.UUID
	LeadID            uuid.UUID
	EmailType         string
	Recipient         string
	Subject           string
	Status            string
	Attempt           int
	IdempotencyKey    string
	ProviderMessageID *string
	ErrorMessage      *string
	Metadata          map[string]any
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ClaimParams describes the send attempt being claimed.
type ClaimParams struct {
	LeadID         uuid.UUID
	EmailType      string
	Recipient      string
	Subject        string
	Attempt        int
	IdempotencyKey string
	Metadata       map[string]any
}

// Claim atomically reserves an idempotency key before the outbound call. The
// unique index on the key arbitrates concurrent claims: a key whose row is
// already `sent` yields AlreadySent, while a leftover `queued` or `failed` row
// is taken over (re-queued) by the new claim. The returned entry id is the row
// MarkSent/MarkFailed must finalize.
func (r *Repository) Claim(ctx context.Context, params ClaimParams) (ClaimOutcome, uuid.UUID, error) {
	if params.Attempt < 1 {
		params.Attempt = 1
	}
	metadata, err := marshalMetadata(params.Metadata)
	if err != nil {
		return Claimed, uuid.Nil, err
	}

	var id uuid.UUID
	var status string
	err = r.pool.QueryRow(ctx, `
		INSERT INTO email_logs (lead_id, email_type, recipient, subject, status, attempt, idempotency_key, metadata)
		VALUES ($1, $2, $3, $4, 'queued', $5, $6, $7)
		ON CONFLICT (idempotency_key) DO UPDATE SET
			status = CASE WHEN email_logs.status = 'sent' THEN email_logs.status ELSE 'queued' END,
			recipient = CASE WHEN email_logs.status = 'sent' THEN email_logs.recipient ELSE EXCLUDED.recipient END,
			subject = CASE WHEN email_logs.status = 'sent' THEN email_logs.subject ELSE EXCLUDED.subject END,
			attempt = CASE WHEN email_logs.status = 'sent' THEN email_logs.attempt ELSE EXCLUDED.attempt END,
			error_message = CASE WHEN email_logs.status = 'sent' THEN email_logs.error_message ELSE NULL END,
			updated_at = now()
		RETURNING id, status`,
		params.LeadID, params.EmailType, params.Recipient, params.Subject,
		params.Attempt, params.IdempotencyKey, metadata,
	).Scan(&id, &status)
	if err != nil {
		return Claimed, uuid.Nil, err
	}

	if status == StatusSent {
		return AlreadySent, id, nil
	}
	return Claimed, id, nil
}

// MarkSent finalizes a claimed row after a successful delivery.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, providerMessageID string) error {
	var msgID *string
	if providerMessageID != "" {
		msgID = &providerMessageID
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE email_logs
		SET status = 'sent', provider_message_id = $2, error_message = NULL, updated_at = now()
		WHERE id = $1`,
		id, msgID,
	)
	return err
}

// MarkFailed finalizes a claimed row after a failed delivery. The error text
// is truncated so provider stack dumps do not bloat the log.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, sendErr error) error {
	msg := "unknown error"
	if sendErr != nil {
		msg = sendErr.Error()
	}
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE email_logs
		SET status = 'failed', error_message = $2, updated_at = now()
		WHERE id = $1`,
		id, msg,
	)
	return err
}

// HasSent reports whether a sent row exists for the exact key.
func (r *Repository) HasSent(ctx context.Context, idempotencyKey string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM email_logs WHERE idempotency_key = $1 AND status = 'sent')`,
		idempotencyKey,
	).Scan(&exists)
	return exists, err
}

// MaxAttempt returns the highest attempt recorded for keys starting with the
// given prefix, or 0 when none exist. Retry claims use this to number the
// next attempt.
func (r *Repository) MaxAttempt(ctx context.Context, keyPrefix string) (int, error) {
	var attempt int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(attempt), 0) FROM email_logs WHERE idempotency_key LIKE $1 || '%'`,
		keyPrefix,
	).Scan(&attempt)
	return attempt, err
}

// ListByLead returns a lead's email log, newest first, for the admin panel.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, email_type, recipient, subject, status, attempt,
		       idempotency_key, provider_message_id, error_message, metadata,
		       created_at, updated_at
		FROM email_logs
		WHERE lead_id = $1
		ORDER BY created_at DESC`,
		leadID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetByKey returns the row holding the exact idempotency key.
func (r *Repository) GetByKey(ctx context.Context, idempotencyKey string) (Entry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, email_type, recipient, subject, status, attempt,
		       idempotency_key, provider_message_id, error_message, metadata,
		       created_at, updated_at
		FROM email_logs
		WHERE idempotency_key = $1`,
		idempotencyKey,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return entry, err
}

var ErrNotFound = errors.New("email log entry not found")

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return json.Marshal(metadata)
}

func scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	var metadata []byte
	err := row.Scan(
		&entry.ID, &entry.LeadID, &entry.EmailType, &entry.Recipient,
		&entry.Subject, &entry.Status, &entry.Attempt, &entry.IdempotencyKey,
		&entry.ProviderMessageID, &entry.ErrorMessage, &metadata,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return Entry{}, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
			return Entry{}, err
		}
	}
	return entry, nil
}
