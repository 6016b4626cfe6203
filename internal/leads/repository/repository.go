package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

const leadColumns = `id, full_name, phone, email, notes, truck_type_id, truck_type_name,
	truck_size_name, equipment, tax_id, is_complete, status, privacy_consent_at,
	quote_id, quote_number, quote_total, quote_url, quote_created_at, quote_sent_at,
	validation_error, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID               uuid.UUID
	FullName         string
	Phone            string
	Email            *string
	Notes            *string
	TruckTypeID      *uuid.UUID
	TruckTypeName    *string
	TruckSizeName    *string
	Equipment        []domain.EquipmentSelection
	TaxID            *string
	IsComplete       bool
	Status           string
	PrivacyConsentAt *time.Time
	QuoteID          *string
	QuoteNumber      *string
	QuoteTotal       *float64
	QuoteURL         *string
	QuoteCreatedAt   *time.Time
	QuoteSentAt      *time.Time
	ValidationError  *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type CreateLeadParams struct {
	FullName         string
	Phone            string
	Email            *string
	Notes            *string
	TruckTypeID      *uuid.UUID
	TruckTypeName    *string
	TruckSizeName    *string
	Equipment        []domain.EquipmentSelection
	TaxID            *string
	IsComplete       bool
	PrivacyConsentAt *time.Time
}

type UpdateLeadParams struct {
	FullName      *string
	Phone         *string
	Email         *string
	Notes         *string
	TruckTypeID   *uuid.UUID
	TruckTypeName *string
	TruckSizeName *string
	Equipment     []domain.EquipmentSelection
	TaxID         *string
	IsComplete    *bool
	Status        *string
}

// SetQuoteParams carries the external quote metadata persisted after a
// successful document creation. All quote fields are overwritten together.
type SetQuoteParams struct {
	QuoteID     string
	QuoteNumber string
	QuoteTotal  float64
	QuoteURL    string
	MarkSent    bool
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	equipment, err := marshalEquipment(params.Equipment)
	if err != nil {
		return Lead{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			full_name, phone, email, notes, truck_type_id, truck_type_name,
			truck_size_name, equipment, tax_id, is_complete, privacy_consent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+leadColumns,
		params.FullName, params.Phone, params.Email, params.Notes,
		params.TruckTypeID, params.TruckTypeName, params.TruckSizeName,
		equipment, params.TaxID, params.IsComplete, params.PrivacyConsentAt,
	)
	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// Update applies a partial update; nil fields are left untouched.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error) {
	var equipment any
	if params.Equipment != nil {
		data, err := marshalEquipment(params.Equipment)
		if err != nil {
			return Lead{}, err
		}
		equipment = data
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			full_name = COALESCE($2, full_name),
			phone = COALESCE($3, phone),
			email = COALESCE($4, email),
			notes = COALESCE($5, notes),
			truck_type_id = COALESCE($6, truck_type_id),
			truck_type_name = COALESCE($7, truck_type_name),
			truck_size_name = COALESCE($8, truck_size_name),
			equipment = COALESCE($9, equipment),
			tax_id = COALESCE($10, tax_id),
			is_complete = COALESCE($11, is_complete),
			status = COALESCE($12, status),
			updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, params.FullName, params.Phone, params.Email, params.Notes,
		params.TruckTypeID, params.TruckTypeName, params.TruckSizeName,
		equipment, params.TaxID, params.IsComplete, params.Status,
	)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// SetQuote overwrites all quote fields in one statement and marks the lead
// complete. When MarkSent is set it also stamps quote_sent_at and advances
// the status to quoted.
func (r *Repository) SetQuote(ctx context.Context, id uuid.UUID, params SetQuoteParams) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET
			quote_id = $2,
			quote_number = $3,
			quote_total = $4,
			quote_url = $5,
			quote_created_at = now(),
			quote_sent_at = CASE WHEN $6 THEN now() ELSE quote_sent_at END,
			status = CASE WHEN $6 THEN 'quoted' ELSE status END,
			is_complete = TRUE,
			validation_error = NULL,
			updated_at = now()
		WHERE id = $1`,
		id, params.QuoteID, params.QuoteNumber, params.QuoteTotal, params.QuoteURL, params.MarkSent,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetValidationError persists a human-readable validation message on the lead
// (e.g. the invoicing provider rejected the tax id).
func (r *Repository) SetValidationError(ctx context.Context, id uuid.UUID, message string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE leads SET validation_error = $2, updated_at = now() WHERE id = $1`,
		id, message,
	)
	return err
}

// MarkQuoteSent stamps quote_sent_at and advances the status to quoted.
func (r *Repository) MarkQuoteSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE leads SET quote_sent_at = now(), status = 'quoted', updated_at = now() WHERE id = $1`,
		id,
	)
	return err
}

// AdvanceStatus moves the lead from one status to another. It is a no-op when
// the lead is not in the expected source status.
func (r *Repository) AdvanceStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE leads SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	return err
}

// AppendNote appends a line to the lead's notes without overwriting prior notes.
func (r *Repository) AppendNote(ctx context.Context, id uuid.UUID, note string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads SET
			notes = CASE WHEN notes IS NULL OR notes = '' THEN $2
			             ELSE notes || E'\n' || $2 END,
			updated_at = now()
		WHERE id = $1`,
		id, note,
	)
	return err
}

// ListIncompleteOlderThan returns incomplete leads created at or before the
// cutoff. Complete leads are excluded here, which is how a completed
// configurator session exits the reminder state machine.
func (r *Repository) ListIncompleteOlderThan(ctx context.Context, cutoff time.Time) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE is_complete = FALSE AND created_at <= $1
		ORDER BY created_at ASC`,
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// List returns leads for the admin back-office, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Lead, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// Delete removes a lead. Only the admin back-office calls this; the pipeline
// itself never deletes.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalEquipment(selections []domain.EquipmentSelection) ([]byte, error) {
	if selections == nil {
		selections = []domain.EquipmentSelection{}
	}
	return json.Marshal(selections)
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	var equipment []byte
	err := row.Scan(
		&lead.ID, &lead.FullName, &lead.Phone, &lead.Email, &lead.Notes,
		&lead.TruckTypeID, &lead.TruckTypeName, &lead.TruckSizeName,
		&equipment, &lead.TaxID, &lead.IsComplete, &lead.Status,
		&lead.PrivacyConsentAt, &lead.QuoteID, &lead.QuoteNumber,
		&lead.QuoteTotal, &lead.QuoteURL, &lead.QuoteCreatedAt,
		&lead.QuoteSentAt, &lead.ValidationError,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}
	if len(equipment) > 0 {
		if err := json.Unmarshal(equipment, &lead.Equipment); err != nil {
			return Lead{}, err
		}
	}
	return lead, nil
}
