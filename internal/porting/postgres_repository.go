package porting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
//
// Transition and Create run inside a pgx transaction so the status write and
// its history entries commit or roll back together.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL porting repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const requestColumns = `
	id, user_id, phone_number, current_carrier, account_number, pin,
	authorized_name, street, city, state, zip_code, country,
	status, notes, estimated_completion, actual_completion,
	created_at, updated_at
`

// Create persists a new request with its initial history entry in one
// transaction.
func (r *PostgresRepository) Create(ctx context.Context, req *Request, initial *StatusUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	query := `
		INSERT INTO porting_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = tx.Exec(ctx, query,
		req.ID,
		req.UserID,
		req.PhoneNumber,
		req.CurrentCarrier,
		req.AccountNumber,
		req.PIN,
		req.AuthorizedName,
		req.BillingAddress.Street,
		req.BillingAddress.City,
		req.BillingAddress.State,
		req.BillingAddress.ZipCode,
		req.BillingAddress.Country,
		req.Status,
		req.Notes,
		req.EstimatedCompletion,
		req.ActualCompletion,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert porting request: %w", err)
	}

	if err := insertStatusUpdate(ctx, tx, initial); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Get retrieves a request by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM porting_requests WHERE id = $1`
	return scanRequest(r.pool.QueryRow(ctx, query, id))
}

// LatestByNumber returns the most recently created request for the number.
func (r *PostgresRepository) LatestByNumber(ctx context.Context, phoneNumber string) (*Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM porting_requests
		WHERE phone_number = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanRequest(r.pool.QueryRow(ctx, query, phoneNumber))
}

// ListByUser returns a page of the user's requests, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Request, int, error) {
	return r.listPage(ctx, `user_id = $1`, []any{userID}, limit, offset)
}

// ListByStatus returns a page of requests in the given status, newest first.
func (r *PostgresRepository) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Request, int, error) {
	return r.listPage(ctx, `status = $1`, []any{status}, limit, offset)
}

// Search matches query against phone number and authorized name.
func (r *PostgresRepository) Search(ctx context.Context, query string, filters SearchFilters, limit, offset int) ([]*Request, int, error) {
	where := `($1 = '' OR phone_number ILIKE '%' || $1 || '%' OR authorized_name ILIKE '%' || $1 || '%')
		AND ($2 = '' OR user_id = $2)
		AND ($3 = '' OR status = $3)
		AND ($4 = '' OR lower(current_carrier) = lower($4))`
	args := []any{query, filters.UserID, string(filters.Status), filters.Carrier}
	return r.listPage(ctx, where, args, limit, offset)
}

// ListRequiringAttention returns failed requests and processing requests past
// their estimated completion.
func (r *PostgresRepository) ListRequiringAttention(ctx context.Context, now time.Time) ([]*Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM porting_requests
		WHERE status = $1 OR (status = $2 AND estimated_completion < $3)
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, StatusFailed, StatusProcessing, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

// UpdateNotes replaces the operator notes on a request.
func (r *PostgresRepository) UpdateNotes(ctx context.Context, id string, notes *string) (*Request, error) {
	query := `
		UPDATE porting_requests
		SET notes = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + requestColumns
	return scanRequest(r.pool.QueryRow(ctx, query, id, notes, time.Now()))
}

// Transition sets the status and appends history entries in one transaction.
func (r *PostgresRepository) Transition(ctx context.Context, id string, target Status, actualCompletion *time.Time, entries []StatusUpdate) (*Request, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	query := `
		UPDATE porting_requests
		SET status = $2,
		    actual_completion = COALESCE($3, actual_completion),
		    updated_at = $4
		WHERE id = $1
		RETURNING ` + requestColumns
	req, err := scanRequest(tx.QueryRow(ctx, query, id, target, actualCompletion, time.Now()))
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if err := insertStatusUpdate(ctx, tx, &entries[i]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return req, nil
}

// AddDocument attaches a document to an existing request.
func (r *PostgresRepository) AddDocument(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO porting_documents (id, request_id, document_type, filename, url, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		doc.ID, doc.RequestID, doc.Type, doc.Filename, doc.URL, doc.UploadedAt)
	return err
}

// ListDocuments returns all documents for a request, newest first.
func (r *PostgresRepository) ListDocuments(ctx context.Context, requestID string) ([]*Document, error) {
	query := `
		SELECT id, request_id, document_type, filename, url, uploaded_at
		FROM porting_documents
		WHERE request_id = $1
		ORDER BY uploaded_at DESC
	`
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.RequestID, &d.Type, &d.Filename, &d.URL, &d.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document by ID.
func (r *PostgresRepository) DeleteDocument(ctx context.Context, documentID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM porting_documents WHERE id = $1`, documentID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// History returns status entries for a request, newest first.
func (r *PostgresRepository) History(ctx context.Context, requestID string, limit int) ([]*StatusUpdate, error) {
	query := `
		SELECT id, request_id, status, message, updated_by, created_at
		FROM porting_status_updates
		WHERE request_id = $1
		ORDER BY created_at DESC, seq DESC
	`
	args := []any{requestID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*StatusUpdate
	for rows.Next() {
		var e StatusUpdate
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Status, &e.Message, &e.UpdatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// listPage runs a filtered count plus page query, newest first.
func (r *PostgresRepository) listPage(ctx context.Context, where string, args []any, limit, offset int) ([]*Request, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM porting_requests WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	pageQuery := fmt.Sprintf(`
		SELECT `+requestColumns+`
		FROM porting_requests
		WHERE `+where+`
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, n+1, n+2)
	rows, err := r.pool.Query(ctx, pageQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	requests, err := collectRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// insertStatusUpdate appends one history entry within the given transaction.
func insertStatusUpdate(ctx context.Context, tx pgx.Tx, entry *StatusUpdate) error {
	query := `
		INSERT INTO porting_status_updates (id, request_id, status, message, updated_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.Exec(ctx, query,
		entry.ID, entry.RequestID, entry.Status, entry.Message, entry.UpdatedBy, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert status update: %w", err)
	}
	return nil
}

// scanRequest scans one request row, mapping pgx.ErrNoRows to
// ErrRequestNotFound.
func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.PhoneNumber,
		&req.CurrentCarrier,
		&req.AccountNumber,
		&req.PIN,
		&req.AuthorizedName,
		&req.BillingAddress.Street,
		&req.BillingAddress.City,
		&req.BillingAddress.State,
		&req.BillingAddress.ZipCode,
		&req.BillingAddress.Country,
		&req.Status,
		&req.Notes,
		&req.EstimatedCompletion,
		&req.ActualCompletion,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func collectRequests(rows pgx.Rows) ([]*Request, error) {
	var requests []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
