package number

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL number repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const numberColumns = `id, user_id, phone_number, status, source, activated_at, created_at, updated_at`

// Create persists a new number. The partial unique index on phone_number
// (rows whose status is not released) turns a duplicate insert into
// ErrNumberExists while letting a released number be registered again.
func (r *PostgresRepository) Create(ctx context.Context, n *Number) error {
	query := `
		INSERT INTO numbers (` + numberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		n.ID, n.UserID, n.PhoneNumber, n.Status, n.Source,
		n.ActivatedAt, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrNumberExists
		}
		return err
	}
	return nil
}

// Get retrieves a number by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Number, error) {
	query := `SELECT ` + numberColumns + ` FROM numbers WHERE id = $1`
	return scanNumber(r.pool.QueryRow(ctx, query, id))
}

// GetByPhoneNumber retrieves a number by its E.164 value. A phone number can
// have several released rows and at most one live one; the live row wins.
func (r *PostgresRepository) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*Number, error) {
	query := `
		SELECT ` + numberColumns + `
		FROM numbers
		WHERE phone_number = $1
		ORDER BY (status = 'released'), created_at DESC
		LIMIT 1
	`
	return scanNumber(r.pool.QueryRow(ctx, query, phoneNumber))
}

// ListByUser returns a page of the user's numbers, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Number, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM numbers WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + numberColumns + `
		FROM numbers
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var numbers []*Number
	for rows.Next() {
		n, err := scanNumber(rows)
		if err != nil {
			return nil, 0, err
		}
		numbers = append(numbers, n)
	}
	return numbers, total, rows.Err()
}

// Activate marks a number active.
func (r *PostgresRepository) Activate(ctx context.Context, id string, at time.Time) (*Number, error) {
	query := `
		UPDATE numbers
		SET status = $2, activated_at = $3, updated_at = $3
		WHERE id = $1
		RETURNING ` + numberColumns
	return scanNumber(r.pool.QueryRow(ctx, query, id, StatusActive, at))
}

// UpdateStatus sets the lifecycle status of a number.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Number, error) {
	query := `
		UPDATE numbers
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + numberColumns
	return scanNumber(r.pool.QueryRow(ctx, query, id, status, time.Now()))
}

func scanNumber(row pgx.Row) (*Number, error) {
	var n Number
	err := row.Scan(
		&n.ID, &n.UserID, &n.PhoneNumber, &n.Status, &n.Source,
		&n.ActivatedAt, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNumberNotFound
		}
		return nil, err
	}
	return &n, nil
}

// PostgresConfigRepository is a PostgreSQL implementation of ConfigRepository.
type PostgresConfigRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresConfigRepository creates a new PostgreSQL config repository.
func NewPostgresConfigRepository(pool *pgxpool.Pool) *PostgresConfigRepository {
	return &PostgresConfigRepository{pool: pool}
}

// Create persists a routing configuration.
func (r *PostgresConfigRepository) Create(ctx context.Context, cfg *RoutingConfig) error {
	query := `
		INSERT INTO routing_configs (
			id, number_id, forward_to, voicemail_enabled, record_calls,
			greeting_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		cfg.ID, cfg.NumberID, cfg.ForwardTo, cfg.VoicemailEnabled,
		cfg.RecordCalls, cfg.GreetingURL, cfg.CreatedAt, cfg.UpdatedAt)
	return err
}

// GetByNumber retrieves the configuration for a number.
func (r *PostgresConfigRepository) GetByNumber(ctx context.Context, numberID string) (*RoutingConfig, error) {
	query := `
		SELECT id, number_id, forward_to, voicemail_enabled, record_calls,
		       greeting_url, created_at, updated_at
		FROM routing_configs
		WHERE number_id = $1
	`
	var cfg RoutingConfig
	err := r.pool.QueryRow(ctx, query, numberID).Scan(
		&cfg.ID, &cfg.NumberID, &cfg.ForwardTo, &cfg.VoicemailEnabled,
		&cfg.RecordCalls, &cfg.GreetingURL, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

// Ensure the Postgres implementations satisfy the interfaces.
var (
	_ Repository       = (*PostgresRepository)(nil)
	_ ConfigRepository = (*PostgresConfigRepository)(nil)
)
