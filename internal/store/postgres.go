package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/donaldgifford/etsy-v3/pkg/etsy"
)

const defaultPoolSize = 4

// PostgresStore implements TokenStore using pgxpool (connection-pooled
// PostgreSQL).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
// poolSize <= 0 uses the default.
func NewPostgresStore(ctx context.Context, connString string, poolSize int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	cfg.MaxConns = int32(poolSize) //nolint:gosec // bounded by config

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// Get retrieves the token stored for profile.
func (s *PostgresStore) Get(ctx context.Context, profile string) (*Record, error) {
	r := &Record{}
	if err := scanRecord(s.pool.QueryRow(ctx, queryGetToken, profile), r); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting token %q: %w", profile, err)
	}
	return r, nil
}

// Save inserts or updates the token for r.Profile.
func (s *PostgresStore) Save(ctx context.Context, r *Record) error {
	if r.Profile == "" {
		return errors.New("profile is required")
	}

	var raw []byte
	if !r.Token.Raw.IsEmpty() {
		raw = r.Token.Raw.Raw()
	}
	var expiry *time.Time
	if !r.Token.Expiry.IsZero() {
		expiry = &r.Token.Expiry
	}

	args := pgx.NamedArgs{
		"profile":       r.Profile,
		"user_id":       r.Token.UserID(),
		"access_token":  r.Token.AccessToken,
		"refresh_token": r.Token.RefreshToken,
		"token_type":    r.Token.TokenType,
		"expires_in":    r.Token.ExpiresIn,
		"expiry":        expiry,
		"raw":           raw,
	}

	if err := s.pool.QueryRow(ctx, queryUpsertToken, args).Scan(&r.UpdatedAt); err != nil {
		return fmt.Errorf("saving token %q: %w", r.Profile, err)
	}
	return nil
}

// Delete removes the token for profile.
func (s *PostgresStore) Delete(ctx context.Context, profile string) error {
	tag, err := s.pool.Exec(ctx, queryDeleteToken, profile)
	if err != nil {
		return fmt.Errorf("deleting token %q: %w", profile, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns stored tokens matching q.
func (s *PostgresStore) List(ctx context.Context, q *TokenQuery) ([]Record, error) {
	sql, args := q.ToSQL()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tokens: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := scanRecord(rows, &r); err != nil {
			return nil, fmt.Errorf("scanning token: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tokens: %w", err)
	}

	return records, nil
}

func scanRecord(row pgx.Row, r *Record) error {
	var (
		expiry *time.Time
		raw    []byte
	)
	if err := row.Scan(
		&r.Profile,
		&r.Token.AccessToken,
		&r.Token.RefreshToken,
		&r.Token.TokenType,
		&r.Token.ExpiresIn,
		&expiry,
		&raw,
		&r.UpdatedAt,
	); err != nil {
		return err
	}

	if expiry != nil {
		r.Token.Expiry = *expiry
	}
	doc, err := etsy.ParseDocument(raw)
	if err != nil {
		return fmt.Errorf("parsing raw token: %w", err)
	}
	r.Token.Raw = doc
	return nil
}
