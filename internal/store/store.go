// Package store persists Etsy OAuth tokens keyed by profile name. Commands
// and the refresher depend on the TokenStore interface, never on a concrete
// backend.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/donaldgifford/etsy-v3/pkg/etsy"
)

// ErrNotFound is returned when no token is stored for a profile.
var ErrNotFound = errors.New("token not found")

// DefaultProfile is used when the caller does not name one.
const DefaultProfile = "default"

// Record is one stored token.
type Record struct {
	Profile   string     `json:"profile"`
	Token     etsy.Token `json:"token"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ExpiresWithin reports whether the access token expires before now+d.
func (r *Record) ExpiresWithin(now time.Time, d time.Duration) bool {
	return r.Token.ExpiresWithin(now, d)
}

// TokenStore defines all token persistence operations.
type TokenStore interface {
	Get(ctx context.Context, profile string) (*Record, error)
	// Save inserts or replaces the record for r.Profile and sets UpdatedAt.
	Save(ctx context.Context, r *Record) error
	Delete(ctx context.Context, profile string) error
	List(ctx context.Context, q *TokenQuery) ([]Record, error)

	Ping(ctx context.Context) error
	Close()
}

// Open builds the store selected by backend: "file" uses path, "postgres"
// uses dsn and runs migrations.
func Open(ctx context.Context, backend, path, dsn string, poolSize int) (TokenStore, error) {
	switch backend {
	case "", "file":
		return NewFileStore(path), nil
	case "postgres":
		s, err := NewPostgresStore(ctx, dsn, poolSize)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.New("unknown store backend: " + backend)
	}
}
