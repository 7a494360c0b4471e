package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HoganMacAdam/trust-vault-stars/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// DB is the query surface shared by *pgxpool.Pool and pgx.Tx, so the same
// repositories serve both plain reads and transactional mutations.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Ratings        *RatingsRepository
	Aggregates     *AggregatesRepository
	Authorizations *AuthorizationsRepository
	Events         *EventsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithDB(st.Pool())
}

// NewWithPool constructs repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return NewWithDB(pool)
}

// NewWithDB binds repositories to any DB, typically an open transaction.
func NewWithDB(db DB) *Repository {
	return &Repository{
		Ratings:        &RatingsRepository{db: db},
		Aggregates:     &AggregatesRepository{db: db},
		Authorizations: &AuthorizationsRepository{db: db},
		Events:         &EventsRepository{db: db},
	}
}

// WithTx returns a view of the repositories bound to tx.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return NewWithDB(tx)
}
