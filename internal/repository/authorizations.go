package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/HoganMacAdam/trust-vault-stars/internal/domain"
)

// AuthorizationsRepository persists the (subject, viewer) -> active
// relation. Rows are flipped, never deleted, so revocation leaves a trace.
type AuthorizationsRepository struct {
	db DB
}

// State returns the stored relation state; absent rows read as inactive.
func (r *AuthorizationsRepository) State(ctx context.Context, subject, viewer domain.Address) (bool, error) {
	const query = `SELECT active FROM authorizations WHERE subject = $1 AND viewer = $2`
	var active bool
	err := r.db.QueryRow(ctx, query, subject, viewer).Scan(&active)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return active, nil
}

// SetActive flips the relation state, creating the row on first grant.
func (r *AuthorizationsRepository) SetActive(ctx context.Context, subject, viewer domain.Address, active bool) error {
	const query = `
        INSERT INTO authorizations (subject, viewer, active)
        VALUES ($1,$2,$3)
        ON CONFLICT (subject, viewer)
        DO UPDATE SET active = EXCLUDED.active, updated_at = now()
    `
	if _, err := r.db.Exec(ctx, query, subject, viewer, active); err != nil {
		return fmt.Errorf("set authorization: %w", err)
	}
	return nil
}

// ActiveViewers lists the viewers currently authorized for a subject.
func (r *AuthorizationsRepository) ActiveViewers(ctx context.Context, subject domain.Address) ([]domain.Address, error) {
	const query = `SELECT viewer FROM authorizations WHERE subject = $1 AND active ORDER BY viewer`
	rows, err := r.db.Query(ctx, query, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	viewers := make([]domain.Address, 0)
	for rows.Next() {
		var viewer domain.Address
		if err := rows.Scan(&viewer); err != nil {
			return nil, err
		}
		viewers = append(viewers, viewer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return viewers, nil
}
