package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/HoganMacAdam/trust-vault-stars/internal/domain"
)

// AggregatesRepository persists the per-subject encrypted running state.
type AggregatesRepository struct {
	db DB
}

const aggregateColumns = `subject, total_handle, count_handle, visible_count, updated_at`

// Lock returns the subject's aggregate row with a row-level lock, creating
// an empty row on first use. Must run inside a transaction; the lock is
// what serializes concurrent folds for the same subject.
func (r *AggregatesRepository) Lock(ctx context.Context, subject domain.Address) (domain.Aggregate, error) {
	const ensure = `INSERT INTO aggregates (subject) VALUES ($1) ON CONFLICT (subject) DO NOTHING`
	if _, err := r.db.Exec(ctx, ensure, subject); err != nil {
		return domain.Aggregate{}, fmt.Errorf("ensure aggregate row: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM aggregates WHERE subject = $1 FOR UPDATE`, aggregateColumns)
	return scanAggregate(r.db.QueryRow(ctx, query, subject))
}

// Get reads the subject's aggregate without locking. Subjects that were
// never rated read back as the empty state.
func (r *AggregatesRepository) Get(ctx context.Context, subject domain.Address) (domain.Aggregate, error) {
	query := fmt.Sprintf(`SELECT %s FROM aggregates WHERE subject = $1`, aggregateColumns)
	agg, err := scanAggregate(r.db.QueryRow(ctx, query, subject))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Aggregate{Subject: subject}, nil
		}
		return domain.Aggregate{}, err
	}
	return agg, nil
}

// SetHandles swaps in the aggregate's replacement handles and counter as
// one row update, so readers never observe the counter and the handles out
// of step.
func (r *AggregatesRepository) SetHandles(ctx context.Context, subject domain.Address, total, count domain.Handle, visibleCount int64) error {
	const query = `
        UPDATE aggregates
        SET total_handle = $2, count_handle = $3, visible_count = $4, updated_at = now()
        WHERE subject = $1
    `
	tag, err := r.db.Exec(ctx, query, subject, total, count, visibleCount)
	if err != nil {
		return fmt.Errorf("update aggregate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAggregate(row pgx.Row) (domain.Aggregate, error) {
	var (
		agg   domain.Aggregate
		total *string
		count *string
	)
	err := row.Scan(&agg.Subject, &total, &count, &agg.VisibleCount, &agg.UpdatedAt)
	if err != nil {
		return domain.Aggregate{}, err
	}
	if total != nil {
		h := domain.Handle(*total)
		agg.TotalHandle = &h
	}
	if count != nil {
		h := domain.Handle(*count)
		agg.CountHandle = &h
	}
	return agg, nil
}
