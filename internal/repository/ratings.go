package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/HoganMacAdam/trust-vault-stars/internal/domain"
)

// RatingsRepository persists the append-only rating log.
type RatingsRepository struct {
	db DB
}

// RatingAppendParams captures the payload required to append a rating.
type RatingAppendParams struct {
	Rater       domain.Address
	Subject     domain.Address
	ScoreHandle domain.Handle
}

const ratingColumns = `id, rater, subject, score_handle, created_at`

// Append stores a new immutable rating record and returns it with its
// assigned id. Ids come from a dedicated sequence; an aborted transaction
// burns its value, so ids stay unique and increasing but may have gaps.
func (r *RatingsRepository) Append(ctx context.Context, params RatingAppendParams) (domain.Rating, error) {
	query := fmt.Sprintf(`
        INSERT INTO ratings (rater, subject, score_handle)
        VALUES ($1,$2,$3)
        RETURNING %s
    `, ratingColumns)

	row := r.db.QueryRow(ctx, query, params.Rater, params.Subject, params.ScoreHandle)
	return scanRating(row)
}

// Get retrieves a rating by id.
func (r *RatingsRepository) Get(ctx context.Context, id int64) (domain.Rating, error) {
	query := fmt.Sprintf(`SELECT %s FROM ratings WHERE id = $1`, ratingColumns)
	rating, err := scanRating(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

// ListBySubject returns all ratings for a subject in insertion order.
func (r *RatingsRepository) ListBySubject(ctx context.Context, subject domain.Address) ([]domain.Rating, error) {
	query := fmt.Sprintf(`SELECT %s FROM ratings WHERE subject = $1 ORDER BY id`, ratingColumns)
	rows, err := r.db.Query(ctx, query, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := make([]domain.Rating, 0)
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ratings, nil
}

func scanRating(row pgx.Row) (domain.Rating, error) {
	var rating domain.Rating
	err := row.Scan(
		&rating.ID,
		&rating.Rater,
		&rating.Subject,
		&rating.ScoreHandle,
		&rating.CreatedAt,
	)
	if err != nil {
		return domain.Rating{}, err
	}
	return rating, nil
}
