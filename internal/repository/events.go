package repository

import (
	"context"
	"fmt"

	"github.com/HoganMacAdam/trust-vault-stars/internal/domain"
)

// EventsRepository persists the informational event log.
type EventsRepository struct {
	db DB
}

// Record appends one event. ratingID is set only for RatingSubmitted.
func (r *EventsRepository) Record(ctx context.Context, eventType string, subject, actor domain.Address, ratingID *int64) error {
	const query = `
        INSERT INTO events (event_type, subject, actor, rating_id)
        VALUES ($1,$2,$3,$4)
    `
	if _, err := r.db.Exec(ctx, query, eventType, subject, actor, ratingID); err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// ListBySubject returns a subject's events in recording order.
func (r *EventsRepository) ListBySubject(ctx context.Context, subject domain.Address) ([]domain.Event, error) {
	const query = `
        SELECT id, event_type, subject, actor, rating_id, recorded_at
        FROM events
        WHERE subject = $1
        ORDER BY id
    `
	rows, err := r.db.Query(ctx, query, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		var event domain.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Subject, &event.Actor, &event.RatingID, &event.RecordedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
