package domain

import "time"

// Event types recorded in the ledger's event log. The log is informational:
// no core decision depends on it, but authorization history survives
// revocation through it.
const (
	EventRatingSubmitted  = "RatingSubmitted"
	EventViewerAuthorized = "ViewerAuthorized"
	EventViewerRevoked    = "ViewerRevoked"
)

// Event is one entry of the append-only event log.
type Event struct {
	ID         int64
	Type       string
	Subject    Address
	Actor      Address
	RatingID   *int64
	RecordedAt time.Time
}
