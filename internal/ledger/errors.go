package ledger

import "errors"

// Validation errors: the caller's fault, rejected before any state change.
var (
	ErrInvalidSubject    = errors.New("ledger: invalid subject")
	ErrSelfRating        = errors.New("ledger: self-rating rejected")
	ErrScoreOutOfRange   = errors.New("ledger: score out of range")
	ErrInvalidViewer     = errors.New("ledger: invalid viewer")
	ErrSelfAuthorization = errors.New("ledger: self-authorization rejected")
)

// State-precondition errors: the operation is invalid for the current
// state; nothing is mutated.
var (
	ErrNoAggregateYet    = errors.New("ledger: no aggregate yet")
	ErrAlreadyAuthorized = errors.New("ledger: viewer already authorized")
	ErrNotAuthorized     = errors.New("ledger: viewer not authorized")
	ErrNotFound          = errors.New("ledger: not found")
	ErrCallerNotSubject  = errors.New("ledger: caller is not the subject")
)

// Score bounds for a single rating. Enforced on the plaintext before
// encryption; once a score is a ciphertext handle the ledger cannot
// inspect it (see ValidateScore).
const (
	MinScore = 1
	MaxScore = 5
)

// ValidateScore checks the 1-5 range on a plaintext score. This is the
// trust boundary: it must run before the score is encrypted, because the
// accumulator cannot verify post-hoc that a handle encodes an in-range
// value.
func ValidateScore(score int64) error {
	if score < MinScore || score > MaxScore {
		return ErrScoreOutOfRange
	}
	return nil
}
