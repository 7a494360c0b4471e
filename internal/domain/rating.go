package domain

import "time"

// Handle is an opaque reference to an encrypted value held by the cipher
// vault. The core never inspects it and supports no arithmetic on it; all
// combination goes through the vault's homomorphic add.
type Handle string

// IsZero reports whether the handle is absent.
func (h Handle) IsZero() bool { return h == "" }

func (h Handle) String() string { return string(h) }

// Rating is a single immutable rating submission. The score itself exists
// only as a ciphertext handle; the plaintext never reaches the ledger.
type Rating struct {
	ID          int64
	Rater       Address
	Subject     Address
	ScoreHandle Handle
	CreatedAt   time.Time
}

// Aggregate is the per-subject encrypted running state. TotalHandle and
// CountHandle are nil until the first rating seeds them; VisibleCount is a
// plaintext counter used only for display and gating, never for score math.
type Aggregate struct {
	Subject      Address
	TotalHandle  *Handle
	CountHandle  *Handle
	VisibleCount int64
	UpdatedAt    time.Time
}

// HasRatings reports whether the aggregate has been seeded.
func (a Aggregate) HasRatings() bool { return a.VisibleCount > 0 }
