// Package ledger implements the reputation ledger core: the append-only
// rating log, the per-subject encrypted accumulator, and the viewer
// authorization registry, orchestrated as atomic transactions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HoganMacAdam/trust-vault-stars/internal/cipher"
	"github.com/HoganMacAdam/trust-vault-stars/internal/domain"
	"github.com/HoganMacAdam/trust-vault-stars/internal/repository"
)

// Service is the sole mutator of the three ledger stores. Every mutating
// operation runs as one database transaction; the per-subject row lock on
// the aggregate serializes concurrent folds for the same subject while
// leaving unrelated subjects free to proceed.
type Service struct {
	pool     *pgxpool.Pool
	repo     *repository.Repository
	vault    cipher.Vault
	operator domain.Address
	logger   *log.Logger
}

// New constructs the ledger service. operator is the ledger's own identity
// on the cipher vault; it is granted on every handle the ledger manages.
func New(pool *pgxpool.Pool, vault cipher.Vault, operator domain.Address, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		pool:     pool,
		repo:     repository.NewWithPool(pool),
		vault:    vault,
		operator: operator,
		logger:   logger,
	}
}

// SubmitRating appends a rating and folds its score handle into the
// subject's aggregate as a single atomic unit. If any step fails,
// including a vault call, no state is committed and the rating id is
// never handed out.
func (s *Service) SubmitRating(ctx context.Context, rater, subject domain.Address, scoreHandle domain.Handle) (domain.Rating, error) {
	if subject.IsZero() {
		return domain.Rating{}, ErrInvalidSubject
	}
	if subject == rater {
		return domain.Rating{}, ErrSelfRating
	}

	var rating domain.Rating
	err := s.inTx(ctx, func(repo *repository.Repository) error {
		agg, err := repo.Aggregates.Lock(ctx, subject)
		if err != nil {
			return fmt.Errorf("lock aggregate: %w", err)
		}

		rating, err = repo.Ratings.Append(ctx, repository.RatingAppendParams{
			Rater:       rater,
			Subject:     subject,
			ScoreHandle: scoreHandle,
		})
		if err != nil {
			return fmt.Errorf("append rating: %w", err)
		}

		// The handle arrives granted to the rater; the ledger needs its
		// own grant to keep folding it later.
		if err := s.vault.Grant(ctx, scoreHandle, s.operator); err != nil {
			return fmt.Errorf("grant operator on score handle: %w", err)
		}

		total, count, err := s.fold(ctx, agg, scoreHandle)
		if err != nil {
			return err
		}

		// Folding produced fresh handles carrying no grants, so decrypt
		// permission is re-extended to the subject and every currently
		// authorized viewer.
		viewers, err := repo.Authorizations.ActiveViewers(ctx, subject)
		if err != nil {
			return fmt.Errorf("list active viewers: %w", err)
		}
		if err := s.regrant(ctx, subject, viewers, total, count); err != nil {
			return err
		}

		if err := repo.Aggregates.SetHandles(ctx, subject, total, count, agg.VisibleCount+1); err != nil {
			return err
		}

		return repo.Events.Record(ctx, domain.EventRatingSubmitted, subject, rater, &rating.ID)
	})
	if err != nil {
		return domain.Rating{}, err
	}

	s.logger.Printf("ledger: rating %d recorded for subject %s", rating.ID, subject)
	return rating, nil
}

// fold combines the new score into the aggregate's running handles. The
// first rating seeds the accumulator directly: the vault offers no neutral
// ciphertext to add onto.
func (s *Service) fold(ctx context.Context, agg domain.Aggregate, scoreHandle domain.Handle) (total, count domain.Handle, err error) {
	one, err := s.vault.EncryptConstant(ctx, 1)
	if err != nil {
		return "", "", fmt.Errorf("encrypt count increment: %w", err)
	}

	if !agg.HasRatings() {
		return scoreHandle, one, nil
	}

	total, err = s.vault.Add(ctx, *agg.TotalHandle, scoreHandle)
	if err != nil {
		return "", "", fmt.Errorf("fold total: %w", err)
	}
	count, err = s.vault.Add(ctx, *agg.CountHandle, one)
	if err != nil {
		return "", "", fmt.Errorf("fold count: %w", err)
	}
	return total, count, nil
}

func (s *Service) regrant(ctx context.Context, subject domain.Address, viewers []domain.Address, handles ...domain.Handle) error {
	grantees := append([]domain.Address{s.operator, subject}, viewers...)
	for _, handle := range handles {
		for _, grantee := range grantees {
			if err := s.vault.Grant(ctx, handle, grantee); err != nil {
				return fmt.Errorf("grant %s on aggregate handle: %w", grantee, err)
			}
		}
	}
	return nil
}

// GetAggregate returns the subject's aggregate; never-rated subjects read
// back as the empty state.
func (s *Service) GetAggregate(ctx context.Context, subject domain.Address) (domain.Aggregate, error) {
	return s.repo.Aggregates.Get(ctx, subject)
}

// GetRating retrieves one rating by id.
func (s *Service) GetRating(ctx context.Context, id int64) (domain.Rating, error) {
	rating, err := s.repo.Ratings.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

// ListRatings returns a subject's ratings in submission order.
func (s *Service) ListRatings(ctx context.Context, subject domain.Address) ([]domain.Rating, error) {
	return s.repo.Ratings.ListBySubject(ctx, subject)
}

// AuthorizeViewer activates the (subject, viewer) relation and extends
// decrypt permission on the subject's current handles to the viewer. Only
// the subject may manage their own viewer list.
func (s *Service) AuthorizeViewer(ctx context.Context, caller, subject, viewer domain.Address) error {
	if caller != subject {
		return ErrCallerNotSubject
	}
	if viewer.IsZero() {
		return ErrInvalidViewer
	}
	if viewer == subject {
		return ErrSelfAuthorization
	}

	err := s.inTx(ctx, func(repo *repository.Repository) error {
		// Locking keeps the handles stable while the grant is extended.
		agg, err := repo.Aggregates.Lock(ctx, subject)
		if err != nil {
			return fmt.Errorf("lock aggregate: %w", err)
		}
		if !agg.HasRatings() {
			return ErrNoAggregateYet
		}

		active, err := repo.Authorizations.State(ctx, subject, viewer)
		if err != nil {
			return err
		}
		if active {
			return ErrAlreadyAuthorized
		}

		if err := repo.Authorizations.SetActive(ctx, subject, viewer, true); err != nil {
			return err
		}
		if err := s.vault.Grant(ctx, *agg.TotalHandle, viewer); err != nil {
			return fmt.Errorf("grant viewer on total: %w", err)
		}
		if err := s.vault.Grant(ctx, *agg.CountHandle, viewer); err != nil {
			return fmt.Errorf("grant viewer on count: %w", err)
		}

		return repo.Events.Record(ctx, domain.EventViewerAuthorized, subject, viewer, nil)
	})
	if err != nil {
		return err
	}

	s.logger.Printf("ledger: viewer %s authorized for subject %s", viewer, subject)
	return nil
}

// RevokeViewer deactivates the relation. It does not retract decrypt
// permission already extended on existing handles; vault grants are
// irrevocable once issued. Revocation only stops the viewer from being
// re-granted on handles produced by future folds.
func (s *Service) RevokeViewer(ctx context.Context, caller, subject, viewer domain.Address) error {
	if caller != subject {
		return ErrCallerNotSubject
	}

	err := s.inTx(ctx, func(repo *repository.Repository) error {
		active, err := repo.Authorizations.State(ctx, subject, viewer)
		if err != nil {
			return err
		}
		if !active {
			return ErrNotAuthorized
		}

		if err := repo.Authorizations.SetActive(ctx, subject, viewer, false); err != nil {
			return err
		}
		return repo.Events.Record(ctx, domain.EventViewerRevoked, subject, viewer, nil)
	})
	if err != nil {
		return err
	}

	s.logger.Printf("ledger: viewer %s revoked for subject %s", viewer, subject)
	return nil
}

// IsAuthorized reports whether viewer may request decryption of subject's
// aggregate. A subject is always authorized for themselves.
func (s *Service) IsAuthorized(ctx context.Context, subject, viewer domain.Address) (bool, error) {
	if subject == viewer {
		return true, nil
	}
	return s.repo.Authorizations.State(ctx, subject, viewer)
}

// DecryptAggregate asks the vault to reveal the subject's running total
// and count to requester, gated by the authorization registry. The
// registry gate is what makes revocation effective through this surface;
// grants on old handles themselves remain irrevocable.
func (s *Service) DecryptAggregate(ctx context.Context, subject, requester domain.Address) (total, count int64, err error) {
	authorized, err := s.IsAuthorized(ctx, subject, requester)
	if err != nil {
		return 0, 0, err
	}
	if !authorized {
		return 0, 0, ErrNotAuthorized
	}

	agg, err := s.repo.Aggregates.Get(ctx, subject)
	if err != nil {
		return 0, 0, err
	}
	if !agg.HasRatings() {
		return 0, 0, ErrNoAggregateYet
	}

	total, err = s.vault.Decrypt(ctx, *agg.TotalHandle, requester)
	if err != nil {
		return 0, 0, fmt.Errorf("decrypt total: %w", err)
	}
	count, err = s.vault.Decrypt(ctx, *agg.CountHandle, requester)
	if err != nil {
		return 0, 0, fmt.Errorf("decrypt count: %w", err)
	}
	return total, count, nil
}

// ListEvents returns a subject's event history.
func (s *Service) ListEvents(ctx context.Context, subject domain.Address) ([]domain.Event, error) {
	return s.repo.Events.ListBySubject(ctx, subject)
}

func (s *Service) inTx(ctx context.Context, fn func(*repository.Repository) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(repository.NewWithDB(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
