// Package cipher wraps the homomorphic encryption capability the ledger
// orchestrates. The ledger only ever sees opaque handles; plaintexts exist
// inside a Vault implementation and at the submission boundary.
package cipher

import (
	"context"
	"errors"

	"github.com/HoganMacAdam/trust-vault-stars/internal/domain"
)

// ErrPermissionDenied is returned by Decrypt when the requester holds no
// grant on the handle.
var ErrPermissionDenied = errors.New("cipher: permission denied")

// ErrUnknownHandle is returned when an operation references a handle the
// vault never issued.
var ErrUnknownHandle = errors.New("cipher: unknown handle")

// Vault is the contract for the encryption capability. Every call is a
// synchronous black box: the ledger performs no retries of its own and
// treats any error as fatal for the enclosing transaction.
//
// Grants are a property of a handle, not of an identity: Add yields a fresh
// handle carrying no grants, so callers must re-extend permissions after
// every combination.
type Vault interface {
	// Encrypt produces a handle for value, granted to recipient.
	Encrypt(ctx context.Context, value int64, recipient domain.Address) (domain.Handle, error)

	// EncryptConstant produces a handle for a well-known constant. The
	// handle starts with no grants.
	EncryptConstant(ctx context.Context, value int64) (domain.Handle, error)

	// Add returns a new handle whose plaintext is the sum of a's and b's.
	// Neither operand is decrypted and neither is modified.
	Add(ctx context.Context, a, b domain.Handle) (domain.Handle, error)

	// Grant extends decryption permission on handle to identity. Grants
	// are irrevocable once issued.
	Grant(ctx context.Context, handle domain.Handle, identity domain.Address) error

	// Decrypt reveals the plaintext behind handle to requester, or fails
	// with ErrPermissionDenied.
	Decrypt(ctx context.Context, handle domain.Handle, requester domain.Address) (int64, error)
}
