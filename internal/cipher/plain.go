package cipher

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/HoganMacAdam/trust-vault-stars/internal/domain"
)

// Plain is a Vault that stores plaintexts directly, keeping only the handle
// indirection and the grant bookkeeping. It exists for tests (the plaintext
// oracle for aggregate correctness) and for local development where key
// generation cost is unwelcome. Never deploy it.
type Plain struct {
	mu      sync.Mutex
	entries map[domain.Handle]*plainEntry
}

type plainEntry struct {
	value  int64
	grants map[domain.Address]struct{}
}

// NewPlain returns an empty plaintext vault.
func NewPlain() *Plain {
	return &Plain{entries: map[domain.Handle]*plainEntry{}}
}

func (p *Plain) register(value int64, grants ...domain.Address) domain.Handle {
	handle := domain.Handle(uuid.NewString())
	entry := &plainEntry{value: value, grants: map[domain.Address]struct{}{}}
	for _, g := range grants {
		entry.grants[g] = struct{}{}
	}
	p.entries[handle] = entry
	return handle
}

// Encrypt implements Vault.
func (p *Plain) Encrypt(_ context.Context, value int64, recipient domain.Address) (domain.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.register(value, recipient), nil
}

// EncryptConstant implements Vault.
func (p *Plain) EncryptConstant(_ context.Context, value int64) (domain.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.register(value), nil
}

// Add implements Vault.
func (p *Plain) Add(_ context.Context, a, b domain.Handle) (domain.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ea, ok := p.entries[a]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownHandle, a)
	}
	eb, ok := p.entries[b]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownHandle, b)
	}
	return p.register(ea.value + eb.value), nil
}

// Grant implements Vault.
func (p *Plain) Grant(_ context.Context, handle domain.Handle, identity domain.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[handle]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	entry.grants[identity] = struct{}{}
	return nil
}

// Decrypt implements Vault.
func (p *Plain) Decrypt(_ context.Context, handle domain.Handle, requester domain.Address) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[handle]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	if _, granted := entry.grants[requester]; !granted {
		return 0, ErrPermissionDenied
	}
	return entry.value, nil
}

// Grants reports the identities currently granted on a handle, for tests
// asserting re-grant behaviour after folds.
func (p *Plain) Grants(handle domain.Handle) []domain.Address {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[handle]
	if !ok {
		return nil
	}
	out := make([]domain.Address, 0, len(entry.grants))
	for g := range entry.grants {
		out = append(out, g)
	}
	return out
}
