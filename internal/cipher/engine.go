package cipher

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/ldsec/lattigo/bfv"

	"github.com/HoganMacAdam/trust-vault-stars/internal/domain"
)

// Engine is an in-process Vault backed by the BFV scheme. Ciphertexts stay
// inside the engine, keyed by opaque handle tokens; per-handle grant sets
// gate decryption. It backs cmd/cipher-mock so the ledger's homomorphic
// adds operate on real ciphertexts rather than stashed plaintexts.
type Engine struct {
	mu      sync.Mutex
	params  *bfv.Parameters
	pk      *bfv.PublicKey
	sk      *bfv.SecretKey
	entries map[domain.Handle]*engineEntry
}

type engineEntry struct {
	ct     *bfv.Ciphertext
	grants map[domain.Address]struct{}
}

// NewEngine generates a fresh BFV key pair and an empty handle store.
func NewEngine() *Engine {
	params := bfv.DefaultParams[bfv.PN14QP438]
	params.T = 65537

	sk, pk := bfv.NewKeyGenerator(params).GenKeyPair()
	return &Engine{
		params:  params,
		pk:      pk,
		sk:      sk,
		entries: map[domain.Handle]*engineEntry{},
	}
}

func (e *Engine) encrypt(value int64) *bfv.Ciphertext {
	encoder := bfv.NewEncoder(e.params)
	pt := bfv.NewPlaintext(e.params)
	encoder.EncodeUint([]uint64{uint64(value)}, pt)
	return bfv.NewEncryptorFromPk(e.params, e.pk).EncryptNew(pt)
}

func (e *Engine) register(ct *bfv.Ciphertext, grants ...domain.Address) domain.Handle {
	handle := domain.Handle(uuid.NewString())
	entry := &engineEntry{ct: ct, grants: map[domain.Address]struct{}{}}
	for _, g := range grants {
		entry.grants[g] = struct{}{}
	}
	e.entries[handle] = entry
	return handle
}

// Encrypt implements Vault.
func (e *Engine) Encrypt(_ context.Context, value int64, recipient domain.Address) (domain.Handle, error) {
	if value < 0 || uint64(value) >= e.params.T {
		return "", fmt.Errorf("cipher: value %d outside plaintext space", value)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.register(e.encrypt(value), recipient), nil
}

// EncryptConstant implements Vault.
func (e *Engine) EncryptConstant(_ context.Context, value int64) (domain.Handle, error) {
	if value < 0 || uint64(value) >= e.params.T {
		return "", fmt.Errorf("cipher: value %d outside plaintext space", value)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.register(e.encrypt(value)), nil
}

// Add implements Vault. The result is a fresh handle with no grants.
func (e *Engine) Add(_ context.Context, a, b domain.Handle) (domain.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ea, ok := e.entries[a]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownHandle, a)
	}
	eb, ok := e.entries[b]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownHandle, b)
	}

	sum := bfv.NewEvaluator(e.params).AddNew(ea.ct, eb.ct)
	return e.register(sum), nil
}

// Grant implements Vault.
func (e *Engine) Grant(_ context.Context, handle domain.Handle, identity domain.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.entries[handle]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	entry.grants[identity] = struct{}{}
	return nil
}

// Decrypt implements Vault.
func (e *Engine) Decrypt(_ context.Context, handle domain.Handle, requester domain.Address) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.entries[handle]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	if _, granted := entry.grants[requester]; !granted {
		return 0, ErrPermissionDenied
	}

	pt := bfv.NewPlaintext(e.params)
	bfv.NewDecryptor(e.params, e.sk).Decrypt(entry.ct, pt)
	values := bfv.NewEncoder(e.params).DecodeUint(pt)
	return int64(values[0]), nil
}
