package cipher

import (
	"context"
	"errors"
	"testing"

	"github.com/HoganMacAdam/trust-vault-stars/internal/domain"
)

func TestPlainAddAndDecrypt(t *testing.T) {
	ctx := context.Background()
	vault := NewPlain()

	a, err := vault.Encrypt(ctx, 5, "alice")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := vault.Encrypt(ctx, 3, "bob")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if a == b {
		t.Fatalf("handles must be distinct even across values")
	}

	sum, err := vault.Add(ctx, a, b)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if sum == a || sum == b {
		t.Fatalf("add must mint a fresh handle")
	}

	// The sum handle starts with no grants.
	if _, err := vault.Decrypt(ctx, sum, "alice"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("decrypt without grant: err = %v, want ErrPermissionDenied", err)
	}

	if err := vault.Grant(ctx, sum, "alice"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	value, err := vault.Decrypt(ctx, sum, "alice")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if value != 8 {
		t.Fatalf("decrypt = %d, want 8", value)
	}
}

func TestPlainOperandsSurviveAdd(t *testing.T) {
	ctx := context.Background()
	vault := NewPlain()

	a, _ := vault.Encrypt(ctx, 4, "alice")
	b, _ := vault.EncryptConstant(ctx, 1)
	if _, err := vault.Add(ctx, a, b); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Homomorphic add must not consume its operands.
	value, err := vault.Decrypt(ctx, a, "alice")
	if err != nil {
		t.Fatalf("decrypt operand: %v", err)
	}
	if value != 4 {
		t.Fatalf("operand value = %d, want 4", value)
	}
}

func TestPlainUnknownHandle(t *testing.T) {
	ctx := context.Background()
	vault := NewPlain()

	known, _ := vault.EncryptConstant(ctx, 1)

	if _, err := vault.Add(ctx, known, domain.Handle("missing")); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("add unknown: err = %v, want ErrUnknownHandle", err)
	}
	if err := vault.Grant(ctx, domain.Handle("missing"), "alice"); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("grant unknown: err = %v, want ErrUnknownHandle", err)
	}
	if _, err := vault.Decrypt(ctx, domain.Handle("missing"), "alice"); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("decrypt unknown: err = %v, want ErrUnknownHandle", err)
	}
}

func TestPlainGrantsAccumulate(t *testing.T) {
	ctx := context.Background()
	vault := NewPlain()

	h, _ := vault.Encrypt(ctx, 2, "alice")
	_ = vault.Grant(ctx, h, "bob")
	_ = vault.Grant(ctx, h, "carol")

	grants := vault.Grants(h)
	if len(grants) != 3 {
		t.Fatalf("grants = %v, want alice, bob, carol", grants)
	}
}
