package cipher

import (
	"context"
	"errors"
	"testing"
)

func TestEngineHomomorphicSum(t *testing.T) {
	if testing.Short() {
		t.Skip("BFV key generation is slow")
	}

	ctx := context.Background()
	engine := NewEngine()

	a, err := engine.Encrypt(ctx, 5, "bob")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := engine.Encrypt(ctx, 3, "charlie")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	sum, err := engine.Add(ctx, a, b)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := engine.Decrypt(ctx, sum, "alice"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("decrypt without grant: err = %v, want ErrPermissionDenied", err)
	}

	if err := engine.Grant(ctx, sum, "alice"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	value, err := engine.Decrypt(ctx, sum, "alice")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if value != 8 {
		t.Fatalf("decrypted sum = %d, want 8", value)
	}

	// Operand grants did not leak onto the sum, and the operands still
	// decrypt for their original recipients.
	if got, err := engine.Decrypt(ctx, a, "bob"); err != nil || got != 5 {
		t.Fatalf("operand decrypt = %d, %v; want 5", got, err)
	}
}

func TestEngineRejectsOutOfSpaceValues(t *testing.T) {
	if testing.Short() {
		t.Skip("BFV key generation is slow")
	}

	ctx := context.Background()
	engine := NewEngine()

	if _, err := engine.Encrypt(ctx, -1, "alice"); err == nil {
		t.Fatalf("expected error for negative plaintext")
	}
	if _, err := engine.EncryptConstant(ctx, 1<<40); err == nil {
		t.Fatalf("expected error for plaintext outside modulus")
	}
}
