package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func fastConfig() Config {
	return Config{Cost: bcrypt.MinCost, MinBytes: DefaultMinBytes}
}

func TestHashAndVerify(t *testing.T) {
	hasher, err := NewBcrypt(fastConfig())
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	hash, err := hasher.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$04$") {
		t.Fatalf("unexpected hash prefix: %s", hash)
	}

	ok, err := hasher.Verify("P@ssw0rd-Ascii", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password verification to succeed")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	hasher, err := NewBcrypt(fastConfig())
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	hash, err := hasher.Hash("correct-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := hasher.Verify("wrong-password", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher, _ := NewBcrypt(fastConfig())
	if _, err := hasher.Verify("whatever-password", "not-a-hash"); !errors.Is(err, ErrMalformedHash) {
		t.Fatalf("expected ErrMalformedHash, got %v", err)
	}
}

func TestHashLengthPolicy(t *testing.T) {
	hasher, _ := NewBcrypt(fastConfig())

	if _, err := hasher.Hash("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if _, err := hasher.Hash(strings.Repeat("a", MaxBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := hasher.Hash(strings.Repeat("a", MaxBytes)); err != nil {
		t.Fatalf("max length password should hash: %v", err)
	}
}

func TestNeedsUpgrade(t *testing.T) {
	weak, _ := NewBcrypt(fastConfig())
	hash, err := weak.Hash("upgrade-me-please")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger, _ := NewBcrypt(Config{Cost: bcrypt.MinCost + 1, MinBytes: DefaultMinBytes})
	needs, err := stronger.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if !needs {
		t.Fatal("expected upgrade for lower cost hash")
	}

	needs, err = weak.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if needs {
		t.Fatal("same cost should not need upgrade")
	}
}

func TestNewBcryptRejectsBadConfig(t *testing.T) {
	if _, err := NewBcrypt(Config{Cost: 1, MinBytes: 8}); err == nil {
		t.Fatal("expected cost validation error")
	}
	if _, err := NewBcrypt(Config{Cost: bcrypt.MinCost, MinBytes: 0}); err == nil {
		t.Fatal("expected min bytes validation error")
	}
}
