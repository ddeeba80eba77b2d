package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptDefaultCost(t *testing.T) {
	b, err := NewBcrypt(0)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	if b.Cost() != DefaultBcryptCost {
		t.Fatalf("expected default cost %d, got %d", DefaultBcryptCost, b.Cost())
	}
}

func TestBcryptCostBounds(t *testing.T) {
	if _, err := NewBcrypt(bcrypt.MinCost - 1); err == nil {
		t.Fatal("expected cost below minimum to be rejected")
	}
	if _, err := NewBcrypt(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected cost above maximum to be rejected")
	}
}

func TestBcryptRoundTrip(t *testing.T) {
	b, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	hash, err := b.Hash("pass1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$04$") {
		t.Fatalf("unexpected bcrypt prefix: %s", hash)
	}

	ok, err := b.Verify("pass1", hash)
	if err != nil || !ok {
		t.Fatalf("expected match: ok=%v err=%v", ok, err)
	}
	ok, err = b.Verify("pass2", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch without error: ok=%v err=%v", ok, err)
	}
}

func TestBcryptHashIsSalted(t *testing.T) {
	b, _ := NewBcrypt(bcrypt.MinCost)
	h1, _ := b.Hash("same")
	h2, _ := b.Hash("same")
	if h1 == h2 {
		t.Fatal("expected distinct hashes for the same password")
	}
}

func TestBcryptEmptyAndMalformed(t *testing.T) {
	b, _ := NewBcrypt(bcrypt.MinCost)
	if _, err := b.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
	if _, err := b.Verify("x", "$2a$garbage"); !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
}

func TestBcryptNeedsUpgrade(t *testing.T) {
	low, _ := NewBcrypt(bcrypt.MinCost)
	hash, _ := low.Hash("pw")

	high, _ := NewBcrypt(bcrypt.MinCost + 1)
	needs, err := high.NeedsUpgrade(hash)
	if err != nil || !needs {
		t.Fatalf("expected upgrade: needs=%v err=%v", needs, err)
	}
}
