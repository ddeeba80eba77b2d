package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestMultiVerifiesBothFormats(t *testing.T) {
	bc, err := New(Options{Algorithm: AlgorithmBcrypt, BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("New(bcrypt) error: %v", err)
	}
	a2, err := New(Options{Algorithm: AlgorithmArgon2id, BcryptCost: bcrypt.MinCost, Argon2: testArgon2Config()})
	if err != nil {
		t.Fatalf("New(argon2id) error: %v", err)
	}

	bcHash, err := bc.Hash("shared-secret")
	if err != nil {
		t.Fatalf("bcrypt Hash error: %v", err)
	}
	a2Hash, err := a2.Hash("shared-secret")
	if err != nil {
		t.Fatalf("argon2 Hash error: %v", err)
	}
	if !strings.HasPrefix(a2Hash, "$argon2id$") {
		t.Fatalf("expected argon2id hash, got %s", a2Hash)
	}

	for _, h := range []*Multi{bc, a2} {
		for _, stored := range []string{bcHash, a2Hash} {
			ok, err := h.Verify("shared-secret", stored)
			if err != nil || !ok {
				t.Fatalf("expected cross-format verify to succeed: ok=%v err=%v", ok, err)
			}
		}
	}
}

func TestMultiUnsupportedFormat(t *testing.T) {
	m, err := New(Options{BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, err := m.Verify("x", "plain-text"); !errors.Is(err, ErrUnsupportedHash) {
		t.Fatalf("expected ErrUnsupportedHash, got %v", err)
	}
}

func TestNewRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := New(Options{Algorithm: "md5"}); err == nil {
		t.Fatal("expected unknown algorithm to be rejected")
	}
}

func TestMultiNeedsUpgrade(t *testing.T) {
	low, err := New(Options{Algorithm: AlgorithmBcrypt, BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("New(low) error: %v", err)
	}
	high, err := New(Options{Algorithm: AlgorithmBcrypt, BcryptCost: bcrypt.MinCost + 1})
	if err != nil {
		t.Fatalf("New(high) error: %v", err)
	}
	a2, err := New(Options{Algorithm: AlgorithmArgon2id, BcryptCost: bcrypt.MinCost, Argon2: testArgon2Config()})
	if err != nil {
		t.Fatalf("New(argon2id) error: %v", err)
	}

	lowHash, _ := low.Hash("pw")
	a2Hash, _ := a2.Hash("pw")

	cases := []struct {
		name   string
		hasher *Multi
		hash   string
		want   bool
	}{
		{"same cost", low, lowHash, false},
		{"cost raised", high, lowHash, true},
		{"bcrypt to argon2id", a2, lowHash, true},
		{"argon2id to bcrypt", low, a2Hash, true},
		{"argon2id current", a2, a2Hash, false},
	}
	for _, tc := range cases {
		got, err := tc.hasher.NeedsUpgrade(tc.hash)
		if err != nil {
			t.Fatalf("%s: NeedsUpgrade error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: NeedsUpgrade = %v, want %v", tc.name, got, tc.want)
		}
	}
}
