package internal

import (
	"strconv"
	"testing"
)

func TestNewOTPCodeRange(t *testing.T) {
	for i := 0; i < 2000; i++ {
		code, err := NewOTPCode()
		if err != nil {
			t.Fatalf("NewOTPCode error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("non-numeric code %q", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}

func TestResetTokenAndDigest(t *testing.T) {
	a, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken error: %v", err)
	}
	b, _ := NewResetToken()
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == b {
		t.Fatal("expected distinct tokens")
	}

	d := HashResetToken(a)
	if len(d) != 64 || d == a {
		t.Fatalf("unexpected digest %q", d)
	}
	if HashResetToken(a) != d {
		t.Fatal("expected digest to be deterministic")
	}
}
