package principal

import (
	"errors"
	"testing"
	"time"
)

type countingHasher struct {
	calls int
}

func (h *countingHasher) Hash(plaintext string) (string, error) {
	h.calls++
	return "hashed:" + plaintext, nil
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"user":   RoleUser,
		"Tutor":  RoleTutor,
		" ADMIN": RoleAdmin,
	}
	for in, want := range cases {
		got, err := ParseRole(in)
		if err != nil {
			t.Fatalf("ParseRole(%q) failed: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseRole(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseRole("student"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestCapabilities(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleTutor} {
		caps := CapabilitiesOf(r)
		if !caps.HasOTPFlow || !caps.HasGoogleAuth || !caps.RequiresPhone || !caps.HasPasswordReset {
			t.Fatalf("expected full capability set for %s, got %+v", r, caps)
		}
	}
	admin := CapabilitiesOf(RoleAdmin)
	if admin.HasOTPFlow || admin.HasGoogleAuth || admin.RequiresPhone || admin.HasPasswordReset {
		t.Fatalf("expected minimal capability set for admin, got %+v", admin)
	}
	if admin.IDKey != "adminId" {
		t.Fatalf("unexpected admin id key %q", admin.IDKey)
	}
}

func TestSetPasswordAlwaysRehashes(t *testing.T) {
	h := &countingHasher{}
	p := &Principal{}

	if err := p.SetPassword(h, "pass1"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if err := p.SetPassword(h, "pass1"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if h.calls != 2 {
		t.Fatalf("expected 2 hash calls, got %d", h.calls)
	}
	if p.PasswordHash != "hashed:pass1" {
		t.Fatalf("unexpected hash %q", p.PasswordHash)
	}
}

func TestResetTokenValid(t *testing.T) {
	now := time.Now()
	p := &Principal{}
	p.SetResetToken("digest", now.Add(10*time.Minute))

	if !p.ResetTokenValid("digest", now) {
		t.Fatal("expected digest to be valid before expiry")
	}
	if p.ResetTokenValid("other", now) {
		t.Fatal("expected mismatching digest to be invalid")
	}
	if p.ResetTokenValid("digest", now.Add(11*time.Minute)) {
		t.Fatal("expected digest to be invalid after expiry")
	}

	p.ClearResetToken()
	if p.ResetTokenValid("digest", now) {
		t.Fatal("expected cleared digest to be invalid")
	}
}

func TestValidateCredentialInvariant(t *testing.T) {
	p := &Principal{Role: RoleUser, Email: "a@x.com", PublicID: "pub"}
	if err := p.Validate(); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}

	p.GoogleID = "g-1"
	if err := p.Validate(); err != nil {
		t.Fatalf("expected federated principal to be valid, got %v", err)
	}

	admin := &Principal{Role: RoleAdmin, Email: "root@x.com", PublicID: "pub", GoogleID: "g"}
	if err := admin.Validate(); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected admin without password to be invalid, got %v", err)
	}
}

func TestActive(t *testing.T) {
	if (&Principal{Role: RoleUser}).Active() {
		t.Fatal("unverified user must not be active")
	}
	if !(&Principal{Role: RoleAdmin}).Active() {
		t.Fatal("admin is implicitly verified")
	}
	if (&Principal{Role: RoleTutor, IsVerified: true, IsBlocked: true}).Active() {
		t.Fatal("blocked tutor must not be active")
	}
}

func TestLinkGoogleKeepsImageWhenNoneSupplied(t *testing.T) {
	p := &Principal{Role: RoleUser, ProfileImage: "https://img/existing"}

	p.LinkGoogle("g-1", "")
	if p.GoogleID != "g-1" || !p.IsVerified {
		t.Fatalf("expected the google id to be linked, got %+v", p)
	}
	if p.ProfileImage != "https://img/existing" {
		t.Fatalf("an empty image must not clear the current one, got %q", p.ProfileImage)
	}

	p.LinkGoogle("g-1", "https://img/new")
	if p.ProfileImage != "https://img/new" {
		t.Fatalf("expected the new image, got %q", p.ProfileImage)
	}
}
