package password

import (
	"errors"
	"strings"
	"testing"
)

func testArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestArgon2HashAndVerify(t *testing.T) {
	hasher, err := NewArgon2(testArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("P@ssw0rd")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := hasher.Verify("P@ssw0rd", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification to succeed: ok=%v err=%v", ok, err)
	}

	ok, err = hasher.Verify("wrong", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch without error: ok=%v err=%v", ok, err)
	}
}

func TestArgon2ShortPasswordAccepted(t *testing.T) {
	hasher, err := NewArgon2(testArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	if _, err := hasher.Hash("pass1"); err != nil {
		t.Fatalf("expected 5 byte password to hash, got %v", err)
	}
}

func TestArgon2NeedsUpgrade(t *testing.T) {
	weak, err := NewArgon2(testArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2(weak) error: %v", err)
	}
	hash, err := weak.Hash("upgrade-me")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	strong := testArgon2Config()
	strong.Time = 2
	strongHasher, err := NewArgon2(strong)
	if err != nil {
		t.Fatalf("NewArgon2(strong) error: %v", err)
	}

	needs, err := strongHasher.NeedsUpgrade(hash)
	if err != nil || !needs {
		t.Fatalf("expected upgrade for weaker hash: needs=%v err=%v", needs, err)
	}
	needs, err = weak.NeedsUpgrade(hash)
	if err != nil || needs {
		t.Fatalf("expected no upgrade for current params: needs=%v err=%v", needs, err)
	}
}

func TestArgon2VerifyMalformed(t *testing.T) {
	hasher, err := NewArgon2(testArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("version-test")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	for _, bad := range []string{
		"not-a-phc-hash",
		strings.Replace(hash, "$v=19$", "$v=18$", 1),
		strings.Replace(hash, "m=8192", "m=1", 1),
	} {
		if _, err := hasher.Verify("version-test", bad); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", bad, err)
		}
	}
}

func TestArgon2RejectsWeakConfig(t *testing.T) {
	cfg := testArgon2Config()
	cfg.SaltLength = 8
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected short salt config to be rejected")
	}
}
