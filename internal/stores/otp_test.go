package stores

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func codeHash(code string) [32]byte {
	return sha256.Sum256([]byte(code))
}

func TestOTPIssueAndConsume(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewOTPStore(rdb, "otp", 5*time.Minute)
	ctx := context.Background()

	if err := store.Issue(ctx, "User", "a@x.com", codeHash("123456")); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !mr.Exists("otp:user:a@x.com") {
		t.Fatal("expected otp key to exist")
	}
	if ttl := mr.TTL("otp:user:a@x.com"); ttl != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %v", ttl)
	}

	record, err := store.Consume(ctx, "User", "a@x.com", codeHash("123456"))
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if record.CodeHash != codeHash("123456") {
		t.Fatal("unexpected record hash")
	}
	if mr.Exists("otp:user:a@x.com") {
		t.Fatal("expected consumed record to be deleted")
	}

	if _, err := store.Consume(ctx, "User", "a@x.com", codeHash("123456")); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("expected ErrOTPNotFound on replay, got %v", err)
	}
}

func TestOTPMismatchKeepsRecord(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewOTPStore(rdb, "otp", 5*time.Minute)
	ctx := context.Background()

	if err := store.Issue(ctx, "Tutor", "t@x.com", codeHash("111111")); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := store.Consume(ctx, "Tutor", "t@x.com", codeHash("222222")); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("expected ErrOTPMismatch, got %v", err)
	}
	if !mr.Exists("otp:tutor:t@x.com") {
		t.Fatal("expected record to survive a mismatch")
	}
	if _, err := store.Consume(ctx, "Tutor", "t@x.com", codeHash("111111")); err != nil {
		t.Fatalf("expected correct code to still verify, got %v", err)
	}
}

func TestOTPReissueReplacesPrevious(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewOTPStore(rdb, "otp", 5*time.Minute)
	ctx := context.Background()

	if err := store.Issue(ctx, "User", "a@x.com", codeHash("111111")); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := store.Issue(ctx, "User", "a@x.com", codeHash("222222")); err != nil {
		t.Fatalf("re-Issue failed: %v", err)
	}

	if _, err := store.Consume(ctx, "User", "a@x.com", codeHash("111111")); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("expected superseded code to fail, got %v", err)
	}
	if _, err := store.Consume(ctx, "User", "a@x.com", codeHash("222222")); err != nil {
		t.Fatalf("expected latest code to verify, got %v", err)
	}
}

func TestOTPRolesAreIsolated(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewOTPStore(rdb, "otp", 5*time.Minute)
	ctx := context.Background()

	if err := store.Issue(ctx, "User", "same@x.com", codeHash("123456")); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := store.Consume(ctx, "Tutor", "same@x.com", codeHash("123456")); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("expected tutor lookup to miss user code, got %v", err)
	}
}

func TestOTPExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewOTPStore(rdb, "otp", 5*time.Minute)
	ctx := context.Background()

	if err := store.Issue(ctx, "User", "a@x.com", codeHash("123456")); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	mr.FastForward(6 * time.Minute)
	if _, err := store.Consume(ctx, "User", "a@x.com", codeHash("123456")); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("expected expired key to be not found, got %v", err)
	}
}

func TestOTPStaleRecordInvisible(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewOTPStore(rdb, "otp", 5*time.Minute)
	ctx := context.Background()

	if err := store.Issue(ctx, "User", "a@x.com", codeHash("123456")); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// The key survives but the record timestamp is past the TTL.
	store.now = func() time.Time { return time.Now().Add(6 * time.Minute) }
	if !mr.Exists("otp:user:a@x.com") {
		t.Fatal("expected the key to outlive the record timestamp")
	}
	if _, err := store.Consume(ctx, "User", "a@x.com", codeHash("123456")); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("expected stale record to be not found, got %v", err)
	}
	if mr.Exists("otp:user:a@x.com") {
		t.Fatal("expected stale record to be removed")
	}
}

func TestOTPRedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	store := NewOTPStore(rdb, "otp", 5*time.Minute)
	mr.Close()

	err = store.Issue(context.Background(), "User", "a@x.com", codeHash("123456"))
	if !errors.Is(err, ErrOTPRedisUnavailable) {
		t.Fatalf("expected ErrOTPRedisUnavailable, got %v", err)
	}
}

func TestDecodeOTPRecordRejectsBadVersion(t *testing.T) {
	encoded, err := encodeOTPRecord(&OTPRecord{CreatedAt: time.Now(), CodeHash: codeHash("1")})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	encoded[0] = 9
	if _, err := decodeOTPRecord(encoded); err == nil {
		t.Fatal("expected bad version to be rejected")
	}
}
