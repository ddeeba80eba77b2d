package tutorAuth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/tutorAuth/credstore/memory"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type recordingMailer struct {
	mu         sync.Mutex
	otps       map[string]string
	resets     map[string]string
	otpSends   int
	resetSends int
	failOTP    error
	failReset  error
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{
		otps:   map[string]string{},
		resets: map[string]string{},
	}
}

func (m *recordingMailer) SendOTPEmail(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOTP != nil {
		return m.failOTP
	}
	m.otpSends++
	m.otps[email] = code
	return nil
}

func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, email, token string, _ Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReset != nil {
		return m.failReset
	}
	m.resetSends++
	m.resets[email] = token
	return nil
}

func (m *recordingMailer) lastOTP(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.otps[email]
}

func (m *recordingMailer) lastReset(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets[email]
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	engine *Engine
	store  *memory.Store
	mailer *recordingMailer
	redis  *miniredis.Miniredis
	clock  *testClock
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
	})
	return mr, rdb
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.BcryptCost = 4
	cfg.Metrics.Enabled = true
	return cfg
}

func newTestEnv(t *testing.T, cfg Config, sink AuditSink) *testEnv {
	t.Helper()

	mr, rdb := newTestRedis(t)
	store := memory.New()
	mailer := newRecordingMailer()
	clock := &testClock{now: time.Now()}

	builder := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithPrincipalStore(store).
		WithMailer(mailer).
		WithClock(clock.Now)
	if sink != nil {
		builder = builder.WithAuditSink(sink)
	}

	engine, err := builder.Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() {
		engine.Close()
		mr.Close()
	})

	return &testEnv{
		engine: engine,
		store:  store,
		mailer: mailer,
		redis:  mr,
		clock:  clock,
	}
}

// seedVerified stores an active principal with password "secret1".
func (env *testEnv) seedVerified(t *testing.T, role Role, email string) *Principal {
	t.Helper()

	p := &Principal{
		PublicID:   "pub-" + email,
		Role:       role,
		FullName:   "Seeded",
		Email:      email,
		IsVerified: true,
	}
	if err := p.SetPassword(env.engine.hasher, "secret1"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if err := env.store.Create(context.Background(), p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return p
}

func (env *testEnv) reload(t *testing.T, role Role, id string) *Principal {
	t.Helper()

	p, err := env.store.FindByID(context.Background(), role, id)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	return p
}

func aliceRequest() RegisterRequest {
	return RegisterRequest{
		FullName:        "Alice",
		Email:           "a@x.com",
		Phone:           "9876543210",
		Password:        "pass1",
		ConfirmPassword: "pass1",
	}
}
