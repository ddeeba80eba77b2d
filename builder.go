package tutorAuth

import (
	"errors"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/tutorAuth/internal/audit"
	"github.com/MrEthical07/tutorAuth/internal/flows"
	"github.com/MrEthical07/tutorAuth/internal/stores"
	"github.com/MrEthical07/tutorAuth/jwt"
	"github.com/MrEthical07/tutorAuth/password"
	"github.com/MrEthical07/tutorAuth/principal"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder is single-use: Build may succeed
// only once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	store     principal.Store
	mailer    Mailer
	auditSink AuditSink
	logger    *slog.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration with a private copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing the OTP ledger.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithPrincipalStore sets the credential store for all three roles.
func (b *Builder) WithPrincipalStore(store principal.Store) *Builder {
	b.store = store
	return b
}

func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger used for dependency failures. slog.Default is
// used when unset.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source for record timestamps and reset
// token expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every collaborator.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.store == nil {
		return nil, errors.New("principal store required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}

	hasher, err := password.New(password.Options{
		Algorithm:  cfg.Password.Algorithm,
		BcryptCost: cfg.Password.BcryptCost,
		Argon2:     cfg.argon2Config(),
	})
	if err != nil {
		return nil, err
	}

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
		KeyID:         cfg.JWT.KeyID,
		VerifyKeys:    cfg.JWT.VerifyKeys,
	})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config:     cfg,
		store:      b.store,
		otp:        stores.NewOTPStore(b.redis, cfg.OTP.RedisPrefix, cfg.OTP.TTL),
		hasher:     hasher,
		jwtManager: jm,
		mailer:     b.mailer,
		logger:     logger.With(slog.String("component", "tutorauth")),
		now:        now,
		metrics:    NewMetrics(cfg.Metrics),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}
	engine.flow = flows.New(engine.flowDeps())

	b.built = true

	return engine, nil
}
