package main

import (
	"context"
	"log/slog"
	"time"

	tutorAuth "github.com/MrEthical07/tutorAuth"
	"github.com/MrEthical07/tutorAuth/credstore/memory"
	"github.com/MrEthical07/tutorAuth/credstore/postgres"
	"github.com/MrEthical07/tutorAuth/mailer"
	"github.com/MrEthical07/tutorAuth/principal"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// memoryRedis selects an embedded Redis for local development.
const memoryRedis = "memory"

// backends holds the opened dependencies and their shutdown.
type backends struct {
	redis  redis.UniversalClient
	store  principal.Store
	ping   []func(context.Context) error
	closer []func()
}

func (b *backends) Close() {
	for i := len(b.closer) - 1; i >= 0; i-- {
		b.closer[i]()
	}
}

// Ready pings every backend.
func (b *backends) Ready(ctx context.Context) error {
	for _, ping := range b.ping {
		if err := ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) openBackends(ctx context.Context) (*backends, error) {
	s := a.settings
	b := &backends{}

	addr := s.Redis.Addr
	if addr == memoryRedis {
		if s.Environment == tutorAuth.EnvProduction {
			return nil, oops.Code("CONFIG_INVALID").Errorf("embedded redis is not allowed in production")
		}
		mr, err := miniredis.Run()
		if err != nil {
			return nil, oops.Code("REDIS_CONNECT_FAILED").Wrap(err)
		}
		b.closer = append(b.closer, mr.Close)
		addr = mr.Addr()
		a.logger.Warn("using embedded redis", slog.String("addr", addr))
	}
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: s.Redis.Password,
		DB:       s.Redis.DB,
	})
	b.closer = append(b.closer, func() { _ = rdb.Close() })
	b.redis = rdb

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		b.Close()
		return nil, oops.Code("REDIS_CONNECT_FAILED").With("addr", addr).Wrap(err)
	}
	b.ping = append(b.ping, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })

	if s.Postgres.DSN == "" {
		if s.Environment == tutorAuth.EnvProduction {
			b.Close()
			return nil, oops.Code("CONFIG_INVALID").Errorf("postgres.dsn is required in production")
		}
		a.logger.Warn("using in-memory principal store")
		b.store = memory.New()
		return b, nil
	}

	pg, err := postgres.Open(pingCtx, s.Postgres.DSN)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.closer = append(b.closer, pg.Close)
	b.ping = append(b.ping, pg.Ping)
	b.store = pg
	return b, nil
}

// newMailer returns the SMTP mailer, or one that fails every send when SMTP
// is not configured outside production.
func (a *app) newMailer() (tutorAuth.Mailer, error) {
	m, err := mailer.New(a.settings.MailerConfig())
	if err == nil {
		return m, nil
	}
	if a.settings.Environment == tutorAuth.EnvProduction {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	a.logger.Warn("smtp not configured; registration and password reset mail will fail")
	return disabledMailer{}, nil
}

type disabledMailer struct{}

func (disabledMailer) SendOTPEmail(context.Context, string, string) error {
	return mailer.ErrNotConfigured
}

func (disabledMailer) SendPasswordResetEmail(context.Context, string, string, tutorAuth.Role) error {
	return mailer.ErrNotConfigured
}

func (a *app) buildEngine(b *backends, m tutorAuth.Mailer) (*tutorAuth.Engine, error) {
	cfg, err := a.settings.EngineConfig()
	if err != nil {
		return nil, err
	}
	builder := tutorAuth.New().
		WithConfig(cfg).
		WithRedis(b.redis).
		WithPrincipalStore(b.store).
		WithMailer(m).
		WithLogger(a.logger)
	if cfg.Audit.Enabled {
		builder = builder.WithAuditSink(tutorAuth.NewSlogSink(a.logger.With(slog.String("stream", "audit"))))
	}
	engine, err := builder.Build()
	if err != nil {
		return nil, oops.Code("ENGINE_BUILD_FAILED").Wrap(err)
	}
	return engine, nil
}
