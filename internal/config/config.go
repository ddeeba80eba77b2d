// Package config loads the service settings. Sources are layered: built-in
// defaults, then an optional YAML file, then TUTORAUTH_ environment variables
// (double underscore nests), then command-line flags.
package config

import (
	"net/http"
	"strings"
	"time"

	tutorAuth "github.com/MrEthical07/tutorAuth"
	"github.com/MrEthical07/tutorAuth/mailer"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

const EnvPrefix = "TUTORAUTH_"

type Settings struct {
	Environment string           `koanf:"environment"`
	Server      ServerSettings   `koanf:"server"`
	Log         LogSettings      `koanf:"log"`
	Redis       RedisSettings    `koanf:"redis"`
	Postgres    PostgresSettings `koanf:"postgres"`
	SMTP        SMTPSettings     `koanf:"smtp"`
	Google      GoogleSettings   `koanf:"google"`
	Session     SessionSettings  `koanf:"session"`
	JWT         JWTSettings      `koanf:"jwt"`
	Auth        AuthSettings     `koanf:"auth"`
	Cookie      CookieSettings   `koanf:"cookie"`
	Audit       AuditSettings    `koanf:"audit"`
	Metrics     MetricsSettings  `koanf:"metrics"`
}

type ServerSettings struct {
	Addr            string        `koanf:"addr"`
	ClientURL       string        `koanf:"client_url"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type LogSettings struct {
	// Format is "json" or "text". Empty picks json in production.
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

type RedisSettings struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type PostgresSettings struct {
	// DSN selects the Postgres store. Empty keeps principals in memory.
	DSN string `koanf:"dsn"`
}

type SMTPSettings struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	AppName  string `koanf:"app_name"`
}

type GoogleSettings struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURL  string `koanf:"redirect_url"`
}

type SessionSettings struct {
	// Secret signs the OAuth state cookie.
	Secret string `koanf:"secret"`
}

type JWTSettings struct {
	Secret     string        `koanf:"secret"`
	AccessTTL  time.Duration `koanf:"access_ttl"`
	RefreshTTL time.Duration `koanf:"refresh_ttl"`
	Issuer     string        `koanf:"issuer"`
	// KeyID labels Secret. RetiredSecrets maps older key ids to the secrets
	// that still verify tokens minted before a rotation.
	KeyID          string            `koanf:"key_id"`
	RetiredSecrets map[string]string `koanf:"retired_secrets"`
}

type AuthSettings struct {
	PasswordAlgorithm  string        `koanf:"password_algorithm"`
	BcryptCost         int           `koanf:"bcrypt_cost"`
	MinPasswordLength  int           `koanf:"min_password_length"`
	OTPTTL             time.Duration `koanf:"otp_ttl"`
	ResetTokenTTL      time.Duration `koanf:"reset_token_ttl"`
	PhoneCountryPrefix string        `koanf:"phone_country_prefix"`
}

type CookieSettings struct {
	Name     string `koanf:"name"`
	Domain   string `koanf:"domain"`
	SameSite string `koanf:"same_site"`
}

type AuditSettings struct {
	Enabled    bool `koanf:"enabled"`
	BufferSize int  `koanf:"buffer_size"`
}

type MetricsSettings struct {
	Enabled    bool `koanf:"enabled"`
	Histograms bool `koanf:"histograms"`
}

// Defaults mirrors tutorAuth.DefaultConfig plus the service settings.
func Defaults() Settings {
	engine := tutorAuth.DefaultConfig()
	return Settings{
		Environment: engine.Environment,
		Server: ServerSettings{
			Addr:            ":5000",
			ClientURL:       "http://localhost:5173",
			AllowedOrigins:  []string{"http://localhost:5173"},
			RequestTimeout:  30 * time.Second,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log:   LogSettings{Level: "info"},
		Redis: RedisSettings{Addr: "localhost:6379"},
		SMTP:  SMTPSettings{Port: 587, AppName: "Tutor Platform"},
		JWT: JWTSettings{
			AccessTTL:  engine.JWT.AccessTTL,
			RefreshTTL: engine.JWT.RefreshTTL,
			Issuer:     engine.JWT.Issuer,
		},
		Auth: AuthSettings{
			PasswordAlgorithm:  engine.Password.Algorithm,
			BcryptCost:         engine.Password.BcryptCost,
			MinPasswordLength:  engine.Password.MinLength,
			OTPTTL:             engine.OTP.TTL,
			ResetTokenTTL:      engine.PasswordReset.TokenTTL,
			PhoneCountryPrefix: engine.Registration.PhoneCountryPrefix,
		},
		Cookie: CookieSettings{Name: engine.Cookie.Name, SameSite: "strict"},
		Audit:  AuditSettings{Enabled: true, BufferSize: engine.Audit.BufferSize},
		Metrics: MetricsSettings{
			Enabled:    true,
			Histograms: true,
		},
	}
}

// flagKeys maps command-line flags onto settings keys.
var flagKeys = map[string]string{
	"env":          "environment",
	"addr":         "server.addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"redis-addr":   "redis.addr",
	"postgres-dsn": "postgres.dsn",
}

// RegisterFlags adds the overridable flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("env", "", "environment (development or production)")
	fs.String("addr", "", "HTTP listen address")
	fs.String("log-format", "", "log format (json or text)")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("redis-addr", "", "Redis address")
	fs.String("postgres-dsn", "", "Postgres connection string (empty = in-memory store)")
}

// Load layers path (optional), the environment and the changed flags of fs
// (optional) over Defaults.
func Load(path string, fs *pflag.FlagSet) (*Settings, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	s := Defaults()
	if err := k.Unmarshal("", &s); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return &s, nil
}

// envKey turns TUTORAUTH_JWT__ACCESS_TTL into jwt.access_ttl.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// EngineConfig builds the engine configuration from s.
func (s *Settings) EngineConfig() (tutorAuth.Config, error) {
	cfg := tutorAuth.DefaultConfig()
	cfg.Environment = s.Environment

	cfg.JWT.PrivateKey = []byte(s.JWT.Secret)
	cfg.JWT.AccessTTL = s.JWT.AccessTTL
	cfg.JWT.RefreshTTL = s.JWT.RefreshTTL
	cfg.JWT.Issuer = s.JWT.Issuer
	cfg.JWT.KeyID = s.JWT.KeyID
	if len(s.JWT.RetiredSecrets) > 0 {
		if s.JWT.KeyID == "" {
			return tutorAuth.Config{}, oops.Code("CONFIG_INVALID").Errorf("jwt retired_secrets need jwt key_id")
		}
		cfg.JWT.VerifyKeys = make(map[string][]byte, len(s.JWT.RetiredSecrets)+1)
		for kid, secret := range s.JWT.RetiredSecrets {
			cfg.JWT.VerifyKeys[kid] = []byte(secret)
		}
		cfg.JWT.VerifyKeys[s.JWT.KeyID] = []byte(s.JWT.Secret)
	}

	cfg.Password.Algorithm = s.Auth.PasswordAlgorithm
	cfg.Password.BcryptCost = s.Auth.BcryptCost
	cfg.Password.MinLength = s.Auth.MinPasswordLength
	cfg.OTP.TTL = s.Auth.OTPTTL
	cfg.PasswordReset.TokenTTL = s.Auth.ResetTokenTTL
	cfg.Registration.PhoneCountryPrefix = s.Auth.PhoneCountryPrefix

	sameSite, err := parseSameSite(s.Cookie.SameSite)
	if err != nil {
		return tutorAuth.Config{}, err
	}
	cfg.Cookie.Name = s.Cookie.Name
	cfg.Cookie.Domain = s.Cookie.Domain
	cfg.Cookie.SameSite = sameSite

	cfg.Audit.Enabled = s.Audit.Enabled
	cfg.Audit.BufferSize = s.Audit.BufferSize
	cfg.Metrics.Enabled = s.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = s.Metrics.Enabled && s.Metrics.Histograms

	if err := cfg.Validate(); err != nil {
		return tutorAuth.Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return cfg, nil
}

// MailerConfig builds the SMTP mailer configuration. The link and expiry
// wording follows the engine settings.
func (s *Settings) MailerConfig() mailer.Config {
	return mailer.Config{
		Host:      s.SMTP.Host,
		Port:      s.SMTP.Port,
		Username:  s.SMTP.Username,
		Password:  s.SMTP.Password,
		From:      s.SMTP.From,
		AppName:   s.SMTP.AppName,
		ClientURL: s.Server.ClientURL,
		OTPTTL:    s.Auth.OTPTTL,
		ResetTTL:  s.Auth.ResetTokenTTL,
	}
}

// LogFormat resolves an empty format from the environment.
func (s *Settings) LogFormat() string {
	if s.Log.Format != "" {
		return s.Log.Format
	}
	if s.Environment == tutorAuth.EnvProduction {
		return "json"
	}
	return "text"
}

// GoogleEnabled reports whether the OAuth code flow is configured.
func (s *Settings) GoogleEnabled() bool {
	return s.Google.ClientID != "" && s.Google.ClientSecret != "" && s.Session.Secret != ""
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "strict":
		return http.SameSiteStrictMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, oops.Code("CONFIG_INVALID").With("same_site", v).Errorf("cookie same_site must be strict, lax or none")
	}
}
