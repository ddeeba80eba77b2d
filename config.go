package tutorAuth

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/MrEthical07/tutorAuth/password"
)

// Environment names recognised by Config.Environment.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the engine configuration. It is copied by Builder.WithConfig and
// treated as immutable once Build returns.
type Config struct {
	// Environment is "development" or "production". Production forces
	// secure cookies and disables admin seeding.
	Environment string

	JWT           JWTConfig
	Password      PasswordConfig
	OTP           OTPConfig
	PasswordReset PasswordResetConfig
	Registration  RegistrationConfig
	Cookie        CookieConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
	// KeyID names the signing key in the "kid" header. With VerifyKeys set,
	// tokens verify against the key their kid names, which lets retired keys
	// keep validating until their tokens expire. VerifyKeys must hold KeyID.
	KeyID      string
	VerifyKeys map[string][]byte
}

/*
====================================
PASSWORD CONFIG
====================================
*/

type PasswordConfig struct {
	Algorithm  string // "bcrypt" (default) or "argon2id"
	BcryptCost int
	// MinLength applies to registration and password reset.
	MinLength int

	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
OTP / RESET CONFIG
====================================
*/

type OTPConfig struct {
	RedisPrefix string
	TTL         time.Duration
}

type PasswordResetConfig struct {
	TokenTTL time.Duration
}

type RegistrationConfig struct {
	// PhoneCountryPrefix is the optional prefix accepted before the ten
	// phone digits, for example "+91".
	PhoneCountryPrefix string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig shapes the refresh-token cookie.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	SameSite http.SameSite
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the development defaults. JWT.PrivateKey must still
// be supplied.
func DefaultConfig() Config {
	argon := password.DefaultArgon2Config()
	return Config{
		Environment: EnvDevelopment,
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "tutorauth",
		},
		Password: PasswordConfig{
			Algorithm:   password.AlgorithmBcrypt,
			BcryptCost:  password.DefaultBcryptCost,
			MinLength:   5,
			Memory:      argon.Memory,
			Time:        argon.Time,
			Parallelism: argon.Parallelism,
			SaltLength:  argon.SaltLength,
			KeyLength:   argon.KeyLength,
		},
		OTP: OTPConfig{
			RedisPrefix: "tutorauth:otp",
			TTL:         5 * time.Minute,
		},
		PasswordReset: PasswordResetConfig{
			TokenTTL: 10 * time.Minute,
		},
		Registration: RegistrationConfig{
			PhoneCountryPrefix: "+91",
		},
		Cookie: CookieConfig{
			Name:     "refreshToken",
			Path:     "/",
			SameSite: http.SameSiteStrictMode,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	if cfg.JWT.VerifyKeys != nil {
		out.JWT.VerifyKeys = make(map[string][]byte, len(cfg.JWT.VerifyKeys))
		for kid, key := range cfg.JWT.VerifyKeys {
			out.JWT.VerifyKeys[kid] = cloneBytes(key)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Production reports whether the engine runs with production safeguards.
func (c *Config) Production() bool {
	return c.Environment == EnvProduction
}

// SecureCookies reports whether cookies carry the Secure attribute; only
// development serves them over plain HTTP.
func (c *Config) SecureCookies() bool {
	return c.Environment != EnvDevelopment
}

func (c *Config) argon2Config() password.Argon2Config {
	return password.Argon2Config{
		Memory:      c.Password.Memory,
		Time:        c.Password.Time,
		Parallelism: c.Password.Parallelism,
		SaltLength:  c.Password.SaltLength,
		KeyLength:   c.Password.KeyLength,
	}
}

var phonePrefixPattern = regexp.MustCompile(`^\+?\d{0,4}$`)

/*
====================================
VALIDATION
====================================
*/

// Validate checks internal consistency. Build calls it; callers may call it
// early to fail fast on bad configuration files.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return errors.New("Environment must be 'development' or 'production'")
	}

	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	switch c.JWT.SigningMethod {
	case "hs256":
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("hs256 requires PrivateKey")
		}
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 && len(c.JWT.VerifyKeys) == 0 {
			return errors.New("ed25519 requires PublicKey or VerifyKeys")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if len(c.JWT.VerifyKeys) > 0 {
		if _, ok := c.JWT.VerifyKeys[c.JWT.KeyID]; !ok || c.JWT.KeyID == "" {
			return errors.New("JWT VerifyKeys must contain KeyID")
		}
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Password
	switch strings.ToLower(c.Password.Algorithm) {
	case password.AlgorithmBcrypt:
		if c.Password.BcryptCost < 4 || c.Password.BcryptCost > 31 {
			return errors.New("Password BcryptCost must be between 4 and 31")
		}
	case password.AlgorithmArgon2id:
		if c.Password.Memory < 8*1024 {
			return errors.New("Password Memory must be >= 8192 KB")
		}
		if c.Password.Time < 1 {
			return errors.New("Password Time must be >= 1")
		}
		if c.Password.Parallelism < 1 {
			return errors.New("Password Parallelism must be >= 1")
		}
		if c.Password.SaltLength < 16 {
			return errors.New("Password SaltLength must be >= 16")
		}
		if c.Password.KeyLength < 16 {
			return errors.New("Password KeyLength must be >= 16")
		}
	default:
		return errors.New("Password Algorithm must be 'bcrypt' or 'argon2id'")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}

	// OTP
	if strings.TrimSpace(c.OTP.RedisPrefix) == "" {
		return errors.New("OTP RedisPrefix must not be empty")
	}
	if c.OTP.TTL <= 0 || c.OTP.TTL > time.Hour {
		return errors.New("OTP TTL must be between 0 and 1h")
	}

	// Password reset
	if c.PasswordReset.TokenTTL <= 0 || c.PasswordReset.TokenTTL > 24*time.Hour {
		return errors.New("PasswordReset TokenTTL must be between 0 and 24h")
	}

	if !phonePrefixPattern.MatchString(c.Registration.PhoneCountryPrefix) {
		return errors.New("Registration PhoneCountryPrefix must look like '+91'")
	}

	// Cookie
	if strings.TrimSpace(c.Cookie.Name) == "" {
		return errors.New("Cookie Name must not be empty")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.SecureCookies() {
		return errors.New("SameSite=None cookies require a non-development environment")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
