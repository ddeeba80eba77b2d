package config

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	tutorAuth "github.com/MrEthical07/tutorAuth"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tutorauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, tutorAuth.EnvDevelopment, s.Environment)
	assert.Equal(t, ":5000", s.Server.Addr)
	assert.Equal(t, 5*time.Minute, s.Auth.OTPTTL)
	assert.Equal(t, 10*time.Minute, s.Auth.ResetTokenTTL)
	assert.Equal(t, "refreshToken", s.Cookie.Name)
	assert.Equal(t, "text", s.LogFormat())
}

func TestLoadLayersFileEnvAndFlags(t *testing.T) {
	path := writeYAML(t, `
environment: production
server:
  addr: ":8080"
  allowed_origins: ["https://app.example.com"]
jwt:
  secret: from-file-0123456789abcdef012345
  access_ttl: 10m
redis:
  addr: redis-from-file:6379
`)
	t.Setenv("TUTORAUTH_REDIS__ADDR", "redis-from-env:6379")
	t.Setenv("TUTORAUTH_AUTH__OTP_TTL", "3m")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--addr", ":9090"}))

	s, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, tutorAuth.EnvProduction, s.Environment)
	assert.Equal(t, ":9090", s.Server.Addr, "flag wins over file")
	assert.Equal(t, "redis-from-env:6379", s.Redis.Addr, "env wins over file")
	assert.Equal(t, []string{"https://app.example.com"}, s.Server.AllowedOrigins)
	assert.Equal(t, 10*time.Minute, s.JWT.AccessTTL)
	assert.Equal(t, 3*time.Minute, s.Auth.OTPTTL)
	assert.Equal(t, 7*24*time.Hour, s.JWT.RefreshTTL, "unset keys keep defaults")
	assert.Equal(t, "json", s.LogFormat())
}

func TestUnchangedFlagsDoNotOverride(t *testing.T) {
	t.Setenv("TUTORAUTH_SERVER__ADDR", ":7000")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))

	s, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, ":7000", s.Server.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestEngineConfig(t *testing.T) {
	s := Defaults()
	s.JWT.Secret = "0123456789abcdef0123456789abcdef"
	s.Cookie.SameSite = "lax"
	s.Auth.OTPTTL = 2 * time.Minute

	cfg, err := s.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, []byte(s.JWT.Secret), cfg.JWT.PrivateKey)
	assert.Equal(t, http.SameSiteLaxMode, cfg.Cookie.SameSite)
	assert.Equal(t, 2*time.Minute, cfg.OTP.TTL)
	assert.True(t, cfg.Metrics.EnableLatencyHistograms)
}

func TestEngineConfigKeyRotation(t *testing.T) {
	path := writeYAML(t, `
jwt:
  secret: current-0123456789abcdef0123456789
  key_id: k2
  retired_secrets:
    k1: retired-0123456789abcdef0123456789
`)
	s, err := Load(path, nil)
	require.NoError(t, err)

	cfg, err := s.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, "k2", cfg.JWT.KeyID)
	assert.Equal(t, map[string][]byte{
		"k1": []byte("retired-0123456789abcdef0123456789"),
		"k2": []byte("current-0123456789abcdef0123456789"),
	}, cfg.JWT.VerifyKeys)

	s.JWT.KeyID = ""
	_, err = s.EngineConfig()
	require.Error(t, err, "retired secrets without a key id")
}

func TestEngineConfigRejectsBadValues(t *testing.T) {
	s := Defaults()
	_, err := s.EngineConfig()
	require.Error(t, err, "missing jwt secret")

	s.JWT.Secret = "0123456789abcdef0123456789abcdef"
	s.Cookie.SameSite = "sideways"
	_, err = s.EngineConfig()
	require.Error(t, err)

	s.Cookie.SameSite = "none"
	_, err = s.EngineConfig()
	require.Error(t, err, "SameSite=None needs secure cookies")
}

func TestMailerConfigUsesEngineTTLs(t *testing.T) {
	s := Defaults()
	s.SMTP.Host = "smtp.example.com"
	s.SMTP.From = "no-reply@example.com"

	mc := s.MailerConfig()
	assert.Equal(t, s.Server.ClientURL, mc.ClientURL)
	assert.Equal(t, s.Auth.OTPTTL, mc.OTPTTL)
	assert.Equal(t, s.Auth.ResetTokenTTL, mc.ResetTTL)
}

func TestGoogleEnabled(t *testing.T) {
	s := Defaults()
	assert.False(t, s.GoogleEnabled())
	s.Google.ClientID, s.Google.ClientSecret, s.Session.Secret = "id", "secret", "session"
	assert.True(t, s.GoogleEnabled())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "jwt.access_ttl", envKey("TUTORAUTH_JWT__ACCESS_TTL"))
	assert.Equal(t, "environment", envKey("TUTORAUTH_ENVIRONMENT"))
}
