package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandTree(t *testing.T) {
	cmd := NewRootCmd()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.True(t, names["seed-admin"])

	for _, flag := range []string{"config", "env", "addr", "log-format", "redis-addr", "postgres-dsn"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "json", "warn")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])

	_, err = newLogger(&buf, "xml", "info")
	assert.Error(t, err)
	_, err = newLogger(&buf, "text", "loud")
	assert.Error(t, err)
}

func TestSeedAdminWithEmbeddedBackends(t *testing.T) {
	t.Setenv("TUTORAUTH_JWT__SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("TUTORAUTH_AUTH__BCRYPT_COST", "4")

	out, err := execute(t, "seed-admin", "--redis-addr", "memory", "--log-level", "error",
		"--email", "root@x.com", "--password", "rootpass")
	require.NoError(t, err, out)
	assert.Contains(t, out, "admin root@x.com created")
}

func TestSeedAdminRequiresFlags(t *testing.T) {
	_, err := execute(t, "seed-admin", "--redis-addr", "memory")
	assert.Error(t, err)
}

func TestEmbeddedRedisRefusedInProduction(t *testing.T) {
	t.Setenv("TUTORAUTH_JWT__SECRET", "0123456789abcdef0123456789abcdef")

	_, err := execute(t, "seed-admin", "--env", "production", "--redis-addr", "memory",
		"--email", "root@x.com", "--password", "rootpass")
	assert.ErrorContains(t, err, "embedded redis")
}

func TestMigrateRequiresDSN(t *testing.T) {
	_, err := execute(t, "migrate", "up")
	assert.ErrorContains(t, err, "postgres.dsn")
}
