package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symbind"
	"github.com/njchilds90/symbind/internal/logging"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "symbind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
scope:
  name_preference: longest
  aliases:
    arcsin: asin
log:
  level: debug
  format: json
server:
  addr: "127.0.0.1:9000"
  batch_limit: 4
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "longest", cfg.Scope.NamePreference)
	assert.Equal(t, map[string]string{"arcsin": "asin"}, cfg.Scope.Aliases)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 4, cfg.Server.BatchLimit)
	assert.Equal(t, Default().Server.MaxBodyBytes, cfg.Server.MaxBodyBytes)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")
	t.Setenv("SYMBIND_LOG_LEVEL", "error")
	t.Setenv("SYMBIND_BATCH_LIMIT", "16")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 16, cfg.Server.BatchLimit)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"preference", "scope:\n  name_preference: medium\n"},
		{"level", "log:\n  level: loud\n"},
		{"format", "log:\n  format: xml\n"},
		{"batch", "server:\n  batch_limit: 0\n"},
		{"addr", "server:\n  addr: \"\"\n"},
		{"syntax", "server: [\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, c.body))
			assert.Error(t, err)
		})
	}
}

func TestBuildScope_AppliesAliasesAndPreference(t *testing.T) {
	cfg := Default()
	cfg.Scope.NamePreference = "longest"
	cfg.Scope.Aliases = map[string]string{"arcsine": "asin"}

	s, err := cfg.BuildScope(logging.Discard())
	require.NoError(t, err)

	k, err := s.BindName("ARCSINE")
	require.NoError(t, err)
	assert.Equal(t, symbind.FuncAsin, k)

	name, err := s.NameOf(symbind.FuncAsin)
	require.NoError(t, err)
	assert.Equal(t, "arcsine", name)
}

func TestBuildScope_UnknownAliasTarget(t *testing.T) {
	cfg := Default()
	cfg.Scope.Aliases = map[string]string{"foo": "nosuchname"}

	_, err := cfg.BuildScope(logging.Discard())
	assert.True(t, errors.Is(err, symbind.ErrUnknownBinding))
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "nonsense"
	_, err := cfg.Logger("test")
	assert.Error(t, err)

	cfg.Log.Level = "debug"
	l, err := cfg.Logger("test")
	require.NoError(t, err)
	assert.NotNil(t, l)
}
