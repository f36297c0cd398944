package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, map[domain.Mode]string{
		domain.ModeFast:      "/api/ask",
		domain.ModeWebSearch: "/api/search",
		domain.ModeDeep:      "/api/deep-research",
	}, cfg.Backend.Endpoints.ByMode())
	assert.Equal(t, time.Duration(0), cfg.Backend.Timeout)
	assert.Equal(t, filepath.Join(home, ".config", "px", "history.toml"), cfg.History.Path)
	assert.Equal(t, 200, cfg.History.Limit)
	assert.Equal(t, filepath.Join(home, ".config", "px", "secrets"), cfg.Secrets.Dir)
	assert.Equal(t, SecretsBackendAuto, cfg.Secrets.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, filepath.Join(home, ".config", "px", "px.log"), cfg.Log.File)
}

func TestLoadReadsConfigFileAndEnvOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PX_BACKEND_BASE_URL", "https://answers.example.com")
	t.Setenv("PX_SECRETS_BACKEND", "file")

	dir := filepath.Join(home, ".config", "px")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[backend]
base_url = "http://ignored.example"
timeout = "90s"

[backend.endpoints]
deep = "/api/v2/deep"

[history]
path = "~/px-history.toml"
limit = 5
`), 0o644))

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "https://answers.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, "/api/v2/deep", cfg.Backend.Endpoints.ForMode(domain.ModeDeep))
	assert.Equal(t, "/api/ask", cfg.Backend.Endpoints.ForMode(domain.ModeFast))
	assert.Equal(t, 90*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, filepath.Join(home, "px-history.toml"), cfg.History.Path)
	assert.Equal(t, 5, cfg.History.Limit)
	assert.Equal(t, SecretsBackendFile, cfg.Secrets.Backend)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Config{
		Backend: BackendConfig{
			BaseURL:   "http://localhost:8000",
			Endpoints: EndpointsConfig{Fast: "/a", Web: "/b", Deep: "/c"},
		},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty base url", mutate: func(c *Config) { c.Backend.BaseURL = " " }, wantErr: "base_url is required"},
		{name: "bad scheme", mutate: func(c *Config) { c.Backend.BaseURL = "ftp://host" }, wantErr: "http or https"},
		{name: "missing host", mutate: func(c *Config) { c.Backend.BaseURL = "http://" }, wantErr: "host is required"},
		{name: "missing endpoint", mutate: func(c *Config) { c.Backend.Endpoints.Web = "" }, wantErr: "backend.endpoints.web"},
		{name: "negative timeout", mutate: func(c *Config) { c.Backend.Timeout = -time.Second }, wantErr: "timeout"},
		{name: "negative history limit", mutate: func(c *Config) { c.History.Limit = -1 }, wantErr: "history.limit"},
		{name: "unknown secrets backend", mutate: func(c *Config) { c.Secrets.Backend = "vault" }, wantErr: "secrets.backend"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tc.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.wantErr)
		})
	}
}
