package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	envPrefix  = "PX"
	configDir  = ".config/px"
)

type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	History HistoryConfig `mapstructure:"history"`
	Secrets SecretsConfig `mapstructure:"secrets"`
	Log     LogConfig     `mapstructure:"log"`
}

type BackendConfig struct {
	BaseURL      string          `mapstructure:"base_url"`
	Endpoints    EndpointsConfig `mapstructure:"endpoints"`
	LoginPath    string          `mapstructure:"login_path"`
	RegisterPath string          `mapstructure:"register_path"`
	// Timeout bounds a whole request including the streamed body; zero
	// leaves streams open until the server ends them.
	Timeout time.Duration `mapstructure:"timeout"`
}

type EndpointsConfig struct {
	Fast string `mapstructure:"fast"`
	Web  string `mapstructure:"web"`
	Deep string `mapstructure:"deep"`
}

type HistoryConfig struct {
	Path  string `mapstructure:"path"`
	Limit int    `mapstructure:"limit"`
}

// Secret backends.
const (
	SecretsBackendAuto = "auto"
	SecretsBackendPass = "pass"
	SecretsBackendFile = "file"
)

type SecretsConfig struct {
	Dir string `mapstructure:"dir"`
	// Backend is auto (pass with file fallback), pass or file.
	Backend string `mapstructure:"backend"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load reads ~/.config/px/config.toml when present, then PX_* environment
// variables (PX_BACKEND_BASE_URL overrides backend.base_url).
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(homeDir, configDir)

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)
	setDefaults(v, dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.History.Path = expandHome(cfg.History.Path, homeDir)
	cfg.Secrets.Dir = expandHome(cfg.Secrets.Dir, homeDir)
	cfg.Log.File = expandHome(cfg.Log.File, homeDir)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.endpoints.fast", "/api/ask")
	v.SetDefault("backend.endpoints.web", "/api/search")
	v.SetDefault("backend.endpoints.deep", "/api/deep-research")
	v.SetDefault("backend.login_path", "/api/login")
	v.SetDefault("backend.register_path", "/api/register")
	v.SetDefault("backend.timeout", "0s")

	v.SetDefault("history.path", filepath.Join(dir, "history.toml"))
	v.SetDefault("history.limit", 200)

	v.SetDefault("secrets.dir", filepath.Join(dir, "secrets"))
	v.SetDefault("secrets.backend", SecretsBackendAuto)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dir, "px.log"))
}

func (c Config) Validate() error {
	base := strings.TrimSpace(c.Backend.BaseURL)
	if base == "" {
		return errors.New("backend.base_url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("parse backend.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("backend.base_url must use http or https")
	}
	if parsed.Host == "" {
		return errors.New("backend.base_url host is required")
	}

	for _, mode := range domain.Modes {
		if strings.TrimSpace(c.Backend.Endpoints.ForMode(mode)) == "" {
			return fmt.Errorf("backend.endpoints.%s is required", mode)
		}
	}

	if c.Backend.Timeout < 0 {
		return errors.New("backend.timeout must not be negative")
	}
	if c.History.Limit < 0 {
		return errors.New("history.limit must not be negative")
	}

	switch c.Secrets.Backend {
	case "", SecretsBackendAuto, SecretsBackendPass, SecretsBackendFile:
	default:
		return fmt.Errorf("secrets.backend must be one of auto, pass, file; got %q", c.Secrets.Backend)
	}

	return nil
}

func (e EndpointsConfig) ForMode(mode domain.Mode) string {
	switch mode {
	case domain.ModeFast:
		return e.Fast
	case domain.ModeWebSearch:
		return e.Web
	case domain.ModeDeep:
		return e.Deep
	default:
		return ""
	}
}

// ByMode returns the endpoint path of every mode.
func (e EndpointsConfig) ByMode() map[domain.Mode]string {
	paths := make(map[domain.Mode]string, len(domain.Modes))
	for _, mode := range domain.Modes {
		paths[mode] = e.ForMode(mode)
	}
	return paths
}

func expandHome(path, homeDir string) string {
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
