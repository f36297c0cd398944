package cmd

import (
	"fmt"
	"net/http"
	"time"

	authadapter "github.com/bnema/px-cli/internal/adapters/auth"
	"github.com/bnema/px-cli/internal/adapters/backend"
	answeradapter "github.com/bnema/px-cli/internal/adapters/render/answer"
	tomlrepo "github.com/bnema/px-cli/internal/adapters/repo/toml"
	chainstore "github.com/bnema/px-cli/internal/adapters/secrets/chain"
	filestore "github.com/bnema/px-cli/internal/adapters/secrets/file"
	passstore "github.com/bnema/px-cli/internal/adapters/secrets/pass"
	"github.com/bnema/px-cli/internal/application"
	"github.com/bnema/px-cli/internal/config"
	"github.com/bnema/px-cli/internal/domain"
	"github.com/bnema/px-cli/internal/logger"
	"github.com/bnema/px-cli/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type app struct {
	cfg      config.Config
	logger   *zap.Logger
	session  *application.Session
	auth     *application.AuthService
	history  *application.HistoryService
	renderer func(domain.SessionState, answeradapter.RenderOptions) (string, error)
	now      func() time.Time
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	secretStore, err := wireSecretStore(cfg.Secrets, log)
	if err != nil {
		return nil, fmt.Errorf("wire secret store: %w", err)
	}

	repo, err := tomlrepo.NewRepository(cfg.History.Path, cfg.History.Limit)
	if err != nil {
		return nil, fmt.Errorf("wire history repository: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.Backend.Timeout}
	clock := ports.SystemClock{}

	authFlow := &authadapter.PasswordFlow{
		API: authadapter.API{
			BaseURL:      cfg.Backend.BaseURL,
			LoginPath:    cfg.Backend.LoginPath,
			RegisterPath: cfg.Backend.RegisterPath,
		},
		HTTPClient: httpClient,
		Now:        clock.Now,
	}
	authService := application.NewAuthService(authFlow, secretStore, clock, log)

	source := backend.NewStreamSource(cfg.Backend.BaseURL, cfg.Backend.Endpoints.ByMode(), httpClient, log)

	log.Debug("wired app",
		zap.String("base_url", cfg.Backend.BaseURL),
		zap.String("history_path", repo.Path()),
		zap.String("secrets_backend", cfg.Secrets.Backend),
	)

	return &app{
		cfg:      cfg,
		logger:   log,
		session:  application.NewSession(source, authService, log),
		auth:     authService,
		history:  application.NewHistoryService(repo, clock, log),
		renderer: answeradapter.Render,
		now:      time.Now,
	}, nil
}

func wireSecretStore(cfg config.SecretsConfig, log *zap.Logger) (ports.SecretStore, error) {
	switch cfg.Backend {
	case config.SecretsBackendFile:
		return filestore.NewStore(cfg.Dir), nil
	case config.SecretsBackendPass:
		return passstore.NewStore(), nil
	default:
		return chainstore.NewPassFirstWithFileFallback(cfg.Dir, log)
	}
}
