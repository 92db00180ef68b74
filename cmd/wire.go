package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/qirune/anyrouter-checkin/internal/adapters/notify"
	envsource "github.com/qirune/anyrouter-checkin/internal/adapters/repo/env"
	tomlrepo "github.com/qirune/anyrouter-checkin/internal/adapters/repo/toml"
	"github.com/qirune/anyrouter-checkin/internal/config"
	"github.com/qirune/anyrouter-checkin/internal/logging"
	"github.com/qirune/anyrouter-checkin/internal/ports"
)

type app struct {
	cfg      config.Runtime
	logger   *zap.Logger
	source   ports.AccountSource
	repo     *tomlrepo.Repository
	notifier *notify.Kit
	now      func() time.Time
}

func wireApp() (*app, error) {
	// A missing .env file is fine; explicit environment always wins.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger := logging.New(cfg.Debug)

	repo, err := tomlrepo.NewRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire accounts repository: %w", err)
	}

	// The environment variable takes precedence over the accounts file so CI
	// secrets override local configuration.
	var source ports.AccountSource = repo
	if os.Getenv(envsource.AccountsKey) != "" {
		source = envsource.NewSource()
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		source:   source,
		repo:     repo,
		notifier: notify.FromEnv(logger),
		now:      time.Now,
	}, nil
}
