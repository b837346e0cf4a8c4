package main

import (
	"fmt"

	"github.com/bitfantasy/nimo-req/internal/config"
	"github.com/bitfantasy/nimo-req/internal/database"
	"github.com/bitfantasy/nimo-req/internal/logger"
	"github.com/bitfantasy/nimo-req/internal/requirement/repository"
	"github.com/bitfantasy/nimo-req/internal/requirement/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app is the wiring shared by every subcommand. No event publisher: the CLI
// has no connected browsers.
type app struct {
	db       *gorm.DB
	logger   *zap.Logger
	services *service.Services
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.Open(cfg.Database, logger.GormLevel(cfg.Log.Level))
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)
	return &app{
		db:       db,
		logger:   zapLogger,
		services: service.NewServices(repos, nil, cfg.Requirement, zapLogger),
	}, nil
}

func (a *app) Close() {
	a.logger.Sync()
	database.Close(a.db)
}
