package main

import (
	"context"
	"fmt"

	"askhub/internal/config"
	"askhub/internal/db"
	"askhub/internal/observ"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds what every command needs: config, logger and a migrated database.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func bootstrap(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observ.NewLogger(cfg.Env, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	gdb, err := db.Open(cfg.Database, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(ctx, gdb, logger); err != nil {
		_ = db.Close(gdb)
		_ = logger.Sync()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &app{cfg: cfg, logger: logger, db: gdb}, nil
}

func (a *app) close() {
	if err := db.Close(a.db); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}
