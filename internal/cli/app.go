package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/tenant"
	"github.com/Skotchmaster/marketplace/pkg/config"
	pkgdb "github.com/Skotchmaster/marketplace/pkg/db"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// app holds the resources every command needs: the default store
// database, the platform database and the tenant registry over both.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *gorm.DB
	platform *gorm.DB
	registry *tenant.Registry
}

func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := pkgdb.Open(openCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}
	platform, err := pkgdb.Open(openCtx, cfg.PlatformDatabaseURL)
	if err != nil {
		_ = pkgdb.Close(db)
		return nil, fmt.Errorf("open platform db: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		platform: platform,
		registry: tenant.NewRegistry(db, platform, cfg.TenantDir, cfg.BaseDomain),
	}, nil
}

func (a *app) migrate() error {
	if err := tenant.MigrateStore(a.db); err != nil {
		return fmt.Errorf("migrate store db: %w", err)
	}
	if err := tenant.MigratePlatform(a.platform); err != nil {
		return fmt.Errorf("migrate platform db: %w", err)
	}
	return nil
}

func (a *app) Close() {
	a.registry.Close()
	if err := pkgdb.Close(a.db); err != nil {
		a.logger.Warn("db_close_failed", "db", "store", "error", err)
	}
	if err := pkgdb.Close(a.platform); err != nil {
		a.logger.Warn("db_close_failed", "db", "platform", "error", err)
	}
}
