// Command server runs the grid manager HTTP API.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sakif/grid-manager/internal/auth"
	"github.com/sakif/grid-manager/internal/config"
	"github.com/sakif/grid-manager/internal/repository"
	"github.com/sakif/grid-manager/internal/repository/memory"
	"github.com/sakif/grid-manager/internal/repository/sqlite"
	"github.com/sakif/grid-manager/internal/seed"
	"github.com/sakif/grid-manager/internal/server"
)

func main() {
	cfg, err := config.Load(config.DotFile())
	if err != nil {
		log.Fatalf("Cannot load configuration: %v\n", err)
	}

	var logger *zap.Logger
	if cfg.Production() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Cannot initialize logger: %v\n", err)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Env,
			Debug:       !cfg.Production(),
		}); err != nil {
			logger.Fatal("Cannot initialize sentry", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)

		core, err := zapsentry.NewCore(zapsentry.Configuration{
			Level: zapcore.ErrorLevel,
			Tags: map[string]string{
				"component": "api",
			},
		}, zapsentry.NewSentryClientFromClient(sentry.CurrentHub().Client()))
		if err != nil {
			logger.Fatal("Cannot attach sentry to logger", zap.Error(err))
		}
		logger = zapsentry.AttachCoreToLogger(core, logger)
	}
	defer logger.Sync()

	store, err := openStorage(cfg, logger)
	if err != nil {
		logger.Fatal("Cannot open storage",
			zap.String("driver", cfg.StorageDriver),
			zap.Error(err),
		)
	}

	passwords := auth.NewPasswordService()
	ctx := context.Background()

	if cfg.SeedSampleData {
		if err := seed.Sample(ctx, store, logger.Named("seed")); err != nil {
			logger.Fatal("Cannot load sample data", zap.Error(err))
		}
	}
	if cfg.AdminUsername != "" {
		err := seed.Admin(ctx, store, passwords, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail, logger.Named("seed"))
		if err != nil {
			logger.Fatal("Cannot create admin account", zap.Error(err))
		}
	}

	srv, err := server.New(server.Options{
		Config:    cfg,
		Storage:   store,
		Logger:    logger,
		Passwords: passwords,
	})
	if err != nil {
		logger.Fatal("Cannot initialize server", zap.Error(err))
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func openStorage(cfg config.Config, logger *zap.Logger) (repository.Storage, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqlite.New(cfg.DBPath, logger.Named("sqlite"))
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
