package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arzan03/usermanager/internal/config"
	"github.com/arzan03/usermanager/internal/db"
	"github.com/arzan03/usermanager/internal/logger"
	"github.com/arzan03/usermanager/internal/server"
	"github.com/arzan03/usermanager/internal/services"
	"github.com/arzan03/usermanager/internal/storage"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, closeStore, err := openUserStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open user store", zap.Error(err))
	}
	defer closeStore()

	files, err := openFileStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open file storage", zap.Error(err))
	}

	srv := server.New(cfg, users, files)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if _, err := srv.Auth.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			logger.Fatal("Failed to provision admin user", zap.Error(err))
		}
	} else {
		logger.Warn("ROOT_USER_EMAIL or ROOT_USER_PASSWORD not set, skipping admin provisioning")
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Environment))
		errCh <- srv.App.Listen(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.App.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			logger.Error("Shutdown failed", zap.Error(err))
		}
	}
}

func openUserStore(ctx context.Context, cfg *config.Config) (services.UserStore, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("Using in-memory user store, data is lost on restart")
		return db.NewMemoryUserRepository(), func() {}, nil
	}

	client, err := db.ConnectMongoDB(ctx, cfg.Database.URI)
	if err != nil {
		return nil, nil, err
	}

	repo := db.NewUserRepository(client.Database(cfg.Database.Name))
	if err := repo.EnsureIndexes(ctx); err != nil {
		db.DisconnectMongoDB(client)
		return nil, nil, err
	}
	return repo, func() { db.DisconnectMongoDB(client) }, nil
}

func openFileStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.Upload.Driver == config.StorageMinio {
		return storage.NewMinioStore(ctx, cfg.Minio)
	}
	return storage.NewLocalStore(cfg.Upload.Dir, "/uploads")
}
