package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"shopapi/internal/config"
	"shopapi/internal/platform/logger"
	"shopapi/internal/store"
	"shopapi/internal/user"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(context.Background(), cfg, zlog, adminFromEnv()); err != nil {
		zlog.Fatal("seed failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, zlog *zap.Logger, in user.RegisterInput) error {
	if cfg.StoreDriver == config.DriverMemory {
		return errors.New("seeding the in-memory store has no effect; set STORE_DRIVER to mongo or postgres")
	}

	repo, closeStore, err := store.Open(ctx, cfg, zlog)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	admin, outcome, err := seedAdmin(ctx, user.NewService(repo, zlog), in)
	if err != nil {
		return err
	}
	zlog.Info("superadmin ready", zap.String("user_id", admin.ID), zap.String("email", admin.Email), zap.String("outcome", outcome))
	return nil
}

func adminFromEnv() user.RegisterInput {
	return user.RegisterInput{
		FullName:        getEnv("SEED_ADMIN_NAME", "Administrador"),
		PaternalSurname: getEnv("SEED_ADMIN_PATERNAL_SURNAME", "Admin"),
		MaternalSurname: getEnv("SEED_ADMIN_MATERNAL_SURNAME", "Admin"),
		Email:           os.Getenv("SEED_ADMIN_EMAIL"),
		Password:        os.Getenv("SEED_ADMIN_PASSWORD"),
		Role:            user.RoleSuperadmin,
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
