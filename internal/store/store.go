package store

import (
	"context"
	"fmt"

	"shopapi/internal/config"
	"shopapi/internal/platform/mongodb"
	"shopapi/internal/platform/postgres"
	"shopapi/internal/user"

	"go.uber.org/zap"
)

// Open builds the user repository selected by cfg.StoreDriver. The returned
// cleanup releases the underlying connection and is never nil.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (user.Repository, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, func() {}, err
		}
		cleanup := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("mongodb disconnect failed", zap.Error(err))
			}
		}

		repo := user.NewMongoRepo(client.Database(cfg.MongoDatabase), cfg.DBTimeout)
		if err := repo.EnsureIndexes(ctx); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("ensure user indexes: %w", err)
		}
		logger.Info("store opened", zap.String("driver", cfg.StoreDriver), zap.String("database", cfg.MongoDatabase))
		return repo, cleanup, nil

	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, func() {}, err
		}
		logger.Info("store opened", zap.String("driver", cfg.StoreDriver), zap.String("dsn", postgres.RedactDSN(cfg.DatabaseDSN)))
		return user.NewPostgresRepo(pool, cfg.DBTimeout), pool.Close, nil

	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return user.NewMemoryRepo(), func() {}, nil

	default:
		return nil, func() {}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
