// Package backend opens the gateway selected by configuration.
package backend

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/config"
	"github.com/Nixie-Tech-LLC/signton/internal/gateway"
	"github.com/Nixie-Tech-LLC/signton/internal/gateway/postgres"
	"github.com/Nixie-Tech-LLC/signton/internal/gateway/redis"
	"github.com/Nixie-Tech-LLC/signton/internal/gateway/sqlite"
)

// Gateway is a gateway that holds connections until closed.
type Gateway interface {
	gateway.Gateway
	io.Closer
}

// Open selects and returns the configured storage backend.
func Open(ctx context.Context, cfg *config.Config) (Gateway, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		g, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.MigrationsPath)
		if err != nil {
			return nil, fmt.Errorf("postgres gateway: %w", err)
		}
		log.Info().Msg("Using PostgreSQL document store")
		return g, nil

	case config.BackendRedis:
		g, err := redis.Open(ctx, redis.Options{
			Address:  cfg.RedisAddress,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("redis gateway: %w", err)
		}
		log.Info().Str("addr", cfg.RedisAddress).Msg("Using Redis document store")
		return g, nil

	case config.BackendSQLite:
		g, err := sqlite.Open(ctx, cfg.SQLitePath, 0)
		if err != nil {
			return nil, fmt.Errorf("sqlite gateway: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("Using SQLite document store")
		return g, nil

	case config.BackendMemory, "":
		log.Warn().Msg("Using in-memory document store; data is lost on restart")
		return gateway.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
