// db.go
//
// Backend selection for the bot engine.
// Responsibilities:
//   - Open the configured Repository (memory, SQLite with embedded migrations,
//     or Postgres through gorm).
//   - Choose the player Locker: Redis when REDIS_ADDR is set, else in-process.
//
// Each opener returns a close func that main defers.

package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/bot-engine/assets"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/config"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/game"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/lock"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/store"
)

// openStore opens the Repository named by cfg.Driver.
func openStore(cfg config.StoreConfig) (game.Repository, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory store; games are lost on restart")
		return store.NewMemory(), func() {}, nil

	case config.DriverSQLite:
		db, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		if err := store.Migrate(db, assets.Migrations()); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite store ready")
		return store.NewSQLite(db), func() { _ = db.Close() }, nil

	case config.DriverPostgres:
		gdb, err := store.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		repo, err := store.NewPostgres(gdb)
		if err != nil {
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		closer := func() {
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		log.Info().Msg("postgres store ready")
		return repo, closer, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// openLocker connects to Redis when configured and falls back to an
// in-process lock otherwise.
func openLocker(cfg config.RedisConfig, ttl time.Duration) (game.Locker, func(), error) {
	if cfg.Addr == "" {
		return lock.NewLocal(), func() {}, nil
	}

	var tlsConfig *tls.Config
	if cfg.TLS {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Username:  cfg.Username,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConfig,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	log.Info().Str("addr", cfg.Addr).Str("pong", pong).Msg("redis connected; using distributed player locks")
	return lock.NewRedis(rdb, "wordle:lock:", ttl), func() { _ = rdb.Close() }, nil
}
