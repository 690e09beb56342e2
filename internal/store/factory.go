package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hydratutor/internal/config"
	"hydratutor/internal/constants"
	"hydratutor/internal/logging"
)

const connectTimeout = 5 * time.Second

// NewStore picks the backend named by cfg.Store. A Redis that cannot be
// reached falls back to SQLite, and SQLite falls back to memory.
func NewStore(cfg *config.Config, log *zap.Logger) (StoreInterface, error) {
	log = logging.OrNop(log)

	switch cfg.Store {
	case constants.StoreMemory:
		log.Debug("using in-memory stash store")
		return NewMemoryStore(), nil

	case constants.StoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		st, err := NewRedisStore(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Username, cfg.Redis.Password, 0)
		if err == nil {
			log.Info("using Redis stash store", zap.String("addr", cfg.Redis.Host+":"+cfg.Redis.Port))
			return st, nil
		}
		log.Warn("Redis connection failed, falling back to SQLite", zap.Error(err))
	}

	st, err := NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		log.Warn("SQLite stash store unavailable, falling back to memory", zap.Error(err))
		return NewMemoryStore(), nil
	}
	log.Debug("using SQLite stash store", zap.String("path", st.Path()))
	return st, nil
}
