package cache

import (
	"fmt"

	"go.uber.org/zap"

	appfiscal "github.com/fiscalflow/backend/internal/application/fiscal"
	"github.com/fiscalflow/backend/internal/infrastructure/config"
)

// SyncLockerFactory creates sync lockers based on configuration
type SyncLockerFactory struct {
	redisConfig           config.RedisConfig
	syncConfig            config.SyncConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SyncLockerFactoryOption is a functional option for configuring the factory
type SyncLockerFactoryOption func(*SyncLockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SyncLockerFactoryOption {
	return func(f *SyncLockerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory locker
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) SyncLockerFactoryOption {
	return func(f *SyncLockerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSyncLockerFactory creates a new factory
func NewSyncLockerFactory(redisCfg config.RedisConfig, syncCfg config.SyncConfig, opts ...SyncLockerFactoryOption) *SyncLockerFactory {
	f := &SyncLockerFactory{
		redisConfig:           redisCfg,
		syncConfig:            syncCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisLocker creates a Redis-based sync locker
func (f *SyncLockerFactory) CreateRedisLocker() (appfiscal.SyncLocker, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	locker, err := NewRedisSyncLocker(redisCfg, f.syncConfig.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis sync locker: %w", err)
	}

	return locker, nil
}

// CreateInMemoryLocker creates an in-memory sync locker
// This is suitable for single-instance deployments and testing
// WARNING: In-memory lockers do not share state across process instances,
// which can let two instances sync the same location concurrently
func (f *SyncLockerFactory) CreateInMemoryLocker() appfiscal.SyncLocker {
	return NewInMemorySyncLocker(f.syncConfig.LockTTL)
}

// CreateLocker creates a sync locker based on whether Redis is enabled.
// When Redis is enabled but unreachable it falls back to in-memory if
// AllowInMemoryFallback is true.
func (f *SyncLockerFactory) CreateLocker() (appfiscal.SyncLocker, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory sync locker")
		return f.CreateInMemoryLocker(), nil
	}

	locker, err := f.CreateRedisLocker()
	if err == nil {
		f.logger.Info("using Redis sync locker")
		return locker, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for sync locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory sync locker. "+
		"Two instances may sync the same location concurrently.",
		zap.Error(err),
	)
	return f.CreateInMemoryLocker(), nil
}
