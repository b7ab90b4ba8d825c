package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appfiscal "github.com/fiscalflow/backend/internal/application/fiscal"
)

// releaseScript deletes the lock only when it still carries the token this
// instance wrote. A holder whose lock expired and was re-acquired elsewhere
// must not delete the new holder's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisSyncLocker implements SyncLocker using Redis
// This is suitable for distributed deployments where multiple instances
// must not sync the same location concurrently
type RedisSyncLocker struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration

	mu     sync.Mutex
	tokens map[uuid.UUID]string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisSyncLocker creates a new Redis-based sync locker
func NewRedisSyncLocker(cfg RedisConfig, ttl time.Duration) (*RedisSyncLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisSyncLockerWithClient(client, "", ttl), nil
}

// NewRedisSyncLockerWithClient creates a locker with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisSyncLockerWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisSyncLocker {
	if keyPrefix == "" {
		keyPrefix = "fiscal:sync:lock:"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisSyncLocker{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		tokens:    make(map[uuid.UUID]string),
	}
}

// Acquire takes the lock for a location.
// Uses SETNX (SET if Not eXists) with a TTL in a single atomic operation, so
// a crashed holder releases the lock when the TTL lapses. The lock value is a
// per-acquire token that Release checks before deleting.
func (l *RedisSyncLocker) Acquire(ctx context.Context, locationID uuid.UUID) (bool, error) {
	key := l.lockKey(locationID)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if acquired {
		l.mu.Lock()
		l.tokens[locationID] = token
		l.mu.Unlock()
	}

	return acquired, nil
}

// Release frees the lock for a location if this instance still owns it.
// Releasing a lock that is not held, or that expired and now belongs to
// another holder, is a no-op.
func (l *RedisSyncLocker) Release(ctx context.Context, locationID uuid.UUID) error {
	l.mu.Lock()
	token, held := l.tokens[locationID]
	delete(l.tokens, locationID)
	l.mu.Unlock()
	if !held {
		return nil
	}

	key := l.lockKey(locationID)
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release sync lock: %w", err)
	}

	return nil
}

func (l *RedisSyncLocker) lockKey(locationID uuid.UUID) string {
	return l.keyPrefix + locationID.String()
}

// Close closes the Redis client
func (l *RedisSyncLocker) Close() error {
	return l.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (l *RedisSyncLocker) GetClient() *redis.Client {
	return l.client
}

// Ensure RedisSyncLocker implements SyncLocker
var _ appfiscal.SyncLocker = (*RedisSyncLocker)(nil)
