package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/uow"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig configures a RedisLocker
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	TTL         time.Duration
	WaitTimeout time.Duration
	KeyPrefix   string
}

// RedisLocker is a KeyLocker backed by bsm/redislock, for deployments where
// several processes write to the same database
type RedisLocker struct {
	client *redis.Client
	locker *redislock.Client
	cfg    RedisConfig
	logger *zap.Logger
}

// NewRedisLocker connects to Redis and verifies the connection
func NewRedisLocker(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisLockerFromClient(client, cfg, logger), nil
}

// NewRedisLockerFromClient wraps an existing client
func NewRedisLockerFromClient(client *redis.Client, cfg RedisConfig, logger *zap.Logger) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 5 * time.Second
	}
	return &RedisLocker{
		client: client,
		locker: redislock.New(client),
		cfg:    cfg,
		logger: logger,
	}
}

// Acquire obtains every key, retrying with linear backoff until WaitTimeout
func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	held := make([]*redislock.Lock, 0, len(keys))

	waitCtx, cancel := context.WithTimeout(ctx, l.cfg.WaitTimeout)
	defer cancel()

	for _, k := range keys {
		lk, err := l.locker.Obtain(waitCtx, l.cfg.KeyPrefix+k, l.cfg.TTL, &redislock.Options{
			RetryStrategy: redislock.LinearBackoff(50 * time.Millisecond),
		})
		if err != nil {
			l.release(held)
			if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
				return nil, shared.Newf(shared.CodeLockNotObtained, "Could not obtain lock %q", k)
			}
			return nil, fmt.Errorf("failed to obtain lock %q: %w", k, err)
		}
		held = append(held, lk)
	}
	return func() { l.release(held) }, nil
}

func (l *RedisLocker) release(held []*redislock.Lock) {
	// The caller's context may already be done.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := len(held) - 1; i >= 0; i-- {
		if err := held[i].Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release lock", zap.String("key", held[i].Key()), zap.Error(err))
		}
	}
}

// Close closes the Redis client
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

var _ uow.KeyLocker = (*RedisLocker)(nil)
