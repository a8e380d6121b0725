// Package redis provides a run lock shared between hosts through Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
	"github.com/kiotviet-integration/kvsync/internal/logger"
)

// DefaultTTL bounds how long a crashed holder keeps the lock.
const DefaultTTL = 5 * time.Minute

// heldLock is the part of *redislock.Lock a holder uses.
type heldLock interface {
	Refresh(ctx context.Context, ttl time.Duration, opt *redislock.Options) error
	Release(ctx context.Context) error
}

// Ensure Lock implements the interface.
var _ driven.RunLock = (*Lock)(nil)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// TTL is the lock lifetime. A held lock is refreshed every third of
	// it, so only a crashed holder lets it lapse.
	TTL time.Duration
}

// Lock is a distributed try-lock backed by redislock.
type Lock struct {
	client       *goredis.Client
	locker       *redislock.Client
	ttl          time.Duration
	refreshEvery time.Duration
	logger       *zap.Logger
}

// New connects to Redis. The connection is verified with PING.
func New(ctx context.Context, opts Options, log *zap.Logger) (*Lock, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", opts.Addr, err)
	}

	return NewWithClient(client, opts.TTL, log), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, ttl time.Duration, log *zap.Logger) *Lock {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Lock{
		client:       client,
		locker:       redislock.New(client),
		ttl:          ttl,
		refreshEvery: ttl / 3,
		logger:       logger.OrNop(log).Named("redislock"),
	}
}

// Acquire obtains the lock without retrying. A lock held elsewhere fails
// with domain.ErrSyncInProgress.
func (l *Lock) Acquire(ctx context.Context, key string) (driven.ReleaseFunc, error) {
	lock, err := l.locker.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("lock %q is held: %w", key, domain.ErrSyncInProgress)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %q: %w", key, err)
	}

	l.logger.Debug("lock obtained", zap.String("key", key), zap.Duration("ttl", l.ttl))

	return l.hold(key, lock), nil
}

// hold keeps the lock alive until the returned release is called.
func (l *Lock) hold(key string, lock heldLock) driven.ReleaseFunc {
	refreshCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.keepAlive(refreshCtx, key, lock)
	}()

	var stopOnce sync.Once
	return func(ctx context.Context) error {
		stopOnce.Do(func() {
			stop()
			<-done
		})

		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("lock expired before release", zap.String("key", key))
			return nil
		}
		if err != nil {
			return fmt.Errorf("release lock %q: %w", key, err)
		}
		return nil
	}
}

// keepAlive extends the TTL until ctx is cancelled or the lock is lost.
func (l *Lock) keepAlive(ctx context.Context, key string, lock heldLock) {
	ticker := time.NewTicker(l.refreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		err := lock.Refresh(ctx, l.ttl, nil)
		switch {
		case err == nil:
			l.logger.Debug("lock refreshed", zap.String("key", key))
		case ctx.Err() != nil:
			return
		case errors.Is(err, redislock.ErrNotObtained):
			l.logger.Warn("lock lost while held", zap.String("key", key))
			return
		default:
			// Transient; the next tick retries while the TTL still covers us.
			l.logger.Warn("lock refresh failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Close closes the Redis connection.
func (l *Lock) Close() error {
	return l.client.Close()
}
