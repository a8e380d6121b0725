package redis

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// redisAddr returns the server used by integration tests, skipping when
// none is configured.
func redisAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("KVSYNC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("KVSYNC_TEST_REDIS_ADDR not set")
	}
	return addr
}

func TestNew_RequiresAddr(t *testing.T) {
	_, err := New(context.Background(), Options{}, nil)
	assert.ErrorContains(t, err, "address is required")
}

func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := New(ctx, Options{Addr: "127.0.0.1:1"}, nil)
	assert.ErrorContains(t, err, "connect to redis")
}

func TestNewWithClient_DefaultTTL(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	l := NewWithClient(client, 0, nil)
	assert.Equal(t, DefaultTTL, l.ttl)
	assert.Equal(t, DefaultTTL/3, l.refreshEvery)
}

// fakeLock counts refreshes and releases.
type fakeLock struct {
	mu         sync.Mutex
	refreshes  int
	releases   int
	refreshErr error
	ttls       []time.Duration
}

func (f *fakeLock) Refresh(_ context.Context, ttl time.Duration, _ *redislock.Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	f.ttls = append(f.ttls, ttl)
	return f.refreshErr
}

func (f *fakeLock) Release(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	if f.releases > 1 {
		return redislock.ErrLockNotHeld
	}
	return nil
}

func (f *fakeLock) counts() (refreshes, releases int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes, f.releases
}

func newOfflineLock(t *testing.T, ttl, refreshEvery time.Duration) *Lock {
	t.Helper()
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	l := NewWithClient(client, ttl, nil)
	l.refreshEvery = refreshEvery
	return l
}

func TestNewWithClient_RefreshesEveryThirdOfTTL(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	l := NewWithClient(client, 90*time.Second, nil)
	assert.Equal(t, 30*time.Second, l.refreshEvery)
}

func TestLock_HoldRefreshesUntilRelease(t *testing.T) {
	l := newOfflineLock(t, time.Minute, 5*time.Millisecond)
	held := &fakeLock{}

	release := l.hold("kvsync:run", held)

	require.Eventually(t, func() bool {
		refreshes, _ := held.counts()
		return refreshes >= 3
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, release(context.Background()))
	refreshes, releases := held.counts()
	assert.Equal(t, 1, releases)

	time.Sleep(30 * time.Millisecond)
	after, _ := held.counts()
	assert.Equal(t, refreshes, after, "no refresh after release")

	held.mu.Lock()
	for _, ttl := range held.ttls {
		assert.Equal(t, time.Minute, ttl)
	}
	held.mu.Unlock()

	// A second release reaches Redis, which no longer holds the key.
	require.NoError(t, release(context.Background()))
}

func TestLock_HoldStopsRefreshingWhenLost(t *testing.T) {
	l := newOfflineLock(t, time.Minute, 5*time.Millisecond)
	held := &fakeLock{refreshErr: redislock.ErrNotObtained}

	release := l.hold("kvsync:run", held)

	require.Eventually(t, func() bool {
		refreshes, _ := held.counts()
		return refreshes == 1
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	refreshes, _ := held.counts()
	assert.Equal(t, 1, refreshes)
	require.NoError(t, release(context.Background()))
}

func TestLock_HoldRetriesTransientRefreshErrors(t *testing.T) {
	l := newOfflineLock(t, time.Minute, 5*time.Millisecond)
	held := &fakeLock{refreshErr: errors.New("i/o timeout")}

	release := l.hold("kvsync:run", held)
	defer func() { _ = release(context.Background()) }()

	require.Eventually(t, func() bool {
		refreshes, _ := held.counts()
		return refreshes >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLock_AcquireRelease(t *testing.T) {
	addr := redisAddr(t)
	ctx := context.Background()

	l, err := New(ctx, Options{Addr: addr, TTL: 10 * time.Second}, nil)
	require.NoError(t, err)
	defer l.Close()

	key := "kvsync:test:" + t.Name()
	release, err := l.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, key)
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)

	require.NoError(t, release(ctx))
	// Releasing twice is tolerated.
	require.NoError(t, release(ctx))

	release, err = l.Acquire(ctx, key)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}
