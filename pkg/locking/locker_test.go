package locking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/kestrelpay/switchboard-backend/pkg/config"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
)

type fakeStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string]string)}
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, exists := f.values[key]
	if !exists {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func newTestCoordinator(t *testing.T, store Store) *Coordinator {
	t.Helper()
	coord, err := New(store, config.LockConfig{
		TTL:            time.Minute,
		AcquireTimeout: 150 * time.Millisecond,
		RetryInterval:  10 * time.Millisecond,
	}, nil)
	require.NoError(t, err)
	return coord
}

func TestAcquireAndRelease(t *testing.T) {
	store := newFakeStore()
	coord := newTestCoordinator(t, store)
	ctx := context.Background()

	handle, err := coord.Acquire(ctx, "swb:lock:payment:m_1:pay_1")
	require.NoError(t, err)
	require.NotNil(t, handle)

	require.NoError(t, coord.Release(ctx, handle))

	// Reacquire succeeds once released.
	handle2, err := coord.Acquire(ctx, "swb:lock:payment:m_1:pay_1")
	require.NoError(t, err)
	require.NoError(t, coord.Release(ctx, handle2))
}

func TestAcquireContentionTimesOutWithConflict(t *testing.T) {
	store := newFakeStore()
	coord := newTestCoordinator(t, store)
	ctx := context.Background()

	handle, err := coord.Acquire(ctx, "swb:lock:payment:m_1:pay_1")
	require.NoError(t, err)
	defer func() { _ = coord.Release(ctx, handle) }()

	_, err = coord.Acquire(ctx, "swb:lock:payment:m_1:pay_1")
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestReleaseSkipsForeignOwner(t *testing.T) {
	store := newFakeStore()
	coord := newTestCoordinator(t, store)
	ctx := context.Background()

	handle, err := coord.Acquire(ctx, "swb:lock:payment:m_1:pay_1")
	require.NoError(t, err)

	// Simulate TTL expiry plus reacquisition by another holder.
	store.mu.Lock()
	store.values["swb:lock:payment:m_1:pay_1"] = "someone-else"
	store.mu.Unlock()

	require.NoError(t, coord.Release(ctx, handle))

	value, err := store.Get(ctx, "swb:lock:payment:m_1:pay_1")
	require.NoError(t, err)
	require.Equal(t, "someone-else", value)
}

func TestWithLockReleasesOnError(t *testing.T) {
	store := newFakeStore()
	coord := newTestCoordinator(t, store)
	ctx := context.Background()

	bodyErr := pkgerrors.New(pkgerrors.CodeStateConflict, "reject not allowed")
	err := coord.WithLock(ctx, "swb:lock:payment:m_1:pay_1", ActionHold, func(ctx context.Context) error {
		return bodyErr
	})
	require.ErrorIs(t, err, bodyErr)

	// Lock must be free again.
	handle, err := coord.Acquire(ctx, "swb:lock:payment:m_1:pay_1")
	require.NoError(t, err)
	require.NoError(t, coord.Release(ctx, handle))
}

func TestWithLockNotApplicableSkipsLocking(t *testing.T) {
	store := newFakeStore()
	coord := newTestCoordinator(t, store)
	ctx := context.Background()

	ran := false
	err := coord.WithLock(ctx, "swb:lock:payment:m_1:pay_1", ActionNotApplicable, func(ctx context.Context) error {
		ran = true
		_, exists := store.values["swb:lock:payment:m_1:pay_1"]
		require.False(t, exists)
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)
}

func TestWithLockSerializesConcurrentCallers(t *testing.T) {
	store := newFakeStore()
	coord := newTestCoordinator(t, store)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inBody  int
		maxSeen int
		wins    int
		losses  int
	)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := coord.WithLock(ctx, "swb:lock:payment:m_1:pay_1", ActionHold, func(ctx context.Context) error {
				mu.Lock()
				inBody++
				if inBody > maxSeen {
					maxSeen = inBody
				}
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				inBody--
				mu.Unlock()
				return nil
			})
			mu.Lock()
			if err == nil {
				wins++
			} else {
				require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
				losses++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 1, maxSeen, "no two bodies may overlap")
	require.GreaterOrEqual(t, wins, 1)
	require.Equal(t, 4, wins+losses)
}
