package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kestrelpay/switchboard-backend/pkg/config"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
	"github.com/kestrelpay/switchboard-backend/pkg/logger"
)

const (
	defaultTTL            = 3 * time.Minute
	defaultAcquireTimeout = 2 * time.Second
	defaultRetryInterval  = 100 * time.Millisecond
)

// Action tells the coordinator whether an operation needs the lock at all.
type Action int

const (
	// ActionHold acquires the lock before phase 1 and releases after phase 4.
	ActionHold Action = iota
	// ActionNotApplicable skips locking (read-only operations such as sync).
	ActionNotApplicable
)

// Store is the key-value surface the coordinator needs.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Coordinator serializes pipeline invocations per resource key. At most one
// holder exists per key; a second caller waits up to the acquire timeout and
// then fails with a Conflict error. The TTL bounds worst-case staleness when
// a release is lost.
type Coordinator struct {
	store          Store
	logg           *logger.Logger
	ttl            time.Duration
	acquireTimeout time.Duration
	retryInterval  time.Duration
}

// Handle represents an acquired lock.
type Handle struct {
	key   string
	owner string
}

// New builds a Coordinator from the lock configuration.
func New(store Store, cfg config.LockConfig, logg *logger.Logger) (*Coordinator, error) {
	if store == nil {
		return nil, errors.New("lock store required")
	}
	c := &Coordinator{
		store:          store,
		logg:           logg,
		ttl:            cfg.TTL,
		acquireTimeout: cfg.AcquireTimeout,
		retryInterval:  cfg.RetryInterval,
	}
	if c.ttl <= 0 {
		c.ttl = defaultTTL
	}
	if c.acquireTimeout <= 0 {
		c.acquireTimeout = defaultAcquireTimeout
	}
	if c.retryInterval <= 0 {
		c.retryInterval = defaultRetryInterval
	}
	return c, nil
}

// Acquire obtains the lock for key, retrying until the acquire timeout
// elapses. Contention is reported as a Conflict error; the coordinator never
// retries beyond the timeout on the caller's behalf.
func (c *Coordinator) Acquire(ctx context.Context, key string) (*Handle, error) {
	owner := uuid.NewString()
	deadline := time.Now().Add(c.acquireTimeout)

	for {
		ok, err := c.store.SetNX(ctx, key, owner, c.ttl)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "acquire lock")
		}
		if ok {
			return &Handle{key: key, owner: owner}, nil
		}
		if time.Now().After(deadline) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("resource %s is locked by a concurrent request", key))
		}
		select {
		case <-ctx.Done():
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, ctx.Err(), "lock acquisition cancelled")
		case <-time.After(c.retryInterval):
		}
	}
}

// Release frees the lock only while the owner token still matches, so an
// expired-and-reacquired lock is never deleted from under its new holder.
// Best effort: the TTL covers lost releases.
func (c *Coordinator) Release(ctx context.Context, handle *Handle) error {
	if handle == nil || handle.owner == "" {
		return nil
	}
	value, err := c.store.Get(ctx, handle.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != handle.owner {
		return nil
	}
	if err := c.store.Del(ctx, handle.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	handle.owner = ""
	return nil
}

// WithLock runs body under the lock for key. With ActionNotApplicable the
// body runs immediately. Release happens on every exit path, including error
// returns and panics.
func (c *Coordinator) WithLock(ctx context.Context, key string, action Action, body func(ctx context.Context) error) error {
	if action == ActionNotApplicable {
		return body(ctx)
	}

	handle, err := c.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := c.Release(ctx, handle); relErr != nil && c.logg != nil {
			c.logg.Error(ctx, "failed to release payment lock", relErr)
		}
	}()

	return body(ctx)
}
