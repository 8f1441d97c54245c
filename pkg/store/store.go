package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-leadform/pkg/engine"
)

var (
	// ErrNotFound is returned when a session id is unknown or expired.
	ErrNotFound = errors.New("store: session not found")
	// ErrLocked is returned by TryLock while another holder owns the lock.
	ErrLocked = errors.New("store: session locked")
)

const (
	keyPrefix     = "leadform:session:"
	lockKeyPrefix = "leadform:lock:"

	lockPollInterval = 15 * time.Millisecond
)

// Store persists engine snapshots between requests.
type Store interface {
	Load(ctx context.Context, id string) (engine.State, error)
	Save(ctx context.Context, id string, state engine.State, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Locker
	Close() error
}

// Locker guards one session across every process sharing the backend. A
// lock expires after its ttl so a crashed holder cannot wedge a session.
type Locker interface {
	// TryLock takes the lock for id and returns the token that releases it,
	// or ErrLocked when it is held.
	TryLock(ctx context.Context, id string, ttl time.Duration) (string, error)
	// Unlock releases the lock if token still owns it.
	Unlock(ctx context.Context, id, token string) error
}

// Lock polls TryLock until the lock is taken or ctx ends. The returned func
// releases it and keeps working after ctx is cancelled.
func Lock(ctx context.Context, locker Locker, id string, ttl time.Duration) (func() error, error) {
	var ticker *time.Ticker
	for {
		token, err := locker.TryLock(ctx, id, ttl)
		if err == nil {
			release := context.WithoutCancel(ctx)
			return func() error {
				return locker.Unlock(release, id, token)
			}, nil
		}
		if !errors.Is(err, ErrLocked) {
			return nil, err
		}
		if ticker == nil {
			ticker = time.NewTicker(lockPollInterval)
			defer ticker.Stop()
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("store: lock %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape NewID produces.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func sessionKey(id string) string {
	return keyPrefix + id
}

func lockKey(id string) string {
	return lockKeyPrefix + id
}

func encode(state engine.State) (string, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("store: encode session: %w", err)
	}
	return string(raw), nil
}

func decode(raw string) (engine.State, error) {
	var state engine.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return engine.State{}, fmt.Errorf("store: decode session: %w", err)
	}
	return state, nil
}

// Config selects a backend.
type Config struct {
	// Backend is "memory" (buntdb) or "redis".
	Backend   string
	Path      string
	RedisAddr string
	RedisDB   int
	Password  string
}

// Open builds the backend named by cfg.
func Open(cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory", "buntdb":
		return OpenBunt(cfg.Path)
	case "redis":
		return NewRedis(RedisOptions{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Password: cfg.Password})
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}
