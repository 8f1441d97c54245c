package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/goliatone/go-leadform/pkg/engine"
)

// RedisOptions configures the redis backend.
type RedisOptions struct {
	Addr     string
	DB       int
	Password string
}

// UnlockScript deletes the lock only while it still holds the caller's token.
const UnlockScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// RedisOption customises the redis backend.
type RedisOption func(*Redis)

// WithLockTokens overrides how lock tokens are generated.
func WithLockTokens(fn func() string) RedisOption {
	return func(r *Redis) {
		if fn != nil {
			r.tokens = fn
		}
	}
}

// Redis keeps sessions in redis so several server instances can share them.
type Redis struct {
	client *redis.Client
	tokens func() string
}

// NewRedis dials lazily; the first command surfaces connection errors.
func NewRedis(opts RedisOptions, options ...RedisOption) (*Redis, error) {
	if opts.Addr == "" {
		return nil, errors.New("store: redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		DB:       opts.DB,
		Password: opts.Password,
	})
	return NewRedisWithClient(client, options...), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, options ...RedisOption) *Redis {
	r := &Redis{client: client, tokens: NewID}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Redis) Load(ctx context.Context, id string) (engine.State, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return engine.State{}, ErrNotFound
	}
	if err != nil {
		return engine.State{}, fmt.Errorf("store: load %s: %w", id, err)
	}
	return decode(raw)
}

func (r *Redis) Save(ctx context.Context, id string, state engine.State, ttl time.Duration) error {
	raw, err := encode(state)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, sessionKey(id), raw, ttl).Err(); err != nil {
		return fmt.Errorf("store: save %s: %w", id, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	return nil
}

// TryLock uses SETNX with an expiry so the lock is shared by every instance.
func (r *Redis) TryLock(ctx context.Context, id string, ttl time.Duration) (string, error) {
	token := r.tokens()
	ok, err := r.client.SetNX(ctx, lockKey(id), token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("store: lock %s: %w", id, err)
	}
	if !ok {
		return "", ErrLocked
	}
	return token, nil
}

func (r *Redis) Unlock(ctx context.Context, id, token string) error {
	if err := r.client.Eval(ctx, UnlockScript, []string{lockKey(id)}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("store: unlock %s: %w", id, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
