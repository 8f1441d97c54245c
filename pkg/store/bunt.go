package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/goliatone/go-leadform/pkg/engine"
)

// Bunt keeps sessions in a buntdb database, in memory unless a path is given.
type Bunt struct {
	db     *buntdb.DB
	tokens func() string
}

// OpenBunt opens path, or ":memory:" when path is empty.
func OpenBunt(path string) (*Bunt, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open buntdb %s: %w", path, err)
	}
	return &Bunt{db: db, tokens: NewID}, nil
}

func (b *Bunt) Load(ctx context.Context, id string) (engine.State, error) {
	if err := ctx.Err(); err != nil {
		return engine.State{}, err
	}
	var raw string
	err := b.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(sessionKey(id))
		if err != nil {
			return err
		}
		raw = val
		return nil
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return engine.State{}, ErrNotFound
	}
	if err != nil {
		return engine.State{}, fmt.Errorf("store: load %s: %w", id, err)
	}
	return decode(raw)
}

func (b *Bunt) Save(ctx context.Context, id string, state engine.State, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := encode(state)
	if err != nil {
		return err
	}
	var opts *buntdb.SetOptions
	if ttl > 0 {
		opts = &buntdb.SetOptions{Expires: true, TTL: ttl}
	}
	return b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(sessionKey(id), raw, opts)
		return err
	})
}

func (b *Bunt) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(sessionKey(id))
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil
	}
	return err
}

// TryLock relies on buntdb serialising write transactions, so the check and
// the set cannot interleave with another caller.
func (b *Bunt) TryLock(ctx context.Context, id string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	token := b.tokens()
	var opts *buntdb.SetOptions
	if ttl > 0 {
		opts = &buntdb.SetOptions{Expires: true, TTL: ttl}
	}
	err := b.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Get(lockKey(id))
		if err == nil {
			return ErrLocked
		}
		if !errors.Is(err, buntdb.ErrNotFound) {
			return err
		}
		_, _, err = tx.Set(lockKey(id), token, opts)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrLocked) {
			return "", err
		}
		return "", fmt.Errorf("store: lock %s: %w", id, err)
	}
	return token, nil
}

func (b *Bunt) Unlock(_ context.Context, id, token string) error {
	err := b.db.Update(func(tx *buntdb.Tx) error {
		held, err := tx.Get(lockKey(id))
		if err != nil {
			return err
		}
		if held != token {
			return nil
		}
		_, err = tx.Delete(lockKey(id))
		return err
	})
	if err != nil && !errors.Is(err, buntdb.ErrNotFound) {
		return fmt.Errorf("store: unlock %s: %w", id, err)
	}
	return nil
}

func (b *Bunt) Close() error {
	return b.db.Close()
}
