package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-leadform/pkg/engine"
	"github.com/goliatone/go-leadform/pkg/store"
)

// keyedMutex serialises work per session id. Entries are dropped once no
// request holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns the matching unlock.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &keyedLock{}
		k.locks[key] = lock
	}
	lock.refs++
	k.mu.Unlock()

	lock.Lock()
	return func() {
		lock.Unlock()
		k.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// lockGrace keeps a store lock alive a little past the request deadline.
const lockGrace = 5 * time.Second

// lockSession serialises work on sid, first within this process and then
// across every instance sharing the store.
func (s *Server) lockSession(ctx context.Context, sid string) (func(), error) {
	release := s.locks.Lock(sid)
	unlock, err := store.Lock(ctx, s.store, sid, s.cfg.RequestTimeout+lockGrace)
	if err != nil {
		release()
		return nil, err
	}
	return func() {
		if err := unlock(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("session", sid).Msg("release session lock")
		}
		release()
	}, nil
}

// forgetSubmitted drops a booked session once its confirmation has been
// shown; a reload then starts over.
func (s *Server) forgetSubmitted(ctx context.Context, sid string, sess *engine.Session) {
	if sess.Status() != engine.StatusSubmitted {
		return
	}
	if err := s.store.Delete(ctx, sid); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("session", sid).Msg("delete submitted session")
	}
}

const tokenLength = 32

// formToken binds a step form to its session id.
func (s *Server) formToken(sid string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.Secret))
	mac.Write([]byte(sid))
	return hex.EncodeToString(mac.Sum(nil))[:tokenLength]
}

func (s *Server) validToken(sid, token string) bool {
	return hmac.Equal([]byte(s.formToken(sid)), []byte(strings.TrimSpace(token)))
}

func (s *Server) sessionOptions(ctx context.Context) []engine.Option {
	return []engine.Option{
		engine.WithSubmitter(s.submitter),
		engine.WithObserver(s.metrics),
		engine.WithLogger(*zerolog.Ctx(ctx)),
	}
}

// startSession creates and stores a session at the first step.
func (s *Server) startSession(ctx context.Context) (string, *engine.Session, error) {
	sess, err := s.flows.Start(ctx, s.catalog.ID, s.sessionOptions(ctx)...)
	if err != nil {
		return "", nil, err
	}
	sid := store.NewID()
	if err := s.saveSession(ctx, sid, sess); err != nil {
		return "", nil, err
	}
	s.metrics.SessionStarted(s.catalog.ID)
	zerolog.Ctx(ctx).Debug().Str("session", sid).Msg("session started")
	return sid, sess, nil
}

// loadSession restores sid. Callers hold the session lock.
func (s *Server) loadSession(ctx context.Context, sid string) (*engine.Session, error) {
	if !store.ValidID(sid) {
		return nil, store.ErrNotFound
	}
	state, err := s.store.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	if state.CatalogID != s.catalog.ID {
		return nil, fmt.Errorf("server: session %s: %w: catalog %q", sid, engine.ErrInvalidState, state.CatalogID)
	}
	sess, err := s.flows.Restore(ctx, state, s.sessionOptions(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("server: restore session %s: %w", sid, err)
	}
	return sess, nil
}

func (s *Server) saveSession(ctx context.Context, sid string, sess *engine.Session) error {
	return s.store.Save(ctx, sid, sess.State(), s.cfg.SessionTTL)
}

// sessionURL is where a session is shown in layout.
func sessionURL(sid string, modal bool) string {
	if modal {
		return "/?book=" + url.QueryEscape(sid) + "#booking"
	}
	return "/apply/form/" + url.PathEscape(sid)
}

func actionURL(sid string, modal bool) string {
	u := "/apply/form/" + url.PathEscape(sid)
	if modal {
		u += "?layout=modal"
	}
	return u
}
