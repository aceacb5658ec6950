// Package session keeps one cart store per browsing session.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/uwenvati/omotailor/internal/cart"
	"github.com/uwenvati/omotailor/internal/storage"
)

const (
	DefaultIdleTTL = 30 * time.Minute

	restoreTimeout = 5 * time.Second
)

var ErrInvalidSessionID = errors.New("invalid session id")

type entry struct {
	store    *cart.Store
	lastUsed time.Time
}

// Registry caches restored cart stores. Stores idle for longer than the idle TTL are
// dropped by Sweep; their state stays in storage and is restored on the next Get.
type Registry struct {
	mu       sync.Mutex
	entries  map[string]*entry
	group    singleflight.Group
	storage  storage.Storage
	cartOpts []cart.Option
	idleTTL  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewRegistry(st storage.Storage, idleTTL time.Duration, logger *zap.Logger, opts ...cart.Option) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Registry{
		entries:  make(map[string]*entry),
		storage:  st,
		cartOpts: opts,
		idleTTL:  idleTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the store for sessionID, restoring it from storage on first use.
// A failed restore is returned and not cached, so the next call retries.
func (r *Registry) Get(ctx context.Context, sessionID string) (*cart.Store, error) {
	if sessionID == "" {
		return nil, ErrInvalidSessionID
	}
	if s, ok := r.touch(sessionID); ok {
		return s, nil
	}

	v, err, _ := r.group.Do(sessionID, func() (any, error) {
		if s, ok := r.touch(sessionID); ok {
			return s, nil
		}

		// one caller's cancellation must not fail the restore shared with the others
		restoreCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
		defer cancel()

		opts := append([]cart.Option{cart.WithLogger(r.logger.With(zap.String("session_id", sessionID)))}, r.cartOpts...)
		s, err := cart.NewStore(restoreCtx, storage.WithPrefix(r.storage, keyPrefix(sessionID)), opts...)
		if err != nil {
			r.logger.Warn("failed to restore session store", zap.String("session_id", sessionID), zap.Error(err))
			return nil, err
		}

		r.mu.Lock()
		r.entries[sessionID] = &entry{store: s, lastUsed: r.now()}
		r.mu.Unlock()

		r.logger.Debug("session store restored", zap.String("session_id", sessionID))
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cart.Store), nil
}

func (r *Registry) touch(sessionID string) (*cart.Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sessionID]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.store, true
}

// Forget drops the in-memory store for sessionID. Persisted state is kept.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	delete(r.entries, sessionID)
	r.mu.Unlock()
}

// Sweep drops every store not used within the idle TTL and reports how many it dropped.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			delete(r.entries, id)
			evicted++
		}
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("evicted idle session stores", zap.Int("evicted", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func keyPrefix(sessionID string) string {
	return "session:" + sessionID + ":"
}
