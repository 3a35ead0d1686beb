// Package connstore holds live handles for proxied database access. It is
// not copilot-specific: handles are created when a caller attaches an
// external database and expire on a TTL.
package connstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTTL        = 15 * time.Minute
	DefaultMaxHandles = 100
)

var (
	ErrTooManyHandles = errors.New("too many live connection handles")
	ErrNotFound       = errors.New("connection handle not found")
)

// Handle describes one attached external database.
type Handle struct {
	ID        string         `json:"id"`
	Backend   string         `json:"backend"` // postgres, clickhouse, sqlite, ...
	DSN       string         `json:"-"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

func (h *Handle) expired(now time.Time) bool {
	return now.After(h.ExpiresAt)
}

// Store is a mutex-guarded handle map with a TTL and a hard cap on live
// handles, enforced at creation time.
type Store struct {
	mu      sync.Mutex
	handles map[string]*Handle
	ttl     time.Duration
	max     int
}

func New(ttl time.Duration, maxHandles int) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxHandles <= 0 {
		maxHandles = DefaultMaxHandles
	}
	return &Store{
		handles: make(map[string]*Handle),
		ttl:     ttl,
		max:     maxHandles,
	}
}

// Create registers a new handle. Callers over the cap must retry later or
// free existing handles.
func (s *Store) Create(backend, dsn string, meta map[string]any) (*Handle, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)
	if len(s.handles) >= s.max {
		return nil, fmt.Errorf("%w (cap %d)", ErrTooManyHandles, s.max)
	}

	h := &Handle{
		ID:        uuid.New().String()[:8],
		Backend:   backend,
		DSN:       dsn,
		Meta:      meta,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.handles[h.ID] = h
	return h, nil
}

// Get returns a live handle, expiring it on the way if its TTL has passed.
func (s *Store) Get(id string) (*Handle, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handles[id]
	if !ok {
		return nil, ErrNotFound
	}
	if h.expired(now) {
		delete(s.handles, id)
		return nil, ErrNotFound
	}
	return h, nil
}

// Delete frees a handle. Deleting an unknown handle is not an error.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handles, id)
}

// Len reports the number of live (unswept) handles.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(time.Now())
	return len(s.handles)
}

// Run sweeps expired handles on an interval until ctx is cancelled. The
// store stays correct without it (Create and Get expiry-check on their own);
// the sweeper keeps an idle store from holding dead handles in memory.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.mu.Lock()
			s.sweepLocked(now)
			s.mu.Unlock()
		}
	}
}

func (s *Store) sweepLocked(now time.Time) {
	for id, h := range s.handles {
		if h.expired(now) {
			delete(s.handles, id)
		}
	}
}
