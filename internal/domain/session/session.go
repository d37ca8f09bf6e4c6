// Package session tracks in-flight games: the seed issued at game start and
// when it was issued. A submission without a live session is rejected before
// any replay work happens.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
	"github.com/SuperSonnix71/Xnake/pkg/metrics"
)

// Defaults for session lifetime and sweep cadence.
const (
	DefaultTTL           = 30 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

// Registry is an in-memory session store with TTL eviction. One session per
// player: starting a new game replaces any previous one, so an abandoned game
// can never block a fresh start.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]types.Session

	ttl   time.Duration
	sweep time.Duration
	now   func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithTTL sets how long an unredeemed session stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often expired sessions are collected.
func WithSweepInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.sweep = d
		}
	}
}

// WithClock overrides the time source. Tests use it to age sessions.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates the registry and starts the background sweeper.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]types.Session),
		ttl:      DefaultTTL,
		sweep:    DefaultSweepInterval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go r.sweeper(ctx)
	return r
}

// Start records a new session for the player, replacing any existing one.
func (r *Registry) Start(playerID string, seed uint32) types.Session {
	s := types.Session{PlayerID: playerID, Seed: seed, StartTime: r.now()}

	r.mu.Lock()
	r.sessions[playerID] = s
	size := len(r.sessions)
	r.mu.Unlock()

	metrics.RecordSessionCreated()
	metrics.UpdateActiveSessions(size)
	return s
}

// Get returns the live session for the player, or nil when none exists or
// the session has aged out. Expired entries are dropped on access rather
// than waiting for the sweeper.
func (r *Registry) Get(playerID string) *types.Session {
	r.mu.RLock()
	s, ok := r.sessions[playerID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	if r.now().Sub(s.StartTime) > r.ttl {
		r.mu.Lock()
		if cur, ok := r.sessions[playerID]; ok && cur.StartTime.Equal(s.StartTime) {
			delete(r.sessions, playerID)
			metrics.RecordSessionExpired()
			metrics.UpdateActiveSessions(len(r.sessions))
		}
		r.mu.Unlock()
		return nil
	}
	return &s
}

// End removes the player's session once a submission consumed it.
func (r *Registry) End(playerID string) {
	r.mu.Lock()
	delete(r.sessions, playerID)
	size := len(r.sessions)
	r.mu.Unlock()
	metrics.UpdateActiveSessions(size)
}

// Len reports the number of live sessions, expired or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops the sweeper. The registry stays usable afterwards; only the
// background eviction stops.
func (r *Registry) Close() {
	r.cancel()
	<-r.done
}

func (r *Registry) sweeper(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evictExpired()
		}
	}
}

func (r *Registry) evictExpired() {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.StartTime.Before(cutoff) {
			delete(r.sessions, id)
			metrics.RecordSessionExpired()
		}
	}
	metrics.UpdateActiveSessions(len(r.sessions))
}
