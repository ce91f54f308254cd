// Package session maps caller credentials to bridge-local sessions.
package session

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/idx"
)

const (
	// DefaultTimeout is how long a session may stay idle.
	DefaultTimeout = 30 * time.Minute

	// DefaultSweepInterval is how often idle sessions are evicted.
	DefaultSweepInterval = time.Minute

	idPrefix = "sess"
)

// Registry holds at most one session per caller credential. Sessions live in
// memory only and are evicted once idle for longer than Timeout.
type Registry struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	Interval time.Duration

	// Now is the clock used for activity stamps, replaceable in tests.
	Now func() time.Time

	mu           sync.RWMutex
	byID         map[string]*domain.Session
	byCredential map[string]string

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewRegistry creates an empty registry. Non-positive durations fall back to
// the defaults.
func NewRegistry(logger *slog.Logger, timeout, interval time.Duration) *Registry {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &Registry{
		Logger:       logger,
		Timeout:      timeout,
		Interval:     interval,
		Now:          time.Now,
		byID:         make(map[string]*domain.Session),
		byCredential: make(map[string]string),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Resolve returns the session for credential, creating it on first use, and
// marks it active.
func (r *Registry) Resolve(credential string) domain.Session {
	now := r.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byCredential[credential]; ok {
		if sess, ok := r.byID[id]; ok {
			sess.LastActivityAt = now
			return copySession(sess)
		}
	}

	sess := &domain.Session{
		ID:             idx.NewPrefixed(idPrefix),
		Credential:     credential,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	r.byID[sess.ID] = sess
	r.byCredential[credential] = sess.ID

	r.Logger.Debug("session created", "session_id", sess.ID)
	return copySession(sess)
}

// Get returns the session with id, if it still exists.
func (r *Registry) Get(id string) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.byID[id]
	if !ok {
		return domain.Session{}, false
	}
	return copySession(sess), true
}

// Bind attaches an upstream token pair to the session. It reports false when
// the session is gone.
func (r *Registry) Bind(id string, pair domain.UpstreamTokenPair) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byID[id]
	if !ok {
		return false
	}
	sess.UpstreamTokens = &pair
	return true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Sweep evicts sessions idle for longer than Timeout at now and returns how
// many were removed.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.RLock()
	var idle []string
	for id, sess := range r.byID {
		if sess.IdleSince(now) > r.Timeout {
			idle = append(idle, id)
		}
	}
	r.mu.RUnlock()

	if len(idle) == 0 {
		return 0
	}

	removed := 0
	r.mu.Lock()
	for _, id := range idle {
		sess, ok := r.byID[id]
		// Resolve may have touched it since the snapshot.
		if !ok || sess.IdleSince(now) <= r.Timeout {
			continue
		}
		delete(r.byID, id)
		if r.byCredential[sess.Credential] == id {
			delete(r.byCredential, sess.Credential)
		}
		removed++
	}
	r.mu.Unlock()

	return removed
}

// Start begins the background sweeper. Call Stop to shut it down.
func (r *Registry) Start() {
	r.startOnce.Do(func() {
		r.started.Store(true)
		go r.run()
		r.Logger.Info("session sweeper started", "interval", r.Interval, "timeout", r.Timeout)
	})
}

// Stop shuts down the sweeper and waits for it to exit. Safe to call more
// than once, or without Start.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		if r.started.Load() {
			<-r.doneCh
		}
		r.Logger.Info("session sweeper stopped")
	})
}

func (r *Registry) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(r.Now()); n > 0 {
				r.Logger.Info("expired sessions removed", "count", n, "remaining", r.Len())
			}
		case <-r.stopCh:
			return
		}
	}
}

func copySession(sess *domain.Session) domain.Session {
	out := *sess
	if sess.UpstreamTokens != nil {
		pair := *sess.UpstreamTokens
		out.UpstreamTokens = &pair
	}
	return out
}
