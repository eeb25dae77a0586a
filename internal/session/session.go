// Package session owns the connected-account state: one authorization
// request at a time, an immutable Session snapshot and change observers.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/config"
	"github.com/Mohsinsiddi/tokendesk/internal/logging"
	"github.com/Mohsinsiddi/tokendesk/internal/provider"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNoProvider   = provider.ErrNoProvider
	ErrUserRejected = provider.ErrUserRejected
)

// Session is an immutable snapshot of the authorized accounts.
type Session struct {
	Accounts []string
}

// Empty reports whether no account is authorized.
func (s Session) Empty() bool { return len(s.Accounts) == 0 }

// Active returns the active account, or "" when the session is empty.
func (s Session) Active() string {
	if s.Empty() {
		return ""
	}
	return s.Accounts[0]
}

// Authorizer is the part of a provider that grants account access.
type Authorizer interface {
	ID() string
	RequestAccounts(ctx context.Context) ([]string, error)
}

// GrantStore caches granted account lists per provider ID.
type GrantStore interface {
	Load(providerID string) ([]string, bool)
	Save(providerID string, accounts []string) error
	Clear(providerID string) error
}

// Observer is called after the session changes from empty to non-empty or
// the active account changes.
type Observer func(prev, next Session)

// Manager serialises authorization requests and publishes the session.
type Manager struct {
	provider Authorizer
	grants   GrantStore
	reuse    bool
	timeout  time.Duration
	log      logging.Logger

	group   singleflight.Group
	current atomic.Pointer[Session]
	pending atomic.Bool

	mu        sync.Mutex
	observers []Observer
}

// Option configures a Manager.
type Option func(*Manager)

// WithGrantStore enables the on-disk grant cache. When reuse is true a cached
// grant satisfies RequestAccess without prompting.
func WithGrantStore(g GrantStore, reuse bool) Option {
	return func(m *Manager) {
		m.grants = g
		m.reuse = reuse
	}
}

// WithTimeout bounds one authorization request. Defaults to
// config.AccessTimeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager creates a session manager for p. A nil p yields a manager whose
// every request fails with ErrNoProvider.
func NewManager(p Authorizer, opts ...Option) *Manager {
	m := &Manager{provider: p, log: logging.Nop{}, timeout: config.AccessTimeout}
	for _, o := range opts {
		o(m)
	}
	m.log = logging.OrNop(m.log)
	if m.timeout <= 0 {
		m.timeout = config.AccessTimeout
	}
	m.current.Store(&Session{})
	return m
}

// Current returns the latest session snapshot.
func (m *Manager) Current() Session {
	return *m.current.Load()
}

// Pending reports whether an authorization request is outstanding.
func (m *Manager) Pending() bool { return m.pending.Load() }

// OnChange registers an observer.
func (m *Manager) OnChange(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// RequestAccess asks the provider for account access. Callers arriving while
// a request is outstanding share its result. The shared request is detached
// from any single caller's cancellation and bounded by the manager timeout;
// a caller whose ctx ends stops waiting without aborting it for the others.
// On failure the previous session is kept.
func (m *Manager) RequestAccess(ctx context.Context) (Session, error) {
	if m.provider == nil {
		return m.Current(), ErrNoProvider
	}
	ch := m.group.DoChan("request", func() (any, error) {
		m.pending.Store(true)
		defer m.pending.Store(false)
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
		defer cancel()
		return m.request(rctx)
	})
	select {
	case <-ctx.Done():
		return m.Current(), ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return m.Current(), res.Err
		}
		return res.Val.(Session), nil
	}
}

func (m *Manager) request(ctx context.Context) (Session, error) {
	id := m.provider.ID()

	if m.grants != nil && m.reuse {
		if cached, ok := m.grants.Load(id); ok {
			m.log.Info("reusing cached account grant", "provider", id, "accounts", len(cached))
			return m.publish(cached), nil
		}
	}

	accounts, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		if errors.Is(err, ErrUserRejected) && m.grants != nil {
			if cerr := m.grants.Clear(id); cerr != nil {
				m.log.Warn("clearing account grant", "provider", id, "error", cerr)
			}
		}
		m.log.Warn("account request failed", "provider", id, "error", err)
		return Session{}, err
	}
	if len(accounts) == 0 {
		return Session{}, provider.ErrNoAccounts
	}

	if m.grants != nil {
		if err := m.grants.Save(id, accounts); err != nil {
			m.log.Warn("caching account grant", "provider", id, "error", err)
		}
	}
	return m.publish(accounts), nil
}

func (m *Manager) publish(accounts []string) Session {
	next := Session{Accounts: append([]string(nil), accounts...)}
	prev := *m.current.Swap(&next)

	if changed(prev, next) {
		m.mu.Lock()
		observers := append([]Observer(nil), m.observers...)
		m.mu.Unlock()
		for _, fn := range observers {
			fn(prev, next)
		}
	}
	return next
}

func changed(prev, next Session) bool {
	if prev.Empty() != next.Empty() {
		return true
	}
	return !strings.EqualFold(prev.Active(), next.Active())
}
