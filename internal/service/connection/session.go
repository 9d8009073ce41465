package connection

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/metrics"
)

// SessionPool holds explicitly opened engine sessions. Entries expire after
// the pool TTL or when capacity forces eviction; either way the session's
// client is closed once no request holds a lease on it.
type SessionPool struct {
	lru    *expirable.LRU[string, *sessionEntry]
	ttl    time.Duration
	logger *slog.Logger
}

// NewSessionPool creates a pool holding at most capacity sessions for ttl each.
func NewSessionPool(capacity int, ttl time.Duration, logger *slog.Logger) *SessionPool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &SessionPool{ttl: ttl, logger: logger.With("component", "session_pool")}
	p.lru = expirable.NewLRU[string, *sessionEntry](capacity, p.onEvict, ttl)
	return p
}

// sessionEntry tracks the requests currently using a session's client.
// A retired entry is out of the pool; its client closes on the last release.
type sessionEntry struct {
	sess    *domain.ActiveSession
	mu      sync.Mutex
	leases  int
	retired bool
}

func (p *SessionPool) onEvict(id string, e *sessionEntry) {
	metrics.ActiveSessions.Dec()
	if e == nil {
		return
	}
	e.mu.Lock()
	e.retired = true
	idle := e.leases == 0
	e.mu.Unlock()
	if idle {
		p.closeClient(e.sess)
	}
}

func (p *SessionPool) closeClient(s *domain.ActiveSession) {
	if s == nil || s.Client == nil {
		return
	}
	if err := s.Client.Close(); err != nil {
		p.logger.Warn("close session client", "session_id", s.ID, "error", err)
	}
	p.logger.Debug("session closed", "session_id", s.ID, "owner_id", s.OwnerUserID)
}

// Open registers a new session for owner on connectionID and returns it.
func (p *SessionPool) Open(ownerUserID, connectionID string, client domain.EngineClient) *domain.ActiveSession {
	now := time.Now().UTC()
	s := &domain.ActiveSession{
		ID:           domain.NewID(),
		OwnerUserID:  ownerUserID,
		ConnectionID: connectionID,
		Client:       client,
		CreatedAt:    now,
		ExpiresAt:    now.Add(p.ttl),
	}
	p.lru.Add(s.ID, &sessionEntry{sess: s})
	metrics.ActiveSessions.Inc()
	return s
}

// Get returns a live session.
func (p *SessionPool) Get(id string) (*domain.ActiveSession, bool) {
	if id == "" {
		return nil, false
	}
	e, ok := p.lru.Get(id)
	if !ok {
		return nil, false
	}
	return e.sess, true
}

// Acquire leases a live session for one request. The client stays open until
// release is called, even if the session expires or is removed meanwhile.
func (p *SessionPool) Acquire(id string) (*domain.ActiveSession, func(), bool) {
	if id == "" {
		return nil, nil, false
	}
	e, ok := p.lru.Get(id)
	if !ok {
		return nil, nil, false
	}
	e.mu.Lock()
	if e.retired {
		e.mu.Unlock()
		return nil, nil, false
	}
	e.leases++
	e.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			e.mu.Lock()
			e.leases--
			closeNow := e.retired && e.leases == 0
			e.mu.Unlock()
			if closeNow {
				p.closeClient(e.sess)
			}
		})
	}
	return e.sess, release, true
}

// Remove destroys a session. Its client closes once outstanding leases end.
func (p *SessionPool) Remove(id string) bool {
	return p.lru.Remove(id)
}

// Len returns the number of sessions held.
func (p *SessionPool) Len() int {
	return p.lru.Len()
}

// Close destroys every session.
func (p *SessionPool) Close() {
	p.lru.Purge()
}
