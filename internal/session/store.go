package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"prompt_maker_server/internal/catalog"
	"prompt_maker_server/internal/logger"
)

// Store keeps sessions in memory and forgets them after ttl of inactivity.
type Store struct {
	catalog *catalog.Catalog
	ttl     time.Duration
	log     *logger.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns an empty store. ttl <= 0 disables expiry.
func NewStore(c *catalog.Catalog, ttl time.Duration, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		catalog:  c,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session. A non-empty toolID is activated right away; an
// unknown one still creates the session, with no active tool, and returns the
// activation error alongside it.
func (st *Store) Create(toolID string) (*Session, error) {
	s := New(uuid.New().String(), st.catalog)
	s.touch(st.now())

	var err error
	if toolID != "" {
		err = s.Activate(toolID)
	}

	st.mu.Lock()
	st.sessions[s.ID()] = s
	st.mu.Unlock()

	st.log.Debug("session created", "session", s.ID(), "tool", toolID)
	return s, err
}

// Get returns the session and marks it as active.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrSessionNotFound, "session %q", id)
	}
	s.touch(st.now())
	return s, nil
}

func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep drops sessions idle for longer than the ttl and returns how many
// went. Sessions waiting on a refinement are kept.
func (st *Store) Sweep(now time.Time) int {
	if st.ttl <= 0 {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	evicted := 0
	for id, s := range st.sessions {
		if s.State() == StateRefining {
			continue
		}
		if now.Sub(s.idleSince()) > st.ttl {
			delete(st.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		st.log.Info("expired idle sessions", "count", evicted, "remaining", len(st.sessions))
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || st.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep(st.now())
		}
	}
}
