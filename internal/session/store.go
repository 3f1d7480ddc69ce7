package session

import (
	"context"
	"sync"
	"time"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store keeps live sessions in memory. Nothing survives a restart.
type Store struct {
	cfg     Config
	deps    Deps
	idleTTL time.Duration
	log     *logrus.Entry

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(cfg Config, deps Deps, idleTTL time.Duration) *Store {
	return &Store{
		cfg:      cfg,
		deps:     deps,
		idleTTL:  idleTTL,
		log:      deps.Log,
		sessions: make(map[string]*Session),
	}
}

func (st *Store) Create() *Session {
	s := New(uuid.NewString(), st.cfg, st.deps)
	st.mu.Lock()
	st.sessions[s.ID] = s
	n := len(st.sessions)
	st.mu.Unlock()

	st.log.WithFields(logrus.Fields{"session": s.ID, "live": n}).Debug("session created")
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return s, nil
}

// Delete closes and forgets the session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if !ok {
		return entity.ErrSessionNotFound
	}
	s.Close()
	return nil
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep closes sessions idle since before now minus the TTL and returns how
// many it removed.
func (st *Store) Sweep(now time.Time) int {
	if st.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-st.idleTTL)

	var expired []*Session
	st.mu.Lock()
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		st.log.WithField("expired", len(expired)).Info("idle sessions closed")
	}
	return len(expired)
}

// Run sweeps on every tick until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
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
			st.Sweep(now)
		}
	}
}

// Close closes every session.
func (st *Store) Close() {
	st.mu.Lock()
	all := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
