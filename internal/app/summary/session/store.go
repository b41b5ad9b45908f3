// Package session keeps one submission controller per browser session.
package session

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"allat.local/internal/app/summary"
	"allat.local/internal/platform/metrics"
	"github.com/sqids/sqids-go"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

const alphabet = "Xq7LbN2vR9kTzW4mHcJ8sYpD3gFa6EuKr5tQwB1nMxVhC0ZjoeSdiUlyfPAIG"

type Session struct {
	ID         string
	Controller *summary.Controller
	CreatedAt  time.Time

	lastSeen time.Time
}

type Config struct {
	IdleTTL       time.Duration
	MaxSessions   int
	SweepInterval time.Duration
}

// Factory builds the controller for a new session.
type Factory func(sessionID string) *summary.Controller

// Store owns the live sessions. Sessions idle for longer than IdleTTL are
// removed by Sweep and their controllers closed.
//
// 约定：只存在内存里，进程重启后会话全部失效，页面收到 404 会重新创建。
type Store struct {
	cfg     Config
	factory Factory
	sq      *sqids.Sqids
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	seq      uint64
}

func NewStore(cfg Config, factory Factory) (*Store, error) {
	if factory == nil {
		return nil, errors.New("session: nil controller factory")
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	sq, err := sqids.New(sqids.Options{Alphabet: alphabet, MinLength: 8})
	if err != nil {
		return nil, err
	}
	return &Store{
		cfg:      cfg,
		factory:  factory,
		sq:       sq,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}, nil
}

// Create starts a new session. The ID mixes a counter with a random salt so
// neighbouring sessions cannot be guessed from one another.
func (s *Store) Create() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}
	s.seq++
	id, err := s.sq.Encode([]uint64{s.seq, uint64(rand.Uint32())})
	if err != nil {
		return nil, err
	}
	now := s.now()
	sess := &Session{
		ID:         id,
		Controller: s.factory(id),
		CreatedAt:  now,
		lastSeen:   now,
	}
	s.sessions[id] = sess
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return sess, nil
}

// Get returns the session and marks it as recently used.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

// Delete removes the session and cancels its in-flight request.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
	}
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	sess.Controller.Close()
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle since before now-IdleTTL and returns how many
// were removed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Controller.Close()
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done, then closes every session.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("sessions expired", "count", n, "live", s.Len())
			}
		}
	}
}

// Close removes all sessions.
func (s *Store) Close() {
	s.mu.Lock()
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	clear(s.sessions)
	metrics.ActiveSessions.Set(0)
	s.mu.Unlock()

	for _, sess := range all {
		sess.Controller.Close()
	}
}
