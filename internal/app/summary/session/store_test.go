package session

import (
	"context"
	"testing"
	"time"

	"allat.local/internal/app/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSummarizer struct{}

func (stubSummarizer) Summarize(ctx context.Context, _ summary.VideoID) ([]string, error) {
	return []string{"seg"}, nil
}

func newStore(t *testing.T, cfg Config) (*Store, *time.Time) {
	t.Helper()
	s, err := NewStore(cfg, func(string) *summary.Controller {
		return summary.NewController(stubSummarizer{})
	})
	require.NoError(t, err)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	t.Cleanup(s.Close)
	return s, &now
}

func TestStore_CreateGetDelete(t *testing.T) {
	s, _ := newStore(t, Config{})

	a, err := s.Create()
	require.NoError(t, err)
	b, err := s.Create()
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.GreaterOrEqual(t, len(a.ID), 8)
	assert.Equal(t, 2, s.Len())

	got, err := s.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	require.NoError(t, s.Delete(a.ID))
	_, err = s.Get(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(a.ID), ErrNotFound)
	assert.Equal(t, 1, s.Len())
}

func TestStore_MaxSessions(t *testing.T) {
	s, _ := newStore(t, Config{MaxSessions: 1})

	_, err := s.Create()
	require.NoError(t, err)
	_, err = s.Create()
	assert.ErrorIs(t, err, ErrTooManySessions)
}

func TestStore_SweepExpiresIdleSessions(t *testing.T) {
	s, now := newStore(t, Config{IdleTTL: 10 * time.Minute})

	idle, err := s.Create()
	require.NoError(t, err)
	active, err := s.Create()
	require.NoError(t, err)

	*now = now.Add(8 * time.Minute)
	_, err = s.Get(active.ID)
	require.NoError(t, err)

	*now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, s.Sweep())

	_, err = s.Get(idle.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(active.ID)
	assert.NoError(t, err)
}

func TestStore_DeleteClosesController(t *testing.T) {
	s, _ := newStore(t, Config{})

	sess, err := s.Create()
	require.NoError(t, err)
	require.NoError(t, s.Delete(sess.ID))

	got := sess.Controller.Submit(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	assert.Equal(t, summary.PhaseIdle, got.Phase)
}

func TestStore_RunClosesOnCancel(t *testing.T) {
	s, _ := newStore(t, Config{SweepInterval: time.Millisecond})
	_, err := s.Create()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 0, s.Len())
}

func TestNewStore_RequiresFactory(t *testing.T) {
	_, err := NewStore(Config{}, nil)
	assert.Error(t, err)
}
