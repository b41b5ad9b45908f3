package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"allat.local/internal/app/summary"
	"allat.local/internal/app/summary/typewriter"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type stubSummarizer struct {
	calls    int
	segments []string
	err      error
}

func (s *stubSummarizer) Summarize(context.Context, summary.VideoID) ([]string, error) {
	s.calls++
	return s.segments, s.err
}

type scriptedPrompter struct {
	links []string
}

func (p *scriptedPrompter) Link(context.Context) (string, error) {
	if len(p.links) == 0 {
		return "", ErrAborted
	}
	next := p.links[0]
	p.links = p.links[1:]
	return next, nil
}

func newRunner(s summary.Summarizer, p Prompter) (*Runner, *bytes.Buffer, *syncBuffer) {
	var out bytes.Buffer
	errs := &syncBuffer{}
	return &Runner{
		Controller: summary.NewController(s),
		Prompter:   p,
		Out:        &out,
		Errs:       errs,
		Writer:     typewriter.New(&out, 0),
		Spinner:    typewriter.NewSpinner(errs, time.Millisecond),
	}, &out, errs
}

func TestOnce_PrintsSegments(t *testing.T) {
	s := &stubSummarizer{segments: []string{"seg1", "seg2"}}
	r, out, _ := newRunner(s, nil)
	defer r.Controller.Close()

	state, err := r.Once(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, summary.PhaseSuccess, state.Phase)
	assert.Equal(t, "seg1\n\nseg2\n", out.String())
	assert.Equal(t, 1, s.calls)
}

func TestOnce_InvalidLinkSkipsFetch(t *testing.T) {
	s := &stubSummarizer{}
	r, out, errs := newRunner(s, nil)
	defer r.Controller.Close()

	state, err := r.Once(context.Background(), "not a url")
	require.NoError(t, err)
	assert.Equal(t, summary.KindInvalidLink, state.Kind)
	assert.Equal(t, summary.MsgInvalidLink+"\n", errs.String())
	assert.Empty(t, out.String())
	assert.Zero(t, s.calls)
}

func TestOnce_FetchFailure(t *testing.T) {
	r, out, errs := newRunner(&stubSummarizer{err: summary.ErrFetch}, nil)
	defer r.Controller.Close()

	_, err := r.Once(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Contains(t, errs.String(), summary.MsgFetch)
	assert.Empty(t, out.String())
}

func TestLinks_ReportsFailure(t *testing.T) {
	r, out, errs := newRunner(&stubSummarizer{segments: []string{"ok"}}, nil)
	defer r.Controller.Close()

	err := r.Links(context.Background(), []string{"https://youtu.be/dQw4w9WgXcQ", "bogus"})
	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.Equal(t, "ok\n\n", out.String())
	assert.Contains(t, errs.String(), summary.MsgInvalidLink)
}

func TestInteractive_LoopsUntilAborted(t *testing.T) {
	p := &scriptedPrompter{links: []string{"bogus", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}}
	r, out, errs := newRunner(&stubSummarizer{segments: []string{"summary"}}, p)
	defer r.Controller.Close()

	require.NoError(t, r.Interactive(context.Background()))
	assert.Contains(t, errs.String(), summary.MsgInvalidLink)
	assert.Contains(t, out.String(), "summary\n")
}

type blockingSummarizer struct{}

func (blockingSummarizer) Summarize(ctx context.Context, _ summary.VideoID) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestOnce_CancelStopsWaiting(t *testing.T) {
	r, _, _ := newRunner(blockingSummarizer{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() {
		_, err := r.Once(ctx, "https://youtu.be/dQw4w9WgXcQ")
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Once did not return after cancel")
	}
}

func TestTranslateSurveyErr(t *testing.T) {
	assert.ErrorIs(t, translateSurveyErr(terminal.InterruptErr), ErrAborted)
	assert.ErrorIs(t, translateSurveyErr(io.EOF), ErrAborted)
	other := errors.New("tty gone")
	assert.Equal(t, other, translateSurveyErr(other))
}

func TestInteractive_CancelDuringLoadingIsReported(t *testing.T) {
	p := &scriptedPrompter{links: []string{"https://youtu.be/dQw4w9WgXcQ"}}
	r, _, _ := newRunner(blockingSummarizer{}, p)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() { done <- r.Interactive(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Interactive did not return after cancel")
	}
}

type cancelledPrompter struct{}

func (cancelledPrompter) Link(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ErrAborted
}

func TestInteractive_CancelAtPromptIsReported(t *testing.T) {
	r, _, _ := newRunner(&stubSummarizer{}, cancelledPrompter{})
	defer r.Controller.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, r.Interactive(ctx), context.Canceled)
}
