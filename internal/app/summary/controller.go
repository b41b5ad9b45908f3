package summary

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Phase is the position of a Controller in its submission lifecycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseLoading    Phase = "loading"
	PhaseSuccess    Phase = "success"
	PhaseFailed     Phase = "failed"
)

// State is the observable result of the latest submission.
//
// Error and Response are mutually exclusive: an empty Error means "no error"
// and a nil Response means "no response yet".
type State struct {
	Phase    Phase
	Seq      uint64
	VideoID  VideoID
	Error    string
	Kind     Kind
	Loading  bool
	Response []string
}

// Summarizer fetches the summary segments for one video.
type Summarizer interface {
	Summarize(ctx context.Context, id VideoID) ([]string, error)
}

// Transition describes how a submission resolved. Stale is set when a newer
// submission had already started and the result was dropped.
type Transition struct {
	Seq      uint64
	VideoID  VideoID
	Phase    Phase
	Kind     Kind
	Segments int
	Latency  time.Duration
	Stale    bool
	Err      error
}

type Option func(*Controller)

// WithObserver registers fn to be called after every resolved submission.
// fn runs outside the controller lock and must not block for long.
func WithObserver(fn func(Transition)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// Controller drives submissions for one user session: validate the link,
// issue one summarize call, publish the outcome.
//
// Every submission gets a sequence number. Only the completion carrying the
// current number may update the state, and starting a submission cancels
// the request of the previous one.
type Controller struct {
	summarizer Summarizer
	observers  []func(Transition)

	base     context.Context
	stopBase context.CancelFunc
	wg       sync.WaitGroup

	mu     sync.Mutex
	state  State
	seq    uint64
	cancel context.CancelFunc
	closed bool
}

func NewController(s Summarizer, opts ...Option) *Controller {
	base, stop := context.WithCancel(context.Background())
	c := &Controller{
		summarizer: s,
		base:       base,
		stopBase:   stop,
		state:      State{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	if s.Response != nil {
		s.Response = slices.Clone(s.Response)
	}
	return s
}

// Submit runs one submission to completion and returns the resulting state.
// If a newer submission starts meanwhile, the returned state is the newer one.
func (c *Controller) Submit(ctx context.Context, raw string) State {
	req, snap, ok := c.begin(ctx, raw, false)
	if !ok {
		return snap
	}
	c.fetch(req)
	return c.Snapshot()
}

// Start validates raw synchronously and finishes the fetch in the
// background. The returned state is either Loading or Failed.
func (c *Controller) Start(raw string) State {
	req, snap, ok := c.begin(c.base, raw, true)
	if !ok {
		return snap
	}
	go func() {
		defer c.wg.Done()
		c.fetch(req)
	}()
	return snap
}

// Wait blocks until background fetches started by Start have resolved.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels any in-flight request and discards its result. Submissions
// after Close leave the state untouched.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.state.Phase == PhaseLoading {
		c.state.Phase = PhaseIdle
	}
	c.state.Loading = false
	c.mu.Unlock()

	c.stopBase()
	c.wg.Wait()
}

type request struct {
	ctx     context.Context
	seq     uint64
	videoID VideoID
	start   time.Time
}

// begin performs the Validating step. ok is false when no fetch is needed,
// either because the link was rejected or the controller is closed. When
// background is set the fetch is counted in c.wg before c.mu is released, so
// a concurrent Close always waits for it.
func (c *Controller) begin(parent context.Context, raw string, background bool) (request, State, bool) {
	c.mu.Lock()
	if c.closed {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return request{}, snap, false
	}

	c.seq++
	seq := c.seq
	c.state.Phase = PhaseValidating
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	id, err := ParseLink(raw)
	if err != nil {
		c.state = State{
			Phase: PhaseFailed,
			Seq:   seq,
			Error: MsgInvalidLink,
			Kind:  KindInvalidLink,
		}
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(Transition{Seq: seq, Phase: PhaseFailed, Kind: KindInvalidLink, Err: err})
		return request{}, snap, false
	}

	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	c.state = State{
		Phase:   PhaseLoading,
		Seq:     seq,
		VideoID: id,
		Loading: true,
	}
	if background {
		c.wg.Add(1)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	return request{ctx: ctx, seq: seq, videoID: id, start: time.Now()}, snap, true
}

func (c *Controller) fetch(req request) {
	segments, err := c.summarizer.Summarize(req.ctx, req.videoID)
	c.finish(req, segments, err)
}

func (c *Controller) finish(req request, segments []string, err error) {
	t := Transition{
		Seq:     req.seq,
		VideoID: req.videoID,
		Latency: time.Since(req.start),
		Err:     err,
	}
	if err != nil {
		t.Phase = PhaseFailed
		t.Kind = KindOf(err)
	} else {
		t.Phase = PhaseSuccess
		t.Segments = len(segments)
		if segments == nil {
			segments = []string{}
		}
	}

	c.mu.Lock()
	if req.seq != c.seq {
		c.mu.Unlock()
		t.Stale = true
		c.notify(t)
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	next := State{Phase: t.Phase, Seq: req.seq, VideoID: req.videoID}
	if err != nil {
		next.Error = t.Kind.Message()
		next.Kind = t.Kind
	} else {
		next.Response = slices.Clone(segments)
	}
	c.state = next
	c.mu.Unlock()

	c.notify(t)
}

func (c *Controller) notify(t Transition) {
	for _, fn := range c.observers {
		fn(t)
	}
}
