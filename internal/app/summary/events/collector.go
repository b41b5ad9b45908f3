// Package events publishes one record per resolved submission.
package events

import (
	"sync"
	"time"

	"allat.local/internal/app/summary"
	"allat.local/internal/platform/metrics"
	"github.com/google/uuid"
)

// SubmissionEvent carries no summary text, only what happened.
type SubmissionEvent struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Seq       uint64    `json:"seq"`
	VideoID   string    `json:"video_id,omitempty"`
	Outcome   string    `json:"outcome"`
	Kind      string    `json:"kind,omitempty"`
	Segments  int       `json:"segments"`
	LatencyMS int64     `json:"latency_ms"`
	At        time.Time `json:"at"`
}

// Outcome names the result of t the way metrics and events report it.
func Outcome(t summary.Transition) string {
	switch {
	case t.Stale:
		return "stale"
	case t.Phase == summary.PhaseSuccess:
		return "success"
	default:
		return string(t.Kind)
	}
}

// FromTransition builds the event for a transition in the given session.
func FromTransition(sessionID string, t summary.Transition, at time.Time) SubmissionEvent {
	return SubmissionEvent{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Seq:       t.Seq,
		VideoID:   t.VideoID.String(),
		Outcome:   Outcome(t),
		Kind:      string(t.Kind),
		Segments:  t.Segments,
		LatencyMS: t.Latency.Milliseconds(),
		At:        at,
	}
}

type Collector interface {
	Collect(event SubmissionEvent)
	Close()
}

// ChannelCollector buffers events in memory for a Consumer. Collect never
// blocks: when the buffer is full the event is dropped.
//
// 设计原因：事件只是旁路统计，不能反过来拖慢 Controller 的完成路径。
type ChannelCollector struct {
	mu     sync.RWMutex
	ch     chan SubmissionEvent
	closed bool
}

func NewChannelCollector(bufferSize int) *ChannelCollector {
	return &ChannelCollector{ch: make(chan SubmissionEvent, bufferSize)}
}

func (c *ChannelCollector) Collect(event SubmissionEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- event:
	default:
		metrics.EventsDroppedTotal.Inc()
	}
}

func (c *ChannelCollector) Events() <-chan SubmissionEvent {
	return c.ch
}

func (c *ChannelCollector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}
