package events

import (
	"context"
	"log/slog"
	"time"
)

// Sink receives flushed batches.
type Sink func(ctx context.Context, batch []SubmissionEvent)

// LogSink writes each batch to the structured log.
func LogSink(ctx context.Context, batch []SubmissionEvent) {
	for _, e := range batch {
		slog.InfoContext(ctx, "submission",
			"event_id", e.ID,
			"session_id", e.SessionID,
			"seq", e.Seq,
			"video_id", e.VideoID,
			"outcome", e.Outcome,
			"segments", e.Segments,
			"latency_ms", e.LatencyMS,
		)
	}
	slog.DebugContext(ctx, "submission events flushed", "count", len(batch))
}

// Consumer drains an event channel and flushes events in batches, either
// when the batch is full or when the interval elapses.
type Consumer struct {
	events    <-chan SubmissionEvent
	sink      Sink
	batchSize int
	interval  time.Duration
}

func NewConsumer(events <-chan SubmissionEvent, sink Sink) *Consumer {
	if sink == nil {
		sink = LogSink
	}
	return &Consumer{
		events:    events,
		sink:      sink,
		batchSize: 100,
		interval:  time.Second,
	}
}

// Run blocks until ctx is done or the event channel is closed, flushing
// whatever is left before returning.
func (c *Consumer) Run(ctx context.Context) {
	batch := make([]SubmissionEvent, 0, c.batchSize)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.flush(batch)
			return
		case event, ok := <-c.events:
			if !ok {
				c.flush(batch)
				return
			}
			batch = append(batch, event)
			if len(batch) >= c.batchSize {
				c.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				c.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (c *Consumer) flush(batch []SubmissionEvent) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.sink(ctx, append([]SubmissionEvent(nil), batch...))
}
