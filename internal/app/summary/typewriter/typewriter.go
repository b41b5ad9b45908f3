// Package typewriter renders summary segments to a terminal.
package typewriter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Writer prints text one rune at a time. Each segment is its own block,
// separated from the next by a blank line.
type Writer struct {
	out   io.Writer
	delay time.Duration
}

func New(out io.Writer, delay time.Duration) *Writer {
	return &Writer{out: out, delay: delay}
}

// Segments prints every segment in order. It stops early, returning
// ctx.Err(), when ctx is canceled.
func (w *Writer) Segments(ctx context.Context, segments []string) error {
	bw := bufio.NewWriter(w.out)
	defer bw.Flush()

	for i, seg := range segments {
		if i > 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
		if err := w.segment(ctx, bw, seg); err != nil {
			return err
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) segment(ctx context.Context, bw *bufio.Writer, seg string) error {
	if w.delay <= 0 {
		_, err := bw.WriteString(seg)
		return err
	}

	timer := time.NewTimer(w.delay)
	defer timer.Stop()
	for _, r := range seg {
		if _, err := bw.WriteRune(r); err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return err
		}
		timer.Reset(w.delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner is the terminal loading indicator.
type Spinner struct {
	out      io.Writer
	interval time.Duration
}

func NewSpinner(out io.Writer, interval time.Duration) *Spinner {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Spinner{out: out, interval: interval}
}

// Start draws the spinner until the returned stop func is called. stop
// clears the line and waits for the drawing goroutine to exit.
func (s *Spinner) Start(label string) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			fmt.Fprintf(s.out, "\r%s %s", frames[i%len(frames)], label)
			select {
			case <-done:
				fmt.Fprint(s.out, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}
