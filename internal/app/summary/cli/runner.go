package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"allat.local/internal/app/summary"
	"allat.local/internal/app/summary/typewriter"
)

// ErrSubmissionFailed is returned by Links when at least one link did not
// produce a summary.
var ErrSubmissionFailed = errors.New("one or more submissions failed")

// Runner prints summaries to Out and failures to Errs. The spinner also
// draws on Errs so that Out stays clean when redirected.
type Runner struct {
	Controller *summary.Controller
	Prompter   Prompter
	Out        io.Writer
	Errs       io.Writer
	Writer     *typewriter.Writer
	Spinner    *typewriter.Spinner
}

// Once submits raw and renders the outcome. The returned state is the one
// that was rendered.
func (r *Runner) Once(ctx context.Context, raw string) (summary.State, error) {
	state := r.Controller.Start(raw)
	if state.Loading {
		stop := r.Spinner.Start("Summarizing…")
		done := make(chan struct{})
		go func() {
			r.Controller.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			r.Controller.Close()
			<-done
		}
		stop()
		if err := ctx.Err(); err != nil {
			return r.Controller.Snapshot(), err
		}
		state = r.Controller.Snapshot()
	}

	if state.Error != "" {
		fmt.Fprintln(r.Errs, state.Error)
		return state, nil
	}
	if err := r.Writer.Segments(ctx, state.Response); err != nil {
		return state, err
	}
	return state, nil
}

// Links summarizes each link in order.
func (r *Runner) Links(ctx context.Context, links []string) error {
	failed := false
	for i, link := range links {
		if i > 0 {
			fmt.Fprintln(r.Out)
		}
		state, err := r.Once(ctx, link)
		if err != nil {
			return err
		}
		if state.Error != "" {
			failed = true
		}
	}
	if failed {
		return ErrSubmissionFailed
	}
	return nil
}

// Interactive prompts until the user aborts or ctx is done. Failed
// submissions are reported and the prompt repeats.
func (r *Runner) Interactive(ctx context.Context) error {
	for {
		raw, err := r.Prompter.Link(ctx)
		if err != nil {
			// A signal wins over whatever the prompt reported.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, ErrAborted) {
				return nil
			}
			return err
		}
		if _, err := r.Once(ctx, raw); err != nil {
			return err
		}
		fmt.Fprintln(r.Out)
	}
}
