// Command summarize prints a YouTube video summary in the terminal.
//
//	summarize [-delay 15ms] [-base URL] [-timeout 90s] [link...]
//
// With no links it prompts until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"allat.local/internal/app/summary"
	"allat.local/internal/app/summary/cli"
	"allat.local/internal/app/summary/transcript"
	"allat.local/internal/app/summary/typewriter"
	"allat.local/internal/platform/config"
	"allat.local/internal/platform/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	fs := flag.NewFlagSet("summarize", flag.ContinueOnError)
	delay := fs.Duration("delay", 15*time.Millisecond, "pause between printed characters; 0 prints at once")
	base := fs.String("base", cfg.SummarizerBaseURL, "summarization service base URL")
	timeout := fs.Duration("timeout", cfg.SummarizerTimeout, "request timeout; 0 waits forever")
	verbose := fs.Bool("v", false, "log requests to stderr")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: summarize [flags] [link...]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	level := slog.LevelWarn + 4 // quiet unless -v
	if *verbose {
		level = slog.LevelDebug
	}
	logging.Setup(os.Stderr, level, "text")

	client, err := transcript.NewClient(transcript.Config{BaseURL: *base, Timeout: *timeout})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := summary.NewController(client)
	defer ctrl.Close()

	r := &cli.Runner{
		Controller: ctrl,
		Prompter:   cli.NewSurveyPrompter(),
		Out:        os.Stdout,
		Errs:       os.Stderr,
		Writer:     typewriter.New(os.Stdout, *delay),
		Spinner:    typewriter.NewSpinner(os.Stderr, 0),
	}

	if links := fs.Args(); len(links) > 0 {
		err = r.Links(ctx, links)
	} else {
		err = r.Interactive(ctx)
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cli.ErrSubmissionFailed):
		return 1
	case errors.Is(err, context.Canceled):
		return 130
	default:
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
}
