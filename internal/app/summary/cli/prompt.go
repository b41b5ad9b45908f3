// Package cli drives summary submissions from a terminal.
package cli

import (
	"context"
	"errors"
	"io"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the user leaves the prompt (Ctrl-C or EOF).
var ErrAborted = errors.New("prompt aborted")

// Prompter asks the user for the next link.
type Prompter interface {
	Link(ctx context.Context) (string, error)
}

type surveyPrompter struct {
	message string
	help    string
}

// NewSurveyPrompter prompts on the controlling terminal.
func NewSurveyPrompter() Prompter {
	return &surveyPrompter{
		message: "YouTube link:",
		help:    "youtube.com/watch?v=…, youtu.be/…, or an embed link. Ctrl-C to quit.",
	}
}

func (p *surveyPrompter) Link(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{Message: p.message, Help: p.help}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) || errors.Is(err, io.EOF) {
		return ErrAborted
	}
	return err
}
