// Package tui is a terminal rendition of the form.
//
// Each field is a prompt seeded with the current value.  Each answer
// is sent to the host as a Msg, whether or not it changed anything.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/elm-community/js-integration-examples/core"
	"github.com/elm-community/js-integration-examples/view"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted signals the user aborted input (e.g., Ctrl+C).
var ErrAborted = errors.New("tui: aborted")

// InputConfig configures a basic text input prompt.
type InputConfig struct {
	Message string
	Default string
	Help    string
}

// ConfirmConfig configures a yes/no prompt.
type ConfirmConfig struct {
	Message string
	Default bool
}

// Prompter abstracts the terminal so the form can be tested without
// one.
type Prompter interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
}

// Dispatcher is what the form needs from the host.
type Dispatcher interface {
	State() core.State
	Dispatch(ctx context.Context, msg core.Msg) (core.State, error)
}

// SurveyPrompter prompts with github.com/AlecAivazis/survey.
type SurveyPrompter struct {
	// Stdio, if set, replaces the process's terminal.
	Stdio *terminal.Stdio
}

func (p *SurveyPrompter) opts() []survey.AskOpt {
	if p.Stdio == nil {
		return nil
	}
	return []survey.AskOpt{survey.WithStdio(p.Stdio.In, p.Stdio.Out, p.Stdio.Err)}
}

func (p *SurveyPrompter) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{
		Message: cfg.Message,
		Default: cfg.Default,
		Help:    cfg.Help,
	}
	if err := survey.AskOne(prompt, &out, p.opts()...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (p *SurveyPrompter) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	prompt := &survey.Confirm{
		Message: cfg.Message,
		Default: cfg.Default,
	}
	if err := survey.AskOne(prompt, &out, p.opts()...); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) || errors.Is(err, io.EOF) {
		return ErrAborted
	}
	return err
}

// Form runs the prompts.
type Form struct {
	Prompter Prompter

	// Once stops after one pass over the fields.
	Once bool

	// Out, if not nil, gets the State after each pass.
	Out io.Writer
}

// Run prompts until the user declines another pass or aborts.  An
// abort isn't an error.
func (f *Form) Run(ctx context.Context, d Dispatcher) error {
	for {
		for _, field := range view.Fields(d.State()) {
			answer, err := f.Prompter.Input(ctx, InputConfig{
				Message: field.Label,
				Default: field.Value,
			})
			if errors.Is(err, ErrAborted) {
				return nil
			}
			if err != nil {
				return err
			}
			msg, err := core.MsgForField(field.ID, answer)
			if err != nil {
				return err
			}
			if _, err = d.Dispatch(ctx, msg); err != nil {
				return err
			}
		}

		if f.Out != nil {
			fmt.Fprintf(f.Out, "%s\n", d.State())
		}

		if f.Once {
			return nil
		}

		again, err := f.Prompter.Confirm(ctx, ConfirmConfig{
			Message: "Edit again?",
		})
		if errors.Is(err, ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		if !again {
			return nil
		}
	}
}
