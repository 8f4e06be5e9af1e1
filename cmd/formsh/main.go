/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package main is a terminal host for the persistent form.
//
// With -io std, each input line is a wire Msg (like {"setName":"Bo"})
// and each output line is the resulting State.  With -io tui, the
// fields are prompted for.  Either way every edit is written through
// to the configured store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/elm-community/js-integration-examples/config"
	"github.com/elm-community/js-integration-examples/core"
	"github.com/elm-community/js-integration-examples/host"
	"github.com/elm-community/js-integration-examples/logging"
	"github.com/elm-community/js-integration-examples/view/tui"

	"github.com/AlecAivazis/survey/v2/terminal"
)

type options struct {
	IO         string
	Echo       bool
	Timestamps bool
	Tags       bool
	Once       bool
}

func (o *options) flags(fs *flag.FlagSet) {
	fs.StringVar(&o.IO, "io", "std", `"std" (JSON lines) or "tui" (prompts)`)
	fs.BoolVar(&o.Echo, "echo", false, "echo input (std)")
	fs.BoolVar(&o.Timestamps, "ts", false, "print timestamps (std)")
	fs.BoolVar(&o.Tags, "tags", false, "tag output lines (std)")
	fs.BoolVar(&o.Once, "once", false, "one pass over the fields (tui)")
}

// prompter makes a SurveyPrompter on the given input and output.
// Survey needs file descriptors, so anything other than files leaves
// the prompter on the process's terminal.
func prompter(in io.Reader, out io.Writer) *tui.SurveyPrompter {
	p := &tui.SurveyPrompter{}
	fr, isFile := in.(terminal.FileReader)
	if !isFile {
		return p
	}
	fw, isFile := out.(terminal.FileWriter)
	if !isFile {
		return p
	}
	p.Stdio = &terminal.Stdio{
		In:  fr,
		Out: fw,
		Err: os.Stderr,
	}
	return p
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "formsh: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	var o options
	cfg, _, err := config.FromArgs("formsh", args, o.flags)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Log).With().Str("cmd", "formsh").Logger()

	st, err := cfg.OpenStore(ctx, log)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	port, err := cfg.Port(ctx, st, log)
	if err != nil {
		return err
	}

	rt := host.NewRuntime(core.NewComponent(cfg.Key), port)
	rt.Log = log.With().Str("key", cfg.Key).Logger()
	if cfg.Flags != "" {
		rt.BootWith([]byte(cfg.Flags))
	} else {
		rt.Boot(ctx, st)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go rt.Loop(ctx)

	switch o.IO {
	case "std":
		sio := &host.Stdio{
			In:         in,
			Out:        out,
			Timestamps: o.Timestamps,
			EchoInput:  o.Echo,
			Tags:       o.Tags,
		}
		err = sio.Run(ctx, rt)
	case "tui":
		f := &tui.Form{
			Prompter: prompter(in, out),
			Once:     o.Once,
			Out:      out,
		}
		err = f.Run(ctx, rt)
	default:
		return fmt.Errorf("unknown -io '%s'", o.IO)
	}

	if errors.Is(err, context.Canceled) {
		err = nil
	}

	log.Debug().Interface("stats", rt.Stats()).Msg("done")
	return err
}
