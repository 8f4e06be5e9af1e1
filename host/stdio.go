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

package host

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/elm-community/js-integration-examples/core"
)

// Stdio is a fairly simple coupling that reads wire Msgs, one per
// line, and writes the resulting State, one per line.
//
// The first line written is the initial State.
type Stdio struct {
	// In is coupled to Runtime input.
	In io.Reader

	// Out gets States and errors.
	Out io.Writer

	// Timestamps prepends a timestamp to each output line.
	Timestamps bool

	// EchoInput writes input lines (prepended with "input") to
	// the output.
	EchoInput bool

	// Tags prefixes tags indicating type of output ("input",
	// "state", "error").
	Tags bool
}

// NewStdio creates a new Stdio using os.Stdin and os.Stdout.
func NewStdio() *Stdio {
	return &Stdio{
		In:  os.Stdin,
		Out: os.Stdout,
	}
}

func (s *Stdio) printf(tag, format string, args ...interface{}) {
	var prefix string
	if s.Timestamps {
		prefix = time.Now().UTC().Format(time.RFC3339Nano) + " "
	}
	if s.Tags {
		prefix += fmt.Sprintf("%-6s ", tag)
	}
	fmt.Fprintf(s.Out, prefix+format+"\n", args...)
}

// Run processes input until EOF or until the context is done.
//
// Lines that aren't Msgs are reported and skipped.  Blank lines and
// lines starting with '#' are ignored.  The Runtime's Loop must be
// running.
func (s *Stdio) Run(ctx context.Context, r *Runtime) error {
	s.printf("state", "%s", core.Encode(r.State()))

	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		in := bufio.NewScanner(s.In)
		in.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for in.Scan() {
			select {
			case <-ctx.Done():
				return
			case lines <- in.Text():
			}
		}
		if err := in.Err(); err != nil {
			errs <- err
		}
	}()

	for {
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			select {
			case err := <-errs:
				return err
			default:
				return nil
			}
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if s.EchoInput {
			s.printf("input", "%s", line)
		}

		msg, err := core.ParseMsg([]byte(line))
		if err != nil {
			s.printf("error", "%s", err)
			continue
		}

		st, err := r.Dispatch(ctx, msg)
		if err != nil {
			return err
		}
		s.printf("state", "%s", core.Encode(st))
	}
}
