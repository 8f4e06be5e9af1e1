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
	"context"
	"errors"
	"fmt"

	"github.com/elm-community/js-integration-examples/core"
	"github.com/elm-community/js-integration-examples/interpreters/goja"
	"github.com/elm-community/js-integration-examples/store"
)

// Port receives the component's outbound Cmds.
//
// A Port is a one-way channel from the component to the host.  The
// component doesn't wait for anything to come back.
type Port interface {
	Send(ctx context.Context, cmd core.Cmd) error
}

// UnknownCmd occurs when a Port gets a Cmd it doesn't understand.
type UnknownCmd struct {
	Cmd core.Cmd
}

func (e *UnknownCmd) Error() string {
	return fmt.Sprintf("unknown command %T", e.Cmd)
}

// StorePort writes Persists to a Store.
type StorePort struct {
	Store store.Store
}

func (p *StorePort) Send(ctx context.Context, cmd core.Cmd) error {
	switch vv := cmd.(type) {
	case core.Persist:
		return p.Store.Set(ctx, vv.Key, vv.Payload)
	default:
		return &UnknownCmd{Cmd: cmd}
	}
}

// ScriptPort hands Persists to a script.
type ScriptPort struct {
	Subscriber *goja.Subscriber
}

func (p *ScriptPort) Send(ctx context.Context, cmd core.Cmd) error {
	switch vv := cmd.(type) {
	case core.Persist:
		return p.Subscriber.Deliver(ctx, vv.Key, vv.Payload)
	default:
		return &UnknownCmd{Cmd: cmd}
	}
}

// FuncPort is a Port made from a function.
type FuncPort func(ctx context.Context, cmd core.Cmd) error

func (f FuncPort) Send(ctx context.Context, cmd core.Cmd) error {
	return f(ctx, cmd)
}

// Ports sends every Cmd to each Port in order.  Every Port gets every
// Cmd even if an earlier Port fails.
type Ports []Port

func (ps Ports) Send(ctx context.Context, cmd core.Cmd) error {
	var errs []error
	for _, p := range ps {
		if err := p.Send(ctx, cmd); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
