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

// Package host plays the part of the host environment for the form
// component.
//
// A Runtime owns the component's current State.  It boots the
// component from a snapshot, feeds it Msgs one at a time, delivers the
// resulting Cmds to a Port, and tells subscribers about new States.
package host

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/elm-community/js-integration-examples/core"
	"github.com/elm-community/js-integration-examples/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// envelope carries a Msg into the Runtime's loop.
type envelope struct {
	msg core.Msg

	// reply, if not nil, receives the State after processing.
	reply chan core.State
}

// Stats counts what a Runtime has done.
type Stats struct {
	Steps       int64 `json:"steps"`
	Writes      int64 `json:"writes"`
	WriteErrors int64 `json:"writeErrors"`
	Dropped     int64 `json:"dropped"`
}

// Runtime threads State through the component.
//
// Only the goroutine running Loop changes the State.
type Runtime struct {
	Component *core.Component
	Port      Port
	Log       zerolog.Logger

	// SubscriberBuffer is the channel capacity for new
	// subscribers.
	SubscriberBuffer int

	in chan *envelope

	mu    sync.RWMutex
	state core.State

	subsMu sync.Mutex
	subs   map[string]chan core.State

	steps, writes, writeErrors, dropped atomic.Int64
}

// NewRuntime makes a Runtime for the given component and port.  The
// State starts as core.DefaultState until Boot.
func NewRuntime(c *core.Component, port Port) *Runtime {
	if c == nil {
		c = core.NewComponent("")
	}
	return &Runtime{
		Component:        c,
		Port:             port,
		Log:              zerolog.Nop(),
		SubscriberBuffer: 8,
		in:               make(chan *envelope),
		state:            core.DefaultState(),
		subs:             make(map[string]chan core.State, 8),
	}
}

// Boot reads the snapshot from the store and initializes the State.
//
// A missing or undecodable snapshot gives core.DefaultState.  That
// fallback is only logged at debug level.  A store that can't be read
// is treated like a missing snapshot (with a warning).  Boot writes
// nothing.
func (r *Runtime) Boot(ctx context.Context, s store.Store) core.State {
	raw, err := s.Get(ctx, r.Component.Key)
	if err != nil {
		r.Log.Warn().Err(err).Str("key", r.Component.Key).Msg("snapshot read failed")
		raw = nil
	}
	return r.BootWith(raw)
}

// BootWith initializes the State from the given snapshot (flags).
func (r *Runtime) BootWith(raw []byte) core.State {
	s, err := r.Component.Init(raw)
	if err != nil {
		ev := r.Log.Debug().Str("key", r.Component.Key)
		if core.IsNoSnapshot(err) {
			ev.Msg("no snapshot")
		} else {
			ev.Err(err).Msg("snapshot ignored")
		}
	}
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	return s
}

// State returns the current State.
func (r *Runtime) State() core.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Stats returns counters.
func (r *Runtime) Stats() Stats {
	return Stats{
		Steps:       r.steps.Load(),
		Writes:      r.writes.Load(),
		WriteErrors: r.writeErrors.Load(),
		Dropped:     r.dropped.Load(),
	}
}

// Loop processes Msgs until the context is done.
func (r *Runtime) Loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-r.in:
			s := r.process(ctx, env.msg)
			if env.reply != nil {
				env.reply <- s
			}
		}
	}
}

// process is Step followed by delivery of every Cmd.
//
// A Port error doesn't undo the transition.  The host owns its store;
// the component's job ends when it hands over the Cmd.
func (r *Runtime) process(ctx context.Context, msg core.Msg) core.State {
	next, cmds := r.Component.Step(msg, r.State())

	r.mu.Lock()
	r.state = next
	r.mu.Unlock()
	r.steps.Add(1)

	for _, cmd := range cmds {
		if r.Port == nil {
			continue
		}
		r.writes.Add(1)
		if err := r.Port.Send(ctx, cmd); err != nil {
			r.writeErrors.Add(1)
			r.Log.Error().Err(err).Msg("port send")
		}
	}

	r.Log.Debug().Str("msg", msg.Field()).Stringer("state", next).Msg("stepped")

	r.publish(next)

	return next
}

// ErrNoMsg is returned by Dispatch when given a nil Msg.
var ErrNoMsg = errors.New("no message")

// Dispatch submits a Msg and waits for the resulting State.
//
// Loop must be running.
func (r *Runtime) Dispatch(ctx context.Context, msg core.Msg) (core.State, error) {
	if msg == nil {
		return r.State(), ErrNoMsg
	}
	env := &envelope{
		msg:   msg,
		reply: make(chan core.State, 1),
	}
	select {
	case <-ctx.Done():
		return r.State(), ctx.Err()
	case r.in <- env:
	}
	select {
	case <-ctx.Done():
		return r.State(), ctx.Err()
	case s := <-env.reply:
		return s, nil
	}
}

// Subscribe returns a channel that receives every new State.  The
// channel also gets the current State right away.
//
// Slow subscribers lose older States rather than block the Runtime.
// The last State in the channel is always the latest one published.
func (r *Runtime) Subscribe() (string, <-chan core.State) {
	id := uuid.NewString()
	buf := r.SubscriberBuffer
	if buf < 1 {
		buf = 1
	}
	c := make(chan core.State, buf)

	// publish runs after the State is set and also takes subsMu,
	// so no State can fall between this read and registration.
	r.subsMu.Lock()
	c <- r.State()
	r.subs[id] = c
	r.subsMu.Unlock()

	return id, c
}

// Unsubscribe removes the subscription and closes its channel.
func (r *Runtime) Unsubscribe(id string) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	if c, have := r.subs[id]; have {
		delete(r.subs, id)
		close(c)
	}
}

func (r *Runtime) publish(s core.State) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for id, c := range r.subs {
		select {
		case c <- s:
			continue
		default:
		}
		// Full: drop the oldest so the newest gets in.  Only
		// publish sends, and it holds subsMu.
		select {
		case <-c:
		default:
		}
		r.dropped.Add(1)
		r.Log.Debug().Str("subscriber", id).Msg("subscriber behind")
		select {
		case c <- s:
		default:
		}
	}
}
