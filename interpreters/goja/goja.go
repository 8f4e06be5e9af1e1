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

// Package goja runs ECMAScript port subscribers with Goja.
//
// A browser host typically subscribes to a component's outbound port
// with a line of glue like
//
//    localStorage.setItem(key, JSON.stringify(state));
//
// This package lets a Go host do the same thing.  The script runs once
// per Persist command.  It sees
//
//    _.key: the storage key
//    _.state: the state as an object with "name" and "email"
//    _.json: the encoded snapshot (a string)
//
// and it can use
//
//    localStorage.getItem(k), .setItem(k, v), .removeItem(k): backed
//      by a store.Store
//    log(x): write x (as JSON) to the log
//    cronNext(expr): the next time (RFC3339, UTC) matching the cron
//      expression
//
// See https://github.com/dop251/goja.
package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/elm-community/js-integration-examples/core"
	"github.com/elm-community/js-integration-examples/store"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
	"github.com/rs/zerolog"
)

// DefaultScript is the usual glue.
const DefaultScript = `localStorage.setItem(_.key, JSON.stringify(_.state));`

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Exec if the execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)
)

// Interpreter compiles and runs subscriber scripts.
type Interpreter struct {
	// Store backs localStorage.
	Store store.Store

	Log zerolog.Logger

	// Timeout, if positive, bounds each Exec.
	Timeout time.Duration

	// Requires names libraries that are prepended to every
	// script.  LibraryProvider resolves them.
	Requires []string

	LibraryProvider func(ctx context.Context, name string) (string, error)

	// Clock, if not nil, replaces time.Now for cronNext.
	Clock func() time.Time
}

// NewInterpreter makes an Interpreter whose localStorage is the given
// Store.
func NewInterpreter(s store.Store) *Interpreter {
	return &Interpreter{
		Store:           s,
		Log:             zerolog.Nop(),
		Timeout:         time.Second,
		LibraryProvider: MakeFileLibraryProvider("."),
	}
}

// MakeFileLibraryProvider returns a provider that reads "file://NAME"
// relative to dir.
func MakeFileLibraryProvider(dir string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			filename := filepath.Clean(parts[1])
			if strings.HasPrefix(filename, "..") || filepath.IsAbs(filename) {
				return "", fmt.Errorf("library '%s' is outside '%s'", name, dir)
			}
			bs, err := os.ReadFile(filepath.Join(dir, filename))
			if err != nil {
				return "", err
			}
			return string(bs), nil
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

// MakeMapLibraryProvider serves libraries from a map.
func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

// Compile prepends any Requires and compiles the result.
//
// This method can block if the LibraryProvider blocks.
func (i *Interpreter) Compile(ctx context.Context, src string) (*goja.Program, error) {
	var libsSrc string
	for _, lib := range i.Requires {
		if i.LibraryProvider == nil {
			return nil, fmt.Errorf("no provider for library '%s'", lib)
		}
		libSrc, err := i.LibraryProvider(ctx, lib)
		if err != nil {
			return nil, err
		}
		libsSrc += libSrc + "\n"
	}

	code := libsSrc + wrapSrc(src)

	p, err := goja.Compile("", code, true)
	if err != nil {
		return nil, errors.New(err.Error() + ": " + code)
	}
	return p, nil
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

// stateObject makes the "_.state" object.  Properties are set in
// snapshot order so JSON.stringify gives a canonical snapshot.
func stateObject(o *goja.Runtime, payload []byte) (goja.Value, error) {
	s, err := core.Decode(payload)
	if err != nil {
		var x interface{}
		if err := json.Unmarshal(payload, &x); err != nil {
			return nil, err
		}
		return o.ToValue(x), nil
	}
	obj := o.NewObject()
	if err := obj.Set("name", s.Name); err != nil {
		return nil, err
	}
	if err := obj.Set("email", s.Email); err != nil {
		return nil, err
	}
	return obj, nil
}

// Exec runs a compiled script for one Persist.
func (i *Interpreter) Exec(ctx context.Context, p *goja.Program, key string, payload []byte) error {
	if p == nil {
		return errors.New("no program")
	}

	if 0 < i.Timeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.Timeout)
		defer cancel()
	}

	o := goja.New()

	state, err := stateObject(o, payload)
	if err != nil {
		return err
	}

	env := o.NewObject()
	env.Set("key", key)
	env.Set("state", state)
	env.Set("json", string(payload))
	o.Set("_", env)

	ls := o.NewObject()
	ls.Set("getItem", func(k string) interface{} {
		if i.Store == nil {
			return nil
		}
		bs, err := i.Store.Get(ctx, k)
		if err != nil {
			protest(o, err.Error())
		}
		if bs == nil {
			return nil
		}
		return string(bs)
	})
	ls.Set("setItem", func(k string, v string) {
		if i.Store == nil {
			protest(o, "no storage")
		}
		if err := i.Store.Set(ctx, k, []byte(v)); err != nil {
			protest(o, err.Error())
		}
	})
	ls.Set("removeItem", func(k string) {
		d, is := i.Store.(store.Deleter)
		if !is {
			protest(o, "storage can't remove items")
		}
		if err := d.Delete(ctx, k); err != nil {
			protest(o, err.Error())
		}
	})
	o.Set("localStorage", ls)

	o.Set("log", func(x goja.Value) {
		var v interface{}
		if x != nil {
			v = x.Export()
		}
		js, err := json.Marshal(&v)
		if err != nil {
			i.Log.Info().Str("script", key).Msgf("(can't marshal: %s)", err)
			return
		}
		i.Log.Info().Str("script", key).RawJSON("value", js).Msg("script log")
	})

	o.Set("cronNext", func(expr string) string {
		c, err := cronexpr.Parse(expr)
		if err != nil {
			protest(o, err.Error())
		}
		now := time.Now
		if i.Clock != nil {
			now = i.Clock
		}
		return c.Next(now()).UTC().Format(time.RFC3339Nano)
	})

	// We want to make sure that the following goroutine is
	// terminated as soon as possible.
	ictx, cancel := context.WithCancel(ctx)
	go func() {
		<-ictx.Done()
		// If Exec calls cancel() after RunProgram returns, then
		// the interrupt is harmless.
		o.Interrupt(InterruptedMessage)
	}()

	_, err = o.RunProgram(p)
	cancel()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return Interrupted
		}
		return err
	}

	return nil
}

// Run compiles and runs in one go.
func (i *Interpreter) Run(ctx context.Context, src, key string, payload []byte) error {
	p, err := i.Compile(ctx, src)
	if err != nil {
		return err
	}
	return i.Exec(ctx, p, key, payload)
}

// Subscriber is a compiled script ready to receive Persists.
type Subscriber struct {
	i *Interpreter
	p *goja.Program
}

// NewSubscriber compiles the source.  An empty source means
// DefaultScript.
func NewSubscriber(ctx context.Context, i *Interpreter, src string) (*Subscriber, error) {
	if strings.TrimSpace(src) == "" {
		src = DefaultScript
	}
	p, err := i.Compile(ctx, src)
	if err != nil {
		return nil, err
	}
	return &Subscriber{
		i: i,
		p: p,
	}, nil
}

// Deliver runs the script for the given key and payload.
func (s *Subscriber) Deliver(ctx context.Context, key string, payload []byte) error {
	return s.i.Exec(ctx, s.p, key, payload)
}
