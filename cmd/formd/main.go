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

// Package main is an HTTP host for the persistent form.
//
// The page's inputs talk to the Runtime over a websocket.  Every edit
// is written through to the configured store, and a restart picks up
// the last snapshot.
//
//    formd -store sqlite -store-path forms.sqlite -addr :8080
//    formd -config formd.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elm-community/js-integration-examples/config"
	"github.com/elm-community/js-integration-examples/core"
	"github.com/elm-community/js-integration-examples/host"
	"github.com/elm-community/js-integration-examples/logging"
	"github.com/elm-community/js-integration-examples/view"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "formd: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, _, err := config.FromArgs("formd", args)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Log).With().Str("cmd", "formd").Logger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

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

	go func() {
		if err := rt.Loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("runtime")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewServer(rt, view.NewPage(cfg.Title, cfg.Description), log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	log.Info().Str("addr", cfg.Addr).Str("store", cfg.Store.Kind).Msg("listening")

	if err = srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Info().Interface("stats", rt.Stats()).Msg("done")
	return nil
}
