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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/elm-community/js-integration-examples/core"
	"github.com/elm-community/js-integration-examples/host"
	"github.com/elm-community/js-integration-examples/view"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// MaxMsgSize bounds an inbound wire message.
const MaxMsgSize = 64 * 1024

// Server is the HTTP side of the host.  It never touches the store;
// it only submits Msgs to the Runtime.
type Server struct {
	Runtime *host.Runtime
	Page    *view.Page
	Log     zerolog.Logger

	// DispatchTimeout bounds each Dispatch.
	DispatchTimeout time.Duration

	upgrader websocket.Upgrader
}

func NewServer(r *host.Runtime, p *view.Page, log zerolog.Logger) *Server {
	return &Server{
		Runtime:         r,
		Page:            p,
		Log:             log,
		DispatchTimeout: 5 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.page)
	mux.HandleFunc("GET /ws", s.socket)
	mux.HandleFunc("GET /api/state", s.state)
	mux.HandleFunc("POST /api/msg", s.msg)
	mux.HandleFunc("POST /form", s.form)
	mux.HandleFunc("GET /healthz", s.healthz)
	return mux
}

func (s *Server) dispatch(ctx context.Context, m core.Msg) (core.State, error) {
	if 0 < s.DispatchTimeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.DispatchTimeout)
		defer cancel()
	}
	return s.Runtime.Dispatch(ctx, m)
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Page.Render(w, s.Runtime.State()); err != nil {
		s.Log.Error().Err(err).Msg("render")
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func writeState(w http.ResponseWriter, st core.State) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(core.Encode(st))
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
	})
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	writeState(w, s.Runtime.State())
}

func (s *Server) msg(w http.ResponseWriter, r *http.Request) {
	js, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxMsgSize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	m, err := core.ParseMsg(js)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := s.dispatch(r.Context(), m)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeState(w, st)
}

// form handles a plain form post (no script).  Each field is its own
// Msg, so a post is two Steps and two writes.
func (s *Server) form(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxMsgSize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, f := range view.Fields(s.Runtime.State()) {
		if _, given := r.PostForm[f.ID]; !given {
			continue
		}
		m, err := core.MsgForField(f.ID, r.PostForm.Get(f.ID))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err = s.dispatch(r.Context(), m); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":    true,
		"stats": s.Runtime.Stats(),
	})
}

// frame is an outbound websocket message.
//
// Seq is the sequence number of the last inbound Msg from this
// connection that has been processed.  A client that has sent Msgs
// with higher numbers knows the frame predates its own edits.  State
// is always the latest State when the frame was written, so frames
// never go backwards.
type frame struct {
	Seq   uint64          `json:"seq"`
	State json.RawMessage `json:"state"`
	Error string          `json:"error,omitempty"`
}

// parseInbound reads an inbound websocket message, which is either a
// bare wire Msg or {"seq":N,"msg":MSG}.  The sequence number is
// returned even when the Msg is bad.
func parseInbound(js []byte) (uint64, core.Msg, error) {
	var props map[string]json.RawMessage
	if err := json.Unmarshal(js, &props); err != nil {
		return 0, nil, &core.MsgError{Reason: "not a JSON object", Err: err}
	}
	raw, have := props["msg"]
	if !have {
		m, err := core.ParseMsg(js)
		return 0, m, err
	}
	var seq uint64
	if rawSeq, have := props["seq"]; have {
		if err := json.Unmarshal(rawSeq, &seq); err != nil {
			return 0, nil, &core.MsgError{Reason: "bad seq", Err: err}
		}
	}
	for k := range props {
		if k != "seq" && k != "msg" {
			return seq, nil, &core.MsgError{Reason: fmt.Sprintf("unexpected %q", k)}
		}
	}
	m, err := core.ParseMsg(raw)
	return seq, m, err
}

// socket is the port as a websocket.  Inbound text frames are wire
// Msgs, optionally numbered (see parseInbound).  Outbound frames are
// frames, written whenever the State changes (from any client), after
// each of this connection's Msgs, and for a bad Msg.
func (s *Server) socket(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Warn().Err(err).Msg("upgrade")
		return
	}
	defer c.Close()
	c.SetReadLimit(MaxMsgSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id, states := s.Runtime.Subscribe()
	defer s.Runtime.Unsubscribe(id)

	log := s.Log.With().Str("subscriber", id).Str("remote", r.RemoteAddr).Logger()
	log.Debug().Msg("socket open")

	var acked atomic.Uint64
	processed := make(chan struct{}, 1)
	problems := make(chan error, 4)
	done := make(chan struct{})

	// Only this goroutine writes to the connection.
	go func() {
		defer close(done)
		for {
			var problem error
			select {
			case <-ctx.Done():
				return
			case _, ok := <-states:
				if !ok {
					return
				}
			case <-processed:
			case problem = <-problems:
			}

			// Seq first, then the State, so the State is at
			// least as new as the Msg numbered Seq.
			f := frame{Seq: acked.Load()}
			f.State = core.Encode(s.Runtime.State())
			if problem != nil {
				f.Error = problem.Error()
			}
			js, err := json.Marshal(&f)
			if err != nil {
				log.Error().Err(err).Msg("frame")
				continue
			}
			if err := c.WriteMessage(websocket.TextMessage, js); err != nil {
				log.Debug().Err(err).Msg("socket write")
				cancel()
				return
			}
		}
	}()

	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("socket read")
			}
			break
		}
		if mt != websocket.TextMessage {
			continue
		}
		seq, m, err := parseInbound(message)
		if err == nil {
			_, err = s.dispatch(ctx, m)
		}
		if errors.Is(err, context.Canceled) {
			break
		}
		if acked.Load() < seq {
			acked.Store(seq)
		}
		if err != nil {
			select {
			case problems <- err:
			default:
				log.Warn().Err(err).Msg("socket problem dropped")
			}
		}
		select {
		case processed <- struct{}{}:
		default:
		}
	}

	cancel()
	c.Close()
	<-done
	log.Debug().Msg("socket closed")
}
