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
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/elm-community/js-integration-examples/core"
	"github.com/elm-community/js-integration-examples/host"
	"github.com/elm-community/js-integration-examples/logging"
	"github.com/elm-community/js-integration-examples/store"
	"github.com/elm-community/js-integration-examples/view"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
)

type fixture struct {
	ts    *httptest.Server
	store *store.MemStore
	rt    *host.Runtime
}

func newFixture(t *testing.T, flags string) *fixture {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	s := store.NewMemStore()
	rt := host.NewRuntime(core.NewComponent(""), &host.StorePort{Store: s})
	rt.BootWith([]byte(flags))
	go rt.Loop(ctx)

	srv := NewServer(rt, view.NewPage("Contact", "Tell us *who* you are."), logging.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &fixture{
		ts:    ts,
		store: s,
		rt:    rt,
	}
}

func (f *fixture) sets() int {
	f.store.Lock()
	defer f.store.Unlock()
	return f.store.Sets
}

func (f *fixture) stored(t *testing.T) core.State {
	bs, err := f.store.Get(context.Background(), core.DefaultKey)
	if err != nil {
		t.Fatal(err)
	}
	st, err := core.Decode(bs)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func body(t *testing.T, resp *http.Response) string {
	defer resp.Body.Close()
	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(bs)
}

func TestPage(t *testing.T) {
	f := newFixture(t, `{"name":"Bo","email":"b@x.com"}`)

	resp, err := http.Get(f.ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatal(resp.Status)
	}
	page := body(t, resp)
	for _, want := range []string{`value="Bo"`, `value="b@x.com"`, `<em>who</em>`} {
		if !strings.Contains(page, want) {
			t.Fatalf("missing %s in\n%s", want, page)
		}
	}
	if f.sets() != 0 {
		t.Fatal("rendering wrote")
	}
}

func TestNotFound(t *testing.T) {
	f := newFixture(t, "")
	resp, err := http.Get(f.ts.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatal(resp.Status)
	}
}

func TestState(t *testing.T) {
	f := newFixture(t, `{"name":1}`)

	resp, err := http.Get(f.ts.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	if got := body(t, resp); got != `{"name":"","email":""}` {
		t.Fatal(got)
	}
}

func TestAPIMsg(t *testing.T) {
	f := newFixture(t, `{"name":"","email":"b@x.com"}`)

	resp, err := http.Post(f.ts.URL+"/api/msg", "application/json", strings.NewReader(`{"setName":"Bo"}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatal(resp.Status)
	}

	want := core.State{Name: "Bo", Email: "b@x.com"}
	if got := body(t, resp); got != string(core.Encode(want)) {
		t.Fatal(got)
	}
	if f.sets() != 1 {
		t.Fatal(f.sets())
	}
	if diff := cmp.Diff(want, f.stored(t)); diff != "" {
		t.Fatalf("(-want +got)\n%s", diff)
	}
}

func TestAPIMsgBad(t *testing.T) {
	f := newFixture(t, `{"name":"Bo","email":""}`)

	for _, js := range []string{
		``,
		`{}`,
		`{"setName":1}`,
		`{"setName":"A","setEmail":"B"}`,
		`{"setAge":"7"}`,
		`["setName","A"]`,
	} {
		resp, err := http.Post(f.ts.URL+"/api/msg", "application/json", strings.NewReader(js))
		if err != nil {
			t.Fatal(err)
		}
		got := body(t, resp)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: %s %s", js, resp.Status, got)
		}
		if !strings.Contains(got, `"error"`) {
			t.Fatal(got)
		}
	}

	if f.sets() != 0 {
		t.Fatal(f.sets())
	}
	if f.rt.State() != (core.State{Name: "Bo"}) {
		t.Fatal(f.rt.State())
	}
}

func TestForm(t *testing.T) {
	f := newFixture(t, "")

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.PostForm(f.ts.URL+"/form", url.Values{
		"name":  {"Bo"},
		"email": {"b@x.com"},
	})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatal(resp.Status)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Fatal(loc)
	}

	want := core.State{Name: "Bo", Email: "b@x.com"}
	if diff := cmp.Diff(want, f.rt.State()); diff != "" {
		t.Fatalf("(-want +got)\n%s", diff)
	}
	if diff := cmp.Diff(want, f.stored(t)); diff != "" {
		t.Fatalf("(-want +got)\n%s", diff)
	}
	if f.sets() != 2 {
		t.Fatal(f.sets())
	}
}

func TestFormOneField(t *testing.T) {
	f := newFixture(t, `{"name":"Bo","email":"b@x.com"}`)

	resp, err := http.PostForm(f.ts.URL+"/form", url.Values{
		"email": {"bo@y.org"},
	})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if f.rt.State() != (core.State{Name: "Bo", Email: "bo@y.org"}) {
		t.Fatal(f.rt.State())
	}
	if f.sets() != 1 {
		t.Fatal(f.sets())
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, "")

	resp, err := http.Get(f.ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	var h struct {
		OK    bool       `json:"ok"`
		Stats host.Stats `json:"stats"`
	}
	if err = json.Unmarshal([]byte(body(t, resp)), &h); err != nil {
		t.Fatal(err)
	}
	if !h.OK {
		t.Fatal(h)
	}
}

func dial(t *testing.T, f *fixture) *websocket.Conn {
	u := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func read(t *testing.T, c *websocket.Conn) frame {
	c.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, message, err := c.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var f frame
	if err = json.Unmarshal(message, &f); err != nil {
		t.Fatalf("%s: %s", err, message)
	}
	return f
}

func (f frame) state(t *testing.T) core.State {
	st, err := core.Decode(f.State)
	if err != nil {
		t.Fatalf("%s: %s", err, f.State)
	}
	return st
}

// readUntil reads frames until one satisfies the predicate.  Frames
// must never go backwards.
func readUntil(t *testing.T, c *websocket.Conn, pred func(frame) bool) frame {
	var seq uint64
	for {
		f := read(t, c)
		if f.Seq < seq {
			t.Fatalf("seq went from %d to %d", seq, f.Seq)
		}
		seq = f.Seq
		if pred(f) {
			return f
		}
	}
}

func send(t *testing.T, c *websocket.Conn, js string) {
	if err := c.WriteMessage(websocket.TextMessage, []byte(js)); err != nil {
		t.Fatal(err)
	}
}

func TestParseInbound(t *testing.T) {
	for _, tc := range []struct {
		js  string
		seq uint64
		msg core.Msg
		bad bool
	}{
		{js: `{"setName":"Bo"}`, msg: core.SetName{Value: "Bo"}},
		{js: `{"seq":7,"msg":{"setEmail":"b@x.com"}}`, seq: 7, msg: core.SetEmail{Value: "b@x.com"}},
		{js: `{"msg":{"setName":""}}`, msg: core.SetName{}},
		{js: `{"seq":3,"msg":{"setName":1}}`, seq: 3, bad: true},
		{js: `{"seq":3,"msg":{"setName":"A"},"x":1}`, seq: 3, bad: true},
		{js: `{"seq":"3","msg":{"setName":"A"}}`, bad: true},
		{js: `{"seq":-1,"msg":{"setName":"A"}}`, bad: true},
		{js: `{"setName":"A","setEmail":"B"}`, bad: true},
		{js: `[]`, bad: true},
	} {
		seq, m, err := parseInbound([]byte(tc.js))
		if tc.bad != (err != nil) {
			t.Fatalf("%s: %v", tc.js, err)
		}
		if seq != tc.seq {
			t.Fatalf("%s: seq %d", tc.js, seq)
		}
		if !tc.bad && m != tc.msg {
			t.Fatalf("%s: %#v", tc.js, m)
		}
	}
}

func TestSocket(t *testing.T) {
	f := newFixture(t, `{"name":"Bo","email":""}`)
	c := dial(t, f)

	first := read(t, c)
	if first.Seq != 0 || string(first.State) != `{"name":"Bo","email":""}` {
		t.Fatalf("%#v", first)
	}

	// A bare Msg still works.
	send(t, c, `{"setEmail":"b@x.com"}`)
	got := readUntil(t, c, func(fr frame) bool {
		return fr.state(t).Email == "b@x.com"
	})
	if got.Seq != 0 {
		t.Fatal(got.Seq)
	}

	// Quick edits, each numbered.
	send(t, c, `{"seq":1,"msg":{"setName":"a"}}`)
	send(t, c, `{"seq":2,"msg":{"setName":"ab"}}`)
	send(t, c, `{"seq":3,"msg":{"setName":"abc"}}`)

	got = readUntil(t, c, func(fr frame) bool {
		// A frame is never older than the Msg it acknowledges.
		if name := fr.state(t).Name; fr.Seq != 0 && len(name) < int(fr.Seq) {
			t.Fatalf("seq %d with name %q", fr.Seq, name)
		}
		return fr.Seq == 3
	})
	if diff := cmp.Diff(core.State{Name: "abc", Email: "b@x.com"}, got.state(t)); diff != "" {
		t.Fatalf("(-want +got)\n%s", diff)
	}

	send(t, c, `{"seq":4,"msg":{"setEmail":false}}`)
	got = readUntil(t, c, func(fr frame) bool {
		return fr.Error != ""
	})
	if got.Seq != 4 {
		t.Fatal(got.Seq)
	}
	if got.state(t) != f.rt.State() {
		t.Fatal(got.state(t))
	}

	if f.sets() != 4 {
		t.Fatal(f.sets())
	}
	if diff := cmp.Diff(core.State{Name: "abc", Email: "b@x.com"}, f.stored(t)); diff != "" {
		t.Fatalf("(-want +got)\n%s", diff)
	}
}

func TestSocketBroadcast(t *testing.T) {
	f := newFixture(t, "")
	a, b := dial(t, f), dial(t, f)

	// The initial State means the subscription exists.
	read(t, a)
	read(t, b)

	send(t, a, `{"seq":1,"msg":{"setName":"Bo"}}`)

	// The sender sees its own edit acknowledged.  The other client
	// sees the same State, but not as its own.
	mine := readUntil(t, a, func(fr frame) bool { return fr.Seq == 1 })
	if mine.state(t) != (core.State{Name: "Bo"}) {
		t.Fatal(mine.state(t))
	}
	theirs := readUntil(t, b, func(fr frame) bool { return fr.state(t).Name == "Bo" })
	if theirs.Seq != 0 {
		t.Fatal(theirs.Seq)
	}

	resp, err := http.Post(f.ts.URL+"/api/msg", "application/json", strings.NewReader(`{"setEmail":"b@x.com"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	want := core.State{Name: "Bo", Email: "b@x.com"}
	for c, seq := range map[*websocket.Conn]uint64{a: 1, b: 0} {
		got := readUntil(t, c, func(fr frame) bool { return fr.state(t) == want })
		if got.Seq != seq {
			t.Fatalf("seq %d, want %d", got.Seq, seq)
		}
	}
}
