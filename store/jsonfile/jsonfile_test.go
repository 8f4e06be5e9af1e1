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

package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/elm-community/js-integration-examples/store"
	"github.com/elm-community/js-integration-examples/store/storetest"
	. "github.com/elm-community/js-integration-examples/util/testutil"
)

func TestImpl(t *testing.T) {
	var _ store.Store = &Store{}
	var _ store.Deleter = &Store{}
}

func TestBasics(t *testing.T) {
	s, err := Open(TempPath(t, "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	storetest.Basics(t, s)
}

func TestFileIsReadable(t *testing.T) {
	ctx := context.Background()
	filename := TempPath(t, "state.json")

	s, err := Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	if err = s.Set(ctx, "myapp-model", []byte(`{"name":"Ana","email":""}`)); err != nil {
		t.Fatal(err)
	}

	js, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err = json.Unmarshal(js, &m); err != nil {
		t.Fatal(err)
	}
	if !SameJSON(m["myapp-model"], `{"name":"Ana","email":""}`) {
		t.Fatal(string(js))
	}

	// A second Store sees the first one's writes.
	other, err := Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	v, err := other.Get(ctx, "myapp-model")
	if err != nil {
		t.Fatal(err)
	}
	if !SameJSON(v, `{"name":"Ana","email":""}`) {
		t.Fatal(string(v))
	}
}

func TestReloadKeepsBytes(t *testing.T) {
	ctx := context.Background()
	filename := TempPath(t, "state.json")

	s, err := Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	values := map[string]string{
		"html":   `{"name":"<Ana> & co","email":"a@x.com"}`,
		"spaced": `{ "name": "Ana", "email": "" }`,
		"plain":  `{"name":"Ana","email":""}`,
		"text":   `<b>tacos</b>`,
	}
	for k, v := range values {
		if err = s.Set(ctx, k, []byte(v)); err != nil {
			t.Fatal(err)
		}
	}

	other, err := Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range values {
		got, err := other.Get(ctx, k)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != v {
			t.Fatalf("%s: %q != %q", k, got, v)
		}
	}

	js, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(js, []byte(values["html"])) {
		t.Fatalf("snapshot rewritten in %s", js)
	}
}

func TestNonJSONValues(t *testing.T) {
	ctx := context.Background()
	s, err := Open(TempPath(t, "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []string{"tacos", `{"name":`, `"quoted"`, ""} {
		if err := s.Set(ctx, "k", []byte(v)); err != nil {
			t.Fatal(err)
		}
		got, err := s.Get(ctx, "k")
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != v {
			t.Fatalf("%q != %q", got, v)
		}
	}
}

func TestBadFile(t *testing.T) {
	filename := TempPath(t, "state.json")
	if err := os.WriteFile(filename, []byte("[1,2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(filename); err == nil {
		t.Fatal("expected an error")
	}
}
