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

package core

import (
	"errors"
	"testing"

	. "github.com/elm-community/js-integration-examples/util/testutil"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeGood(t *testing.T) {
	s, err := Decode([]byte(`{"name":"Ana","email":"ana@x.com"}`))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(State{Name: "Ana", Email: "ana@x.com"}, s); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestDecodeEmptyStrings(t *testing.T) {
	s, err := Decode([]byte(` {"email":"", "name":""} `))
	if err != nil {
		t.Fatal(err)
	}
	if s != DefaultState() {
		t.Fatalf("got %s", s)
	}
}

func TestDecodeBad(t *testing.T) {
	bads := map[string]string{
		"empty":          ``,
		"space":          "  \n",
		"null":           `null`,
		"missing email":  `{"name":"Ana"}`,
		"missing name":   `{"email":"ana@x.com"}`,
		"extra":          `{"name":"Ana","email":"ana@x.com","age":"3"}`,
		"number":         `{"name":1,"email":"ana@x.com"}`,
		"bool":           `{"name":"Ana","email":true}`,
		"null field":     `{"name":null,"email":"ana@x.com"}`,
		"nested":         `{"name":{"first":"Ana"},"email":"ana@x.com"}`,
		"array":          `[{"name":"Ana","email":"ana@x.com"}]`,
		"string":         `"{\"name\":\"Ana\",\"email\":\"\"}"`,
		"truncated":      `{"name":"Ana","email":`,
		"empty object":   `{}`,
		"wrong key case": `{"Name":"Ana","email":"ana@x.com"}`,
	}

	for what, raw := range bads {
		t.Run(what, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			if err == nil {
				t.Fatalf("expected an error for %s", raw)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("%T isn't a %T", err, de)
			}
		})
	}
}

func TestDecodeNoSnapshot(t *testing.T) {
	for _, raw := range []string{"", "null", " null "} {
		_, err := Decode([]byte(raw))
		if !IsNoSnapshot(err) {
			t.Fatalf("%q: %v", raw, err)
		}
	}

	_, err := Decode([]byte(`{"name":"Ana"}`))
	if IsNoSnapshot(err) {
		t.Fatal(err)
	}
}

func TestInitFallback(t *testing.T) {
	for _, raw := range []string{
		``,
		`null`,
		`{"name":"Ana"}`,
		`{"name":"Ana","email":7}`,
		`{"name":"Ana","email":"a","x":"y"}`,
		`tacos`,
	} {
		s, err := Init([]byte(raw))
		if err == nil {
			t.Fatalf("%q: no error", raw)
		}
		if s != (State{Name: "", Email: ""}) {
			t.Fatalf("%q: got %s", raw, s)
		}
	}
}

func TestInitPartialIsNotMerged(t *testing.T) {
	s, _ := Init([]byte(`{"name":"Ana"}`))
	if s.Name != "" {
		t.Fatalf("partial snapshot leaked name %q", s.Name)
	}
}

func TestRoundTrip(t *testing.T) {
	states := []State{
		{},
		{Name: "Ana", Email: "ana@x.com"},
		{Name: `quote " and \ backslash`, Email: "<script>"},
		{Name: "Zoë 🌮", Email: "\n\t"},
		{Name: "", Email: "only@email"},
	}
	for _, s := range states {
		got, err := Decode(Encode(s))
		if err != nil {
			t.Fatalf("%#v: %v", s, err)
		}
		if got != s {
			t.Fatalf("%#v != %#v", got, s)
		}
	}
}

func TestEncodeShape(t *testing.T) {
	js := Encode(State{Name: "Bo"})
	if string(js) != `{"name":"Bo","email":""}` {
		t.Fatal(string(js))
	}
}

func TestDecodeValue(t *testing.T) {
	s, err := DecodeValue(Dwimjs(`{"name":"Ana","email":"ana@x.com"}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "Ana" || s.Email != "ana@x.com" {
		t.Fatal(JS(s))
	}

	if s, err = DecodeValue(map[string]string{"name": "Bo", "email": ""}); err != nil {
		t.Fatal(err)
	}
	if s.Name != "Bo" {
		t.Fatal(JS(s))
	}

	if s, err = DecodeValue([]byte(`{"name":"Cy","email":"c@x"}`)); err != nil {
		t.Fatal(err)
	}
	if s.Name != "Cy" {
		t.Fatal(JS(s))
	}

	bads := []interface{}{
		nil,
		"tacos",
		42,
		Dwimjs(`{"name":"Ana"}`),
		Dwimjs(`{"name":"Ana","email":1}`),
		Dwimjs(`{"name":true,"email":"a"}`),
		Dwimjs(`{"name":"Ana","email":"a","more":"b"}`),
		Dwimjs(`["Ana","a"]`),
		map[string]string{"name": "Ana"},
	}
	for _, x := range bads {
		if _, err := DecodeValue(x); err == nil {
			t.Fatalf("no error for %#v", x)
		}
	}

	if _, err := DecodeValue(nil); !IsNoSnapshot(err) {
		t.Fatal(err)
	}
}
