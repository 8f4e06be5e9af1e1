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

// Package storetest has checks that every store.Store should pass.
package storetest

import (
	"context"
	"testing"

	"github.com/elm-community/js-integration-examples/store"
)

// Basics exercises Get and Set on a fresh Store.
func Basics(t *testing.T, s store.Store) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const key = "myapp-model"

	v, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Fatalf("absent key gave %q", v)
	}

	check := func(want string) {
		t.Helper()
		got, err := s.Get(ctx, key)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Fatalf(`"%s" != "%s"`, got, want)
		}
	}

	if err := s.Set(ctx, key, []byte(`{"name":"Ana","email":"ana@x.com"}`)); err != nil {
		t.Fatal(err)
	}
	check(`{"name":"Ana","email":"ana@x.com"}`)

	if err := s.Set(ctx, key, []byte(`{"name":"Bo","email":""}`)); err != nil {
		t.Fatal(err)
	}
	check(`{"name":"Bo","email":""}`)

	// Same value again is just another write.
	if err := s.Set(ctx, key, []byte(`{"name":"Bo","email":""}`)); err != nil {
		t.Fatal(err)
	}
	check(`{"name":"Bo","email":""}`)

	if err := s.Set(ctx, "other", []byte(`{"name":"","email":""}`)); err != nil {
		t.Fatal(err)
	}
	check(`{"name":"Bo","email":""}`)

	if d, is := s.(store.Deleter); is {
		if err := d.Delete(ctx, "other"); err != nil {
			t.Fatal(err)
		}
		v, err := s.Get(ctx, "other")
		if err != nil {
			t.Fatal(err)
		}
		if v != nil {
			t.Fatalf("deleted key gave %q", v)
		}
	}
}
