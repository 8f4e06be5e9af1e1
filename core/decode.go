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
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// snapshotKeys are the only properties a snapshot may have.
var snapshotKeys = []string{"name", "email"}

// Decode interprets a snapshot as a State.
//
// The snapshot must be a JSON object with exactly the properties
// "name" and "email", and both values must be strings.  Numbers,
// booleans, null, and nested values are not accepted in their place.
// Empty input and JSON null are treated as "no snapshot", which is
// also a DecodeError (wrapping ErrNoSnapshot).
//
// Decode doesn't fall back to anything.  See Init.
func Decode(raw []byte) (State, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return State{}, &DecodeError{
			Reason: "absent",
			Err:    ErrNoSnapshot,
		}
	}

	if raw[0] != '{' {
		return State{}, decodeErrorf("not an object")
	}

	var props map[string]json.RawMessage
	if err := json.Unmarshal(raw, &props); err != nil {
		return State{}, &DecodeError{
			Reason: "malformed",
			Err:    err,
		}
	}

	if err := checkKeys(keysOf(props)); err != nil {
		return State{}, err
	}

	var s State
	for _, k := range snapshotKeys {
		str, err := stringProperty(k, props[k])
		if err != nil {
			return State{}, err
		}
		switch k {
		case "name":
			s.Name = str
		case "email":
			s.Email = str
		}
	}

	return s, nil
}

// DecodeValue interprets an already-parsed value as a State.
//
// This is the path for hosts that hand over flags as Go values rather
// than as JSON text.  The schema is the same as Decode's.  Bytes are
// handed to Decode.  A plain string is not a mapping, so it's
// rejected even if it happens to contain JSON.
func DecodeValue(x interface{}) (State, error) {
	switch vv := x.(type) {
	case nil:
		return State{}, &DecodeError{
			Reason: "absent",
			Err:    ErrNoSnapshot,
		}
	case []byte:
		return Decode(vv)
	case json.RawMessage:
		return Decode(vv)
	case map[string]string:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		if err := checkKeys(keys); err != nil {
			return State{}, err
		}
		return State{Name: vv["name"], Email: vv["email"]}, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		if err := checkKeys(keys); err != nil {
			return State{}, err
		}
		name, is := vv["name"].(string)
		if !is {
			return State{}, decodeErrorf(`"name" is a %T, not a string`, vv["name"])
		}
		email, is := vv["email"].(string)
		if !is {
			return State{}, decodeErrorf(`"email" is a %T, not a string`, vv["email"])
		}
		return State{Name: name, Email: email}, nil
	default:
		return State{}, decodeErrorf("a %T is not a mapping", x)
	}
}

// Init returns the initial State for the given snapshot.
//
// If the snapshot decodes, that's the State.  Otherwise the State is
// DefaultState and the returned error says why.  The returned State
// is always usable.  The error is for logging only; callers shouldn't
// show it to anybody.
//
// Init has no side effects.  In particular, a fallback doesn't cause
// anything to be written anywhere.
func Init(raw []byte) (State, error) {
	s, err := Decode(raw)
	if err != nil {
		return Fallback(err), err
	}
	return s, nil
}

// Fallback maps any decode error to DefaultState.
func Fallback(err error) State {
	return DefaultState()
}

func keysOf(props map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	return keys
}

// checkKeys verifies that the given keys are exactly snapshotKeys.
func checkKeys(keys []string) error {
	have := make(map[string]bool, len(keys))
	var extra []string
	for _, k := range keys {
		have[k] = true
		if k != "name" && k != "email" {
			extra = append(extra, k)
		}
	}
	for _, k := range snapshotKeys {
		if !have[k] {
			return decodeErrorf(`missing "%s"`, k)
		}
	}
	if 0 < len(extra) {
		sort.Strings(extra)
		return decodeErrorf("unexpected properties: %s", strings.Join(extra, ", "))
	}
	return nil
}

// stringProperty requires the raw JSON value to be a string.
//
// encoding/json happily decodes null into a string, so we look at the
// raw value first.
func stringProperty(name string, raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", decodeErrorf(`"%s" is not a string`, name)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &DecodeError{
			Reason: `bad "` + name + `"`,
			Err:    err,
		}
	}
	return s, nil
}
