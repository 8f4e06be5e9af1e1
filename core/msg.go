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
	"fmt"
)

// Msg is a request to change the State.
//
// The only Msgs are SetName and SetEmail.
type Msg interface {
	// apply is the transition for this Msg.
	apply(State) State

	// Field names the field that this Msg changes.
	Field() string
}

// SetName replaces the name.
type SetName struct {
	Value string
}

func (m SetName) apply(s State) State {
	return s.WithName(m.Value)
}

func (m SetName) Field() string {
	return "name"
}

// MarshalJSON gives the wire form {"setName":VALUE}.
func (m SetName) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"setName": m.Value})
}

// SetEmail replaces the email.
type SetEmail struct {
	Value string
}

func (m SetEmail) apply(s State) State {
	return s.WithEmail(m.Value)
}

func (m SetEmail) Field() string {
	return "email"
}

// MarshalJSON gives the wire form {"setEmail":VALUE}.
func (m SetEmail) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"setEmail": m.Value})
}

// MsgForField returns the Msg that sets the given field ("name" or
// "email") to the given value.
func MsgForField(field, value string) (Msg, error) {
	switch field {
	case "name":
		return SetName{Value: value}, nil
	case "email":
		return SetEmail{Value: value}, nil
	default:
		return nil, &MsgError{Reason: fmt.Sprintf("unknown field %q", field)}
	}
}

// MarshalMsg renders a Msg in its wire form.
func MarshalMsg(m Msg) ([]byte, error) {
	return json.Marshal(m)
}

// ParseMsg parses a wire message.
//
// A wire message is a JSON object with exactly one property, either
// "setName" or "setEmail", whose value is a string.
func ParseMsg(js []byte) (Msg, error) {
	var props map[string]json.RawMessage
	if err := json.Unmarshal(js, &props); err != nil {
		return nil, &MsgError{Reason: "not a JSON object", Err: err}
	}
	if props == nil {
		return nil, &MsgError{Reason: "null"}
	}
	if len(props) != 1 {
		return nil, &MsgError{Reason: fmt.Sprintf("want exactly one property, got %d", len(props))}
	}

	for k, raw := range props {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '"' {
			return nil, &MsgError{Reason: fmt.Sprintf("%q value is not a string", k)}
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &MsgError{Reason: fmt.Sprintf("%q value", k), Err: err}
		}
		switch k {
		case "setName":
			return SetName{Value: v}, nil
		case "setEmail":
			return SetEmail{Value: v}, nil
		default:
			return nil, &MsgError{Reason: fmt.Sprintf("unknown message %q", k)}
		}
	}

	// Not reached.
	return nil, &MsgError{Reason: "empty"}
}
