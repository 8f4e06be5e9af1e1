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
	"encoding/json"
)

// State is the entire state of the form.
//
// Both fields are always defined.  The empty string is a perfectly
// good value for either.
type State struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// DefaultState returns the state used when there is no usable
// snapshot.
func DefaultState() State {
	return State{}
}

// WithName returns a copy of the state with the given name.
func (s State) WithName(name string) State {
	s.Name = name
	return s
}

// WithEmail returns a copy of the state with the given email.
func (s State) WithEmail(email string) State {
	s.Email = email
	return s
}

// Encode returns the snapshot representation of the state.
//
// The result is a JSON object with exactly two string properties:
// "name" and "email".
func Encode(s State) []byte {
	js, err := json.Marshal(&s)
	if err != nil {
		// Two strings always marshal.
		panic(err)
	}
	return js
}

// String renders the state as its snapshot.
func (s State) String() string {
	return string(Encode(s))
}
