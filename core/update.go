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

// DefaultKey is the well-known key for the snapshot.
const DefaultKey = "myapp-model"

// Cmd is an effect that the host should perform.
//
// Like emitted messages from a machine's action, a Cmd is just data.
type Cmd interface {
	cmd()
}

// Persist asks the host to store the Payload under Key.
//
// Payload is always an encoded State.
type Persist struct {
	Key     string `json:"key"`
	Payload []byte `json:"payload"`
}

func (Persist) cmd() {}

// State decodes the payload.
func (p Persist) State() (State, error) {
	return Decode(p.Payload)
}

// Update is the transition function.
//
// Update is pure and total.  The result differs from the given State
// at most in the field that the Msg targets.  A nil Msg changes
// nothing.
func Update(msg Msg, s State) State {
	if msg == nil {
		return s
	}
	return msg.apply(s)
}

// Step performs Update and returns the Cmds that should follow.
//
// Every Step returns exactly one Persist, even when the new State
// equals the old one.  There is no coalescing.
func Step(key string, msg Msg, s State) (State, []Cmd) {
	next := Update(msg, s)
	return next, []Cmd{
		Persist{
			Key:     key,
			Payload: Encode(next),
		},
	}
}

// Component binds the component's operations to a storage key.
type Component struct {
	Key string
}

// NewComponent makes a Component.  An empty key means DefaultKey.
func NewComponent(key string) *Component {
	if key == "" {
		key = DefaultKey
	}
	return &Component{
		Key: key,
	}
}

// Init is core.Init.
func (c *Component) Init(raw []byte) (State, error) {
	return Init(raw)
}

// Step is core.Step with this Component's key.
func (c *Component) Step(msg Msg, s State) (State, []Cmd) {
	return Step(c.Key, msg, s)
}
