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
	"fmt"
)

// DecodeError occurs when a snapshot can't be interpreted as a
// State.
//
// Init recovers from every DecodeError by substituting DefaultState.
type DecodeError struct {
	// Reason says what was wrong with the snapshot.
	Reason string

	// Err is an optional underlying (usually JSON) error.
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return "snapshot decode: " + e.Reason + ": " + e.Err.Error()
	}
	return "snapshot decode: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ErrNoSnapshot is wrapped by the DecodeError returned for absent or
// null snapshots.
var ErrNoSnapshot = errors.New("no snapshot")

// IsNoSnapshot reports whether the error says there simply wasn't a
// snapshot, which is the normal case for a first run.
func IsNoSnapshot(err error) bool {
	return errors.Is(err, ErrNoSnapshot)
}

// MsgError occurs when a wire message isn't a Msg.
type MsgError struct {
	Reason string
	Err    error
}

func (e *MsgError) Error() string {
	if e.Err != nil {
		return "bad message: " + e.Reason + ": " + e.Err.Error()
	}
	return "bad message: " + e.Reason
}

func (e *MsgError) Unwrap() error {
	return e.Err
}

func decodeErrorf(format string, args ...interface{}) *DecodeError {
	return &DecodeError{
		Reason: fmt.Sprintf(format, args...),
	}
}
