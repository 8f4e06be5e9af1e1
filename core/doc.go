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

// Package core provides the persistent form component.
//
// The component holds a State with two text fields (name and email)
// and changes that State only in response to a Msg.  The transition
// function Update is pure.  Step composes Update with the one effect
// the component has: handing the encoded State to the host so the
// host can store it under a well-known key.
//
// The host supplies an initial snapshot ("flags") when the component
// starts.  Init tries to Decode that snapshot, and if it can't, the
// component starts from DefaultState.  That fallback is silent as far
// as users are concerned; the decode error is returned only so a host
// can log it.
//
// Like actions in a state machine, nothing in this package performs
// IO.  Commands returned by Step are descriptions.  Some other code
// (see package host) delivers them.
package core
