// Copyright 2025 Kaspeak Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protocol

import (
	"time"
)

const (
	AgencyNone   uint = 0
	AgencyClient uint = 1
	AgencyServer uint = 2
)

// State represents a protocol state
type State struct {
	Id   uint
	Name string
}

// NewState returns a new State object with the provided ID and name
func NewState(id uint, name string) State {
	return State{
		Id:   id,
		Name: name,
	}
}

func (s State) String() string {
	return s.Name
}

// StateTransition represents a transition between two protocol states
type StateTransition struct {
	MsgType   uint8
	NewState  State
	MatchFunc StateTransitionMatchFunc
}

// StateTransitionMatchFunc represents a function used to determine which transition
// to use when multiple transitions exist for the same message type
type StateTransitionMatchFunc func(Message) bool

// StateMapEntry represents a protocol state, it's allowed transitions, and an
// optional timeout for waiting on the transition
type StateMapEntry struct {
	Agency      uint
	Transitions []StateTransition
	Timeout     time.Duration
}

// StateMap represents the state machine of a mini-protocol
type StateMap map[State]StateMapEntry

// Copy returns a copy of the state map. This is mostly for convenience,
// since we need to copy the state map in various places
func (s StateMap) Copy() StateMap {
	ret := StateMap{}
	for k, v := range s {
		ret[k] = v
	}
	return ret
}
