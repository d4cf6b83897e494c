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

// Package blocknotify implements the block notification protocol used to
// stream newly added blocks from a node
package blocknotify

import (
	"time"

	"github.com/kaspeak/kaspeak-go/ledger"
	"github.com/kaspeak/kaspeak-go/protocol"
)

const (
	ProtocolName        = "block-notify"
	ProtocolId   uint16 = 2
)

var (
	StateIdle = protocol.NewState(1, "Idle")
	StateBusy = protocol.NewState(2, "Busy")
	StateDone = protocol.NewState(3, "Done")
)

var StateMap = protocol.StateMap{
	StateIdle: protocol.StateMapEntry{
		Agency: protocol.AgencyClient,
		Transitions: []protocol.StateTransition{
			{
				MsgType:  MessageTypeRequestNext,
				NewState: StateBusy,
			},
			{
				MsgType:  MessageTypeDone,
				NewState: StateDone,
			},
		},
	},
	StateBusy: protocol.StateMapEntry{
		Agency: protocol.AgencyServer,
		Transitions: []protocol.StateTransition{
			{
				MsgType:  MessageTypeBlockAdded,
				NewState: StateIdle,
			},
		},
	},
	StateDone: protocol.StateMapEntry{
		Agency: protocol.AgencyNone,
	},
}

// BlockNotify is a wrapper object that holds the client and server instances
type BlockNotify struct {
	Client *Client
	Server *Server
}

// Config is used to configure the BlockNotify protocol instance
type Config struct {
	RequestNextFunc RequestNextFunc
	Timeout         time.Duration
}

// CallbackContext provides context for callback functions
type CallbackContext struct {
	ConnectionId protocol.ConnectionId
	Client       *Client
	Server       *Server
}

// RequestNextFunc is the callback used by the server to fetch the next block
// to deliver. It should block until a block is available
type RequestNextFunc func(CallbackContext) (ledger.Block, error)

// New returns a new BlockNotify object
func New(protoOptions protocol.ProtocolOptions, cfg *Config) *BlockNotify {
	b := &BlockNotify{
		Client: NewClient(protoOptions, cfg),
		Server: NewServer(protoOptions, cfg),
	}
	return b
}

// BlockNotifyOptionFunc represents a function used to modify the BlockNotify protocol config
type BlockNotifyOptionFunc func(*Config)

// NewConfig returns a new BlockNotify config object with the provided options
func NewConfig(options ...BlockNotifyOptionFunc) Config {
	c := Config{
		Timeout: 60 * time.Second,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithRequestNextFunc specifies the callback used to fetch the next block when
// acting as a server
func WithRequestNextFunc(requestNextFunc RequestNextFunc) BlockNotifyOptionFunc {
	return func(c *Config) {
		c.RequestNextFunc = requestNextFunc
	}
}

// WithTimeout specifies the timeout for waiting on a block notification
func WithTimeout(timeout time.Duration) BlockNotifyOptionFunc {
	return func(c *Config) {
		c.Timeout = timeout
	}
}
