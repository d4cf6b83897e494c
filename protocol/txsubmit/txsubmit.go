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

// Package txsubmit implements the transaction submission protocol used to
// submit transactions to a node
package txsubmit

import (
	"time"

	"github.com/kaspeak/kaspeak-go/ledger"
	"github.com/kaspeak/kaspeak-go/protocol"
)

const (
	ProtocolName        = "tx-submit"
	ProtocolId   uint16 = 4
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
				MsgType:  MessageTypeSubmitTx,
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
				MsgType:  MessageTypeAcceptTx,
				NewState: StateIdle,
			},
			{
				MsgType:  MessageTypeRejectTx,
				NewState: StateIdle,
			},
		},
	},
	StateDone: protocol.StateMapEntry{
		Agency: protocol.AgencyNone,
	},
}

// TxSubmit is a wrapper object that holds the client and server instances
type TxSubmit struct {
	Client *Client
	Server *Server
}

// MaxTxPayloadBytes is the default maximum transaction payload accepted by
// the server
const MaxTxPayloadBytes = 20_000

// Config is used to configure the TxSubmit protocol instance
type Config struct {
	SubmitTxFunc    SubmitTxFunc
	MaxPayloadBytes int
	Timeout         time.Duration
}

// CallbackContext provides context for callback functions
type CallbackContext struct {
	ConnectionId protocol.ConnectionId
	Client       *Client
	Server       *Server
}

// SubmitTxFunc is the callback used by the server to process a submitted
// transaction. It returns the accepted transaction ID and the remaining
// balance of the submitting address
type SubmitTxFunc func(CallbackContext, ledger.Transaction) (ledger.Hash, uint64, error)

// New returns a new TxSubmit object
func New(protoOptions protocol.ProtocolOptions, cfg *Config) *TxSubmit {
	t := &TxSubmit{
		Client: NewClient(protoOptions, cfg),
		Server: NewServer(protoOptions, cfg),
	}
	return t
}

// TxSubmitOptionFunc represents a function used to modify the TxSubmit protocol config
type TxSubmitOptionFunc func(*Config)

// NewConfig returns a new TxSubmit config object with the provided options
func NewConfig(options ...TxSubmitOptionFunc) Config {
	c := Config{
		MaxPayloadBytes: MaxTxPayloadBytes,
		Timeout:         30 * time.Second,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithSubmitTxFunc specifies the callback used to process submitted
// transactions when acting as a server
func WithSubmitTxFunc(submitTxFunc SubmitTxFunc) TxSubmitOptionFunc {
	return func(c *Config) {
		c.SubmitTxFunc = submitTxFunc
	}
}

// WithMaxPayloadBytes specifies the maximum transaction payload accepted
// when acting as a server
func WithMaxPayloadBytes(maxPayloadBytes int) TxSubmitOptionFunc {
	return func(c *Config) {
		c.MaxPayloadBytes = maxPayloadBytes
	}
}

// WithTimeout specifies the timeout for waiting on a submission result
func WithTimeout(timeout time.Duration) TxSubmitOptionFunc {
	return func(c *Config) {
		c.Timeout = timeout
	}
}
