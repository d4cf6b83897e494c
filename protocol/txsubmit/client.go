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

package txsubmit

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kaspeak/kaspeak-go/ledger"
	"github.com/kaspeak/kaspeak-go/protocol"
)

// ErrTransactionRejected is returned when the node rejects a submitted
// transaction. The rejection reason from the node is included
var ErrTransactionRejected = errors.New("transaction rejected")

type submitResult struct {
	txId    ledger.Hash
	balance uint64
	err     error
}

// Client implements the TxSubmit client
type Client struct {
	*protocol.Protocol
	config          *Config
	callbackContext CallbackContext
	resultChan      chan submitResult
	submitMutex     sync.Mutex
	onceStart       sync.Once
	onceStop        sync.Once
	stateMutex      sync.Mutex
	started         bool
	stopped         bool
}

// NewClient returns a new TxSubmit client object
func NewClient(protoOptions protocol.ProtocolOptions, cfg *Config) *Client {
	if cfg == nil {
		tmpCfg := NewConfig()
		cfg = &tmpCfg
	}
	c := &Client{
		config:     cfg,
		resultChan: make(chan submitResult),
	}
	c.callbackContext = CallbackContext{
		Client:       c,
		ConnectionId: protoOptions.ConnectionId,
	}
	// Update state map with timeout
	stateMap := StateMap.Copy()
	if entry, ok := stateMap[StateBusy]; ok {
		entry.Timeout = c.config.Timeout
		stateMap[StateBusy] = entry
	}
	// Configure underlying Protocol
	protoConfig := protocol.ProtocolConfig{
		Name:                ProtocolName,
		ProtocolId:          ProtocolId,
		Muxer:               protoOptions.Muxer,
		Logger:              protoOptions.Logger,
		ErrorChan:           protoOptions.ErrorChan,
		Role:                protocol.ProtocolRoleClient,
		MessageHandlerFunc:  c.messageHandler,
		MessageFromCborFunc: NewMsgFromCbor,
		StateMap:            stateMap,
		InitialState:        StateIdle,
	}
	c.Protocol = protocol.New(protoConfig)
	return c
}

// Start begins protocol operation
func (c *Client) Start() {
	c.onceStart.Do(func() {
		c.stateMutex.Lock()
		defer c.stateMutex.Unlock()
		if c.stopped {
			return
		}
		c.Protocol.Logger().
			Debug("starting client protocol",
				"component", "network",
				"protocol", ProtocolName,
				"connection_id", c.callbackContext.ConnectionId.String(),
			)
		c.started = true
		c.Protocol.Start()
	})
}

// Stop transitions the protocol to the Done state
func (c *Client) Stop() error {
	var err error
	c.onceStop.Do(func() {
		c.stateMutex.Lock()
		defer c.stateMutex.Unlock()
		c.Protocol.Logger().
			Debug("stopping client protocol",
				"component", "network",
				"protocol", ProtocolName,
				"connection_id", c.callbackContext.ConnectionId.String(),
			)
		c.stopped = true
		if c.started {
			msg := NewMsgDone()
			if sendErr := c.SendMessage(msg); sendErr != nil {
				err = sendErr
			}
			c.Protocol.Stop()
			// Defer closing the channel until the protocol fully shuts down
			go func() {
				<-c.DoneChan()
				close(c.resultChan)
			}()
		} else {
			close(c.resultChan)
		}
	})
	return err
}

// SubmitTx submits the provided transaction to the node. This function will
// block until the node accepts or rejects the transaction. On acceptance it
// returns the transaction ID and the remaining balance of the submitting
// address
func (c *Client) SubmitTx(tx ledger.Transaction) (ledger.Hash, uint64, error) {
	// Serialize submissions, since the protocol handles one at a time
	c.submitMutex.Lock()
	defer c.submitMutex.Unlock()
	msg := NewMsgSubmitTx(tx)
	if err := c.SendMessage(msg); err != nil {
		return ledger.Hash{}, 0, err
	}
	result, ok := <-c.resultChan
	if !ok {
		return ledger.Hash{}, 0, protocol.ErrProtocolShuttingDown
	}
	return result.txId, result.balance, result.err
}

func (c *Client) messageHandler(msg protocol.Message) error {
	var err error
	switch msg.Type() {
	case MessageTypeAcceptTx:
		err = c.handleAcceptTx(msg)
	case MessageTypeRejectTx:
		err = c.handleRejectTx(msg)
	default:
		err = fmt.Errorf(
			"%s: received unexpected message type %d",
			ProtocolName,
			msg.Type(),
		)
	}
	return err
}

func (c *Client) handleAcceptTx(msg protocol.Message) error {
	msgAccept, ok := msg.(*MsgAcceptTx)
	if !ok {
		return fmt.Errorf("%s: unexpected message type %T", ProtocolName, msg)
	}
	result := submitResult{
		txId:    msgAccept.TransactionId,
		balance: msgAccept.Balance,
	}
	select {
	case <-c.DoneChan():
		return protocol.ErrProtocolShuttingDown
	case c.resultChan <- result:
	}
	return nil
}

func (c *Client) handleRejectTx(msg protocol.Message) error {
	msgReject, ok := msg.(*MsgRejectTx)
	if !ok {
		return fmt.Errorf("%s: unexpected message type %T", ProtocolName, msg)
	}
	result := submitResult{
		err: fmt.Errorf("%w: %s", ErrTransactionRejected, msgReject.Reason),
	}
	select {
	case <-c.DoneChan():
		return protocol.ErrProtocolShuttingDown
	case c.resultChan <- result:
	}
	return nil
}
