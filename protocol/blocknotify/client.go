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

package blocknotify

import (
	"fmt"
	"sync"

	"github.com/kaspeak/kaspeak-go/ledger"
	"github.com/kaspeak/kaspeak-go/protocol"
)

// Client implements the BlockNotify client
type Client struct {
	*protocol.Protocol
	config          *Config
	callbackContext CallbackContext
	blockChan       chan ledger.Block
	onceStart       sync.Once
	onceStop        sync.Once
	stateMutex      sync.Mutex
	started         bool
	stopped         bool
}

// NewClient returns a new BlockNotify client object
func NewClient(protoOptions protocol.ProtocolOptions, cfg *Config) *Client {
	if cfg == nil {
		tmpCfg := NewConfig()
		cfg = &tmpCfg
	}
	c := &Client{
		config:    cfg,
		blockChan: make(chan ledger.Block),
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
				close(c.blockChan)
			}()
		} else {
			close(c.blockChan)
		}
	})
	return err
}

// RequestNext fetches the next added block. This function will block until a
// block notification is received from the node
func (c *Client) RequestNext() (ledger.Block, error) {
	msg := NewMsgRequestNext()
	if err := c.SendMessage(msg); err != nil {
		return ledger.Block{}, err
	}
	block, ok := <-c.blockChan
	if !ok {
		return ledger.Block{}, protocol.ErrProtocolShuttingDown
	}
	return block, nil
}

func (c *Client) messageHandler(msg protocol.Message) error {
	var err error
	switch msg.Type() {
	case MessageTypeBlockAdded:
		err = c.handleBlockAdded(msg)
	default:
		err = fmt.Errorf(
			"%s: received unexpected message type %d",
			ProtocolName,
			msg.Type(),
		)
	}
	return err
}

func (c *Client) handleBlockAdded(msg protocol.Message) error {
	msgBlockAdded, ok := msg.(*MsgBlockAdded)
	if !ok {
		return fmt.Errorf("%s: unexpected message type %T", ProtocolName, msg)
	}
	select {
	case <-c.DoneChan():
		return protocol.ErrProtocolShuttingDown
	case c.blockChan <- msgBlockAdded.Block:
	}
	return nil
}
