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

	"github.com/kaspeak/kaspeak-go/protocol"
)

// Server implements the BlockNotify server
type Server struct {
	*protocol.Protocol
	config          *Config
	callbackContext CallbackContext
	onceStart       sync.Once
}

// NewServer returns a new BlockNotify server object
func NewServer(protoOptions protocol.ProtocolOptions, cfg *Config) *Server {
	if cfg == nil {
		tmpCfg := NewConfig()
		cfg = &tmpCfg
	}
	s := &Server{
		config: cfg,
	}
	s.callbackContext = CallbackContext{
		Server:       s,
		ConnectionId: protoOptions.ConnectionId,
	}
	protoConfig := protocol.ProtocolConfig{
		Name:                ProtocolName,
		ProtocolId:          ProtocolId,
		Muxer:               protoOptions.Muxer,
		Logger:              protoOptions.Logger,
		ErrorChan:           protoOptions.ErrorChan,
		Role:                protocol.ProtocolRoleServer,
		MessageHandlerFunc:  s.messageHandler,
		MessageFromCborFunc: NewMsgFromCbor,
		StateMap:            StateMap.Copy(),
		InitialState:        StateIdle,
	}
	s.Protocol = protocol.New(protoConfig)
	return s
}

// Start begins protocol operation
func (s *Server) Start() {
	s.onceStart.Do(func() {
		s.Protocol.Logger().
			Debug("starting server protocol",
				"component", "network",
				"protocol", ProtocolName,
				"connection_id", s.callbackContext.ConnectionId.String(),
			)
		s.Protocol.Start()
	})
}

func (s *Server) messageHandler(msg protocol.Message) error {
	var err error
	switch msg.Type() {
	case MessageTypeRequestNext:
		err = s.handleRequestNext()
	case MessageTypeDone:
		err = s.handleDone()
	default:
		err = fmt.Errorf(
			"%s: received unexpected message type %d",
			ProtocolName,
			msg.Type(),
		)
	}
	return err
}

func (s *Server) handleRequestNext() error {
	if s.config.RequestNextFunc == nil {
		return fmt.Errorf(
			"received block-notify RequestNext message but no callback function is defined",
		)
	}
	block, err := s.config.RequestNextFunc(s.callbackContext)
	if err != nil {
		return err
	}
	msg := NewMsgBlockAdded(block)
	return s.SendMessage(msg)
}

func (s *Server) handleDone() error {
	s.Protocol.Logger().
		Debug("received done message",
			"component", "network",
			"protocol", ProtocolName,
			"role", "server",
			"connection_id", s.callbackContext.ConnectionId.String(),
		)
	return nil
}
