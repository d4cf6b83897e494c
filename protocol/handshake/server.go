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

package handshake

import (
	"fmt"
	"sync"

	"github.com/kaspeak/kaspeak-go/protocol"
)

// Server implements the Handshake server
type Server struct {
	*protocol.Protocol
	config          *Config
	callbackContext CallbackContext
	onceStart       sync.Once
}

// NewServer returns a new Handshake server object
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
		MessageHandlerFunc:  s.handleMessage,
		MessageFromCborFunc: NewMsgFromCbor,
		StateMap:            StateMap.Copy(),
		InitialState:        statePropose,
	}
	s.Protocol = protocol.New(protoConfig)
	return s
}

// Start begins the handshake process
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

func (s *Server) handleMessage(msg protocol.Message) error {
	var err error
	switch msg.Type() {
	case MessageTypeProposeVersion:
		err = s.handleProposeVersion(msg)
	default:
		err = fmt.Errorf(
			"%s: received unexpected message type %d",
			ProtocolName,
			msg.Type(),
		)
	}
	return err
}

func (s *Server) handleProposeVersion(msg protocol.Message) error {
	msgPropose, ok := msg.(*MsgProposeVersion)
	if !ok {
		return fmt.Errorf("%s: unexpected message type %T", ProtocolName, msg)
	}
	if msgPropose.NetworkMagic != s.config.NetworkMagic {
		refuse := NewMsgRefuse(
			RefuseReasonRefused,
			fmt.Sprintf(
				"network magic mismatch: %d != %d",
				msgPropose.NetworkMagic,
				s.config.NetworkMagic,
			),
		)
		return s.SendMessage(refuse)
	}
	if msgPropose.Version != s.config.Version {
		refuse := NewMsgRefuse(
			RefuseReasonVersionMismatch,
			fmt.Sprintf("unsupported version %d", msgPropose.Version),
		)
		return s.SendMessage(refuse)
	}
	accept := NewMsgAcceptVersion(msgPropose.Version, s.config.NetworkMagic)
	if err := s.SendMessage(accept); err != nil {
		return err
	}
	if s.config.FinishedFunc != nil {
		return s.config.FinishedFunc(s.callbackContext, msgPropose.Version)
	}
	return nil
}
