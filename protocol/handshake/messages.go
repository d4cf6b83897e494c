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

	"github.com/kaspeak/kaspeak-go/cbor"
	"github.com/kaspeak/kaspeak-go/protocol"
)

// ProtocolVersion is the current version of the node protocol
const ProtocolVersion = 1

const (
	MessageTypeProposeVersion = 0
	MessageTypeAcceptVersion  = 1
	MessageTypeRefuse         = 2
)

// Refuse reasons
const (
	RefuseReasonVersionMismatch = 0
	RefuseReasonDecodeError     = 1
	RefuseReasonRefused         = 2
)

// NewMsgFromCbor parses a Handshake message from CBOR
func NewMsgFromCbor(msgType uint, data []byte) (protocol.Message, error) {
	var ret protocol.Message
	switch msgType {
	case MessageTypeProposeVersion:
		ret = &MsgProposeVersion{}
	case MessageTypeAcceptVersion:
		ret = &MsgAcceptVersion{}
	case MessageTypeRefuse:
		ret = &MsgRefuse{}
	}
	if _, err := cbor.Decode(data, ret); err != nil {
		return nil, fmt.Errorf("%s: decode error: %w", ProtocolName, err)
	}
	if ret != nil {
		// Store the raw message CBOR
		ret.SetCbor(data)
	}
	return ret, nil
}

type MsgProposeVersion struct {
	protocol.MessageBase
	Version      uint16
	NetworkMagic uint32
}

func NewMsgProposeVersion(version uint16, networkMagic uint32) *MsgProposeVersion {
	m := &MsgProposeVersion{
		MessageBase: protocol.MessageBase{
			MessageType: MessageTypeProposeVersion,
		},
		Version:      version,
		NetworkMagic: networkMagic,
	}
	return m
}

type MsgAcceptVersion struct {
	protocol.MessageBase
	Version      uint16
	NetworkMagic uint32
}

func NewMsgAcceptVersion(version uint16, networkMagic uint32) *MsgAcceptVersion {
	m := &MsgAcceptVersion{
		MessageBase: protocol.MessageBase{
			MessageType: MessageTypeAcceptVersion,
		},
		Version:      version,
		NetworkMagic: networkMagic,
	}
	return m
}

type MsgRefuse struct {
	protocol.MessageBase
	ReasonCode uint64
	ReasonDesc string
}

func NewMsgRefuse(reasonCode uint64, reasonDesc string) *MsgRefuse {
	m := &MsgRefuse{
		MessageBase: protocol.MessageBase{
			MessageType: MessageTypeRefuse,
		},
		ReasonCode: reasonCode,
		ReasonDesc: reasonDesc,
	}
	return m
}
