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

// Package payload implements the KSPK payload format used to embed chat
// messages in transaction payloads
package payload

import (
	"bytes"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// ProtocolVersion is the current version of the KSPK payload format
const ProtocolVersion uint8 = 0

// HeaderSize is the number of fixed header bytes in a serialized payload
const HeaderSize = 17

// Size limits
const (
	MaxUsernameChars = 18
	MaxUsernameBytes = 255
	MaxTextChars     = 1000
	MaxPayloadBytes  = 15_000
)

// Marker is the magic prefix on every KSPK payload
var Marker = []byte("KSPK")

var (
	ErrDataTooShort       = errors.New("incoming data is too short for header")
	ErrInvalidMarker      = errors.New("invalid marker")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	ErrUsernameTooLong    = errors.New("username too long")
	ErrUsernameEncoding   = errors.New("invalid username encoding")
	ErrTextTooLong        = errors.New("text too long")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrTruncated          = errors.New("declared length exceeds available data")
)

// MessageType identifies the kind of content carried by a payload
type MessageType uint8

const (
	MessageTypeText  MessageType = 1
	MessageTypeVoice MessageType = 2
	MessageTypeFile  MessageType = 3
)

func (m MessageType) String() string {
	switch m {
	case MessageTypeText:
		return "text"
	case MessageTypeVoice:
		return "voice"
	case MessageTypeFile:
		return "file"
	default:
		return fmt.Sprintf("unknown (%d)", uint8(m))
	}
}

// StatusFlag identifies the position of a fragment within a stream
type StatusFlag uint8

const (
	StatusFlagStart    StatusFlag = 1
	StatusFlagContinue StatusFlag = 2
	StatusFlagEnd      StatusFlag = 3
)

func (s StatusFlag) String() string {
	switch s {
	case StatusFlagStart:
		return "start"
	case StatusFlagContinue:
		return "continue"
	case StatusFlagEnd:
		return "end"
	default:
		return fmt.Sprintf("unknown (%d)", uint8(s))
	}
}

// Payload represents a single KSPK payload
type Payload struct {
	Version        uint8
	Channel        uint32
	MessageType    MessageType
	StatusFlag     StatusFlag
	FragmentNumber uint32
	Username       string
	Data           []byte
	// ReceivedTime is the local time the payload was parsed from the wire.
	// It's zero for outgoing payloads
	ReceivedTime time.Time
}

// New returns a new Payload with the provided values after validating the
// size limits
func New(
	channel uint32,
	messageType MessageType,
	statusFlag StatusFlag,
	fragmentNumber uint32,
	username string,
	data []byte,
) (*Payload, error) {
	unameChars := utf8.RuneCountInString(username)
	if unameChars > MaxUsernameChars {
		return nil, fmt.Errorf(
			"%w: username has %d chars, max allowed is %d",
			ErrUsernameTooLong,
			unameChars,
			MaxUsernameChars,
		)
	}
	if len(username) > MaxUsernameBytes {
		return nil, fmt.Errorf(
			"%w: username has %d bytes, max allowed is %d",
			ErrUsernameTooLong,
			len(username),
			MaxUsernameBytes,
		)
	}
	if len(data) > MaxPayloadBytes {
		return nil, fmt.Errorf(
			"%w: payload has %d bytes, max allowed is %d",
			ErrPayloadTooLarge,
			len(data),
			MaxPayloadBytes,
		)
	}
	p := &Payload{
		Version:        ProtocolVersion,
		Channel:        channel,
		MessageType:    messageType,
		StatusFlag:     statusFlag,
		FragmentNumber: fragmentNumber,
		Username:       username,
		Data:           data,
	}
	return p, nil
}

// NewText returns a new text Payload. Text messages are never fragmented, so
// the payload is a single End fragment with number zero
func NewText(channel uint32, username string, text string) (*Payload, error) {
	textChars := utf8.RuneCountInString(text)
	if textChars > MaxTextChars {
		return nil, fmt.Errorf(
			"%w: text data has %d chars, max allowed is %d",
			ErrTextTooLong,
			textChars,
			MaxTextChars,
		)
	}
	return New(
		channel,
		MessageTypeText,
		StatusFlagEnd,
		0,
		username,
		[]byte(text),
	)
}

// FromBytes parses a Payload from its wire encoding. The received time of the
// returned Payload is set to the current time
func FromBytes(data []byte) (*Payload, error) {
	if len(data) < HeaderSize {
		return nil, ErrDataTooShort
	}
	pos := 0
	if !bytes.Equal(data[pos:pos+4], Marker) {
		return nil, ErrInvalidMarker
	}
	pos += 4
	version := data[pos]
	if version != ProtocolVersion {
		return nil, fmt.Errorf(
			"%w: %d (expected %d)",
			ErrUnsupportedVersion,
			version,
			ProtocolVersion,
		)
	}
	pos++
	channel := uint24(data[pos : pos+3])
	pos += 3
	messageType := MessageType(data[pos])
	pos++
	statusFlag := StatusFlag(data[pos])
	pos++
	fragmentNumber := uint24(data[pos : pos+3])
	pos += 3
	usernameLength := int(data[pos])
	pos++
	if pos+usernameLength > len(data) {
		return nil, fmt.Errorf(
			"%w: username length exceeds available data",
			ErrTruncated,
		)
	}
	usernameBytes := data[pos : pos+usernameLength]
	pos += usernameLength
	if !utf8.Valid(usernameBytes) {
		return nil, ErrUsernameEncoding
	}
	if pos+3 > len(data) {
		return nil, fmt.Errorf(
			"%w: not enough data for data length",
			ErrTruncated,
		)
	}
	dataLength := int(uint24(data[pos : pos+3]))
	pos += 3
	if pos+dataLength > len(data) {
		return nil, fmt.Errorf(
			"%w: payload length exceeds available data",
			ErrTruncated,
		)
	}
	payloadData := make([]byte, dataLength)
	copy(payloadData, data[pos:pos+dataLength])
	p, err := New(
		channel,
		messageType,
		statusFlag,
		fragmentNumber,
		string(usernameBytes),
		payloadData,
	)
	if err != nil {
		return nil, err
	}
	p.ReceivedTime = time.Now()
	return p, nil
}

// Bytes returns the wire encoding of the payload
func (p *Payload) Bytes() []byte {
	packet := make([]byte, 0, HeaderSize+len(p.Username)+len(p.Data))
	packet = append(packet, Marker...)
	packet = append(packet, p.Version)
	packet = appendUint24(packet, p.Channel)
	packet = append(packet, uint8(p.MessageType))
	packet = append(packet, uint8(p.StatusFlag))
	packet = appendUint24(packet, p.FragmentNumber)
	packet = append(packet, uint8(len(p.Username)))
	packet = append(packet, p.Username...)
	packet = appendUint24(packet, uint32(len(p.Data)))
	packet = append(packet, p.Data...)
	return packet
}

func (p *Payload) String() string {
	receivedTime := "N/A"
	if !p.ReceivedTime.IsZero() {
		receivedTime = fmt.Sprintf("%dms", p.ReceivedTime.UnixMilli())
	}
	return fmt.Sprintf(
		"ver=%d, channel=%d, msg_type=%s, status=%s, fragment=%d, username='%s', data_len=%d, received_time=%s",
		p.Version,
		p.Channel,
		p.MessageType,
		p.StatusFlag,
		p.FragmentNumber,
		p.Username,
		len(p.Data),
		receivedTime,
	)
}

// uint24 parses a big-endian 3-byte unsigned integer
func uint24(data []byte) uint32 {
	return uint32(data[0])<<16 | uint32(data[1])<<8 | uint32(data[2])
}

// appendUint24 appends a big-endian 3-byte unsigned integer
func appendUint24(data []byte, value uint32) []byte {
	return append(
		data,
		uint8(value>>16),
		uint8(value>>8),
		uint8(value),
	)
}
