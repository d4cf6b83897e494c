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

// Package protocol provides the common state machine and message plumbing
// shared by the mini-protocols
package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/kaspeak/kaspeak-go/cbor"
	"github.com/kaspeak/kaspeak-go/muxer"
)

// ProtocolRole identifies whether a protocol instance acts as a client or server
type ProtocolRole uint

const (
	ProtocolRoleNone   ProtocolRole = 0
	ProtocolRoleClient ProtocolRole = 1
	ProtocolRoleServer ProtocolRole = 2
)

// ConnectionId identifies the connection a protocol instance is bound to
type ConnectionId struct {
	LocalAddr  net.Addr
	RemoteAddr net.Addr
}

func (c ConnectionId) String() string {
	localAddr := "unknown"
	remoteAddr := "unknown"
	if c.LocalAddr != nil {
		localAddr = c.LocalAddr.String()
	}
	if c.RemoteAddr != nil {
		remoteAddr = c.RemoteAddr.String()
	}
	return localAddr + "#" + remoteAddr
}

// ProtocolOptions contains the common arguments for a mini-protocol instance
type ProtocolOptions struct {
	ConnectionId ConnectionId
	Muxer        *muxer.Muxer
	Logger       *slog.Logger
	ErrorChan    chan error
}

// MessageHandlerFunc represents a function that handles an incoming message
type MessageHandlerFunc func(Message) error

// MessageFromCborFunc represents a function that parses a mini-protocol message
type MessageFromCborFunc func(uint, []byte) (Message, error)

// ProtocolConfig provides the configuration for Protocol
type ProtocolConfig struct {
	Name                string
	ProtocolId          uint16
	ErrorChan           chan error
	Muxer               *muxer.Muxer
	Logger              *slog.Logger
	Role                ProtocolRole
	MessageHandlerFunc  MessageHandlerFunc
	MessageFromCborFunc MessageFromCborFunc
	StateMap            StateMap
	InitialState        State
}

// Protocol implements the shared mini-protocol machinery. It's not used
// directly, but is embedded in the per-protocol client and server objects
type Protocol struct {
	config               ProtocolConfig
	muxerSendChan        chan *muxer.Segment
	muxerRecvChan        chan *muxer.Segment
	state                State
	stateMutex           sync.Mutex
	stateTransitionTimer *time.Timer
	recvBuffer           *bytes.Buffer
	doneChan             chan struct{}
	onceStart            sync.Once
	onceStop             sync.Once
	waitGroup            sync.WaitGroup
}

// New returns a new Protocol object
func New(config ProtocolConfig) *Protocol {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Protocol{
		config:     config,
		recvBuffer: bytes.NewBuffer(nil),
		doneChan:   make(chan struct{}),
	}
	return p
}

// Start initializes the protocol and starts the read loop
func (p *Protocol) Start() {
	p.onceStart.Do(func() {
		// Register protocol with muxer
		p.muxerSendChan, p.muxerRecvChan = p.config.Muxer.RegisterProtocol(
			p.config.ProtocolId,
		)
		// Set initial state
		p.stateMutex.Lock()
		p.setState(p.config.InitialState)
		p.stateMutex.Unlock()
		p.waitGroup.Add(1)
		go p.recvLoop()
	})
}

// Stop shuts down the protocol
func (p *Protocol) Stop() {
	p.onceStop.Do(func() {
		p.stateMutex.Lock()
		if p.stateTransitionTimer != nil {
			p.stateTransitionTimer.Stop()
			p.stateTransitionTimer = nil
		}
		p.stateMutex.Unlock()
		close(p.doneChan)
	})
}

// DoneChan returns a channel that's closed when the protocol shuts down
func (p *Protocol) DoneChan() <-chan struct{} {
	return p.doneChan
}

// Logger returns the logger for the protocol
func (p *Protocol) Logger() *slog.Logger {
	return p.config.Logger
}

// SendMessage encodes the provided message and sends it via the muxer. The
// message must correspond to a valid transition out of the current state
func (p *Protocol) SendMessage(msg Message) error {
	p.stateMutex.Lock()
	defer p.stateMutex.Unlock()
	select {
	case <-p.doneChan:
		return ErrProtocolShuttingDown
	default:
	}
	// Check that we have agency in the current state
	entry, ok := p.config.StateMap[p.state]
	if !ok {
		return fmt.Errorf(
			"%s: no state map entry for state %s",
			p.config.Name,
			p.state,
		)
	}
	if !p.hasAgency(entry.Agency) {
		return fmt.Errorf(
			"%s: %w: state %s",
			p.config.Name,
			ErrProtocolViolationStateAgency,
			p.state,
		)
	}
	newState, err := p.nextState(entry, msg)
	if err != nil {
		return fmt.Errorf("%s: %w", p.config.Name, err)
	}
	// Use the raw CBOR from the message if available, otherwise encode the message
	data := msg.Cbor()
	if data == nil {
		data, err = cbor.Encode(msg)
		if err != nil {
			return err
		}
	}
	// Break message into segments, if necessary
	isResponse := p.config.Role == ProtocolRoleServer
	for {
		payload := data
		if len(payload) > muxer.SegmentMaxPayloadLength {
			payload = data[:muxer.SegmentMaxPayloadLength]
		}
		segment := muxer.NewSegment(p.config.ProtocolId, payload, isResponse)
		select {
		case <-p.doneChan:
			return ErrProtocolShuttingDown
		case p.muxerSendChan <- segment:
		}
		if len(data) <= muxer.SegmentMaxPayloadLength {
			break
		}
		data = data[muxer.SegmentMaxPayloadLength:]
	}
	p.setState(newState)
	return nil
}

func (p *Protocol) hasAgency(agency uint) bool {
	switch agency {
	case AgencyClient:
		return p.config.Role == ProtocolRoleClient
	case AgencyServer:
		return p.config.Role == ProtocolRoleServer
	default:
		return false
	}
}

// nextState returns the state resulting from applying the provided message in
// the current state
func (p *Protocol) nextState(entry StateMapEntry, msg Message) (State, error) {
	for _, transition := range entry.Transitions {
		if transition.MsgType != msg.Type() {
			continue
		}
		if transition.MatchFunc != nil && !transition.MatchFunc(msg) {
			continue
		}
		return transition.NewState, nil
	}
	return State{}, fmt.Errorf(
		"message type %d is not a valid transition from state %s",
		msg.Type(),
		p.state,
	)
}

// setState switches to the provided state and schedules the state timeout, if
// any. The caller must hold stateMutex
func (p *Protocol) setState(state State) {
	if p.stateTransitionTimer != nil {
		p.stateTransitionTimer.Stop()
		p.stateTransitionTimer = nil
	}
	p.state = state
	if entry, ok := p.config.StateMap[state]; ok && entry.Timeout > 0 {
		p.stateTransitionTimer = time.AfterFunc(entry.Timeout, func() {
			p.sendError(fmt.Errorf(
				"%s: timeout waiting on transition from protocol state %s",
				p.config.Name,
				state,
			))
		})
	}
}

func (p *Protocol) sendError(err error) {
	select {
	case <-p.doneChan:
	case p.config.ErrorChan <- err:
	}
}

func (p *Protocol) recvLoop() {
	defer p.waitGroup.Done()
	leftoverData := false
	for {
		// Don't grab the next segment from the muxer if we still have data in the buffer
		if !leftoverData {
			select {
			case <-p.doneChan:
				return
			case segment, ok := <-p.muxerRecvChan:
				if !ok {
					return
				}
				p.recvBuffer.Write(segment.Payload)
			}
		}
		leftoverData = false
		// Decode the message into a temporary list to determine the message
		// type and how many bytes the message takes up in the buffer
		var tmpMsg []cbor.RawMessage
		numBytesRead, err := cbor.Decode(p.recvBuffer.Bytes(), &tmpMsg)
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) ||
				errors.Is(err, io.EOF) {
				// This is probably a multi-segment message, so we wait for
				// more data before trying again
				continue
			}
			p.sendError(fmt.Errorf("%s: decode error: %w", p.config.Name, err))
			return
		}
		msgData := p.recvBuffer.Bytes()[:numBytesRead]
		msgType, err := cbor.DecodeIdFromList(msgData)
		if err != nil {
			p.sendError(fmt.Errorf("%s: decode error: %w", p.config.Name, err))
			return
		}
		msg, err := p.config.MessageFromCborFunc(uint(msgType), msgData)
		if err != nil {
			p.sendError(fmt.Errorf("%s: %w", p.config.Name, err))
			return
		}
		if msg == nil {
			p.sendError(fmt.Errorf(
				"%s: received unknown message type %d",
				p.config.Name,
				msgType,
			))
			return
		}
		if err := p.handleMessage(msg); err != nil {
			p.sendError(err)
			return
		}
		if numBytesRead < p.recvBuffer.Len() {
			// There is another message in the same segment, so we reset the
			// buffer with just the remaining data
			p.recvBuffer = bytes.NewBuffer(p.recvBuffer.Bytes()[numBytesRead:])
			leftoverData = true
		} else {
			// Empty the buffer since we successfully processed the message
			p.recvBuffer.Reset()
		}
	}
}

func (p *Protocol) handleMessage(msg Message) error {
	p.stateMutex.Lock()
	entry, ok := p.config.StateMap[p.state]
	if !ok {
		p.stateMutex.Unlock()
		return fmt.Errorf(
			"%s: no state map entry for state %s",
			p.config.Name,
			p.state,
		)
	}
	// We should only receive messages when the remote side has agency
	if p.hasAgency(entry.Agency) || entry.Agency == AgencyNone {
		p.stateMutex.Unlock()
		return fmt.Errorf(
			"%s: %w: received message type %d in state %s",
			p.config.Name,
			ErrProtocolViolationInvalidMessage,
			msg.Type(),
			p.state,
		)
	}
	newState, err := p.nextState(entry, msg)
	if err != nil {
		p.stateMutex.Unlock()
		return fmt.Errorf("%s: %w", p.config.Name, err)
	}
	p.setState(newState)
	p.stateMutex.Unlock()
	p.config.Logger.Debug(
		fmt.Sprintf("received message type %d", msg.Type()),
		"component", "network",
		"protocol", p.config.Name,
		"state", newState.String(),
	)
	return p.config.MessageHandlerFunc(msg)
}
