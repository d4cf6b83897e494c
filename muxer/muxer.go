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

// Package muxer implements the segment framing layer that multiplexes the
// mini-protocols over a single connection to the node
package muxer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
)

// Magic number chosen to represent unknown protocols
const ProtocolUnknown uint16 = 0xabcd

// Muxer wraps a connection to the node and provides a sender and receiver
// channel per registered mini-protocol
type Muxer struct {
	conn              net.Conn
	sendMutex         sync.Mutex
	startChan         chan bool
	doneChan          chan bool
	waitGroup         sync.WaitGroup
	onceStop          sync.Once
	protocolMutex     sync.Mutex
	protocolSenders   map[uint16]chan *Segment
	protocolReceivers map[uint16]chan *Segment
	// ErrorChan carries asynchronous muxer errors to the consumer. It's closed
	// when the muxer shuts down
	ErrorChan chan error
}

// New creates a new Muxer object and starts the read loop
func New(conn net.Conn) *Muxer {
	m := &Muxer{
		conn:              conn,
		startChan:         make(chan bool, 1),
		doneChan:          make(chan bool),
		ErrorChan:         make(chan error, 10),
		protocolSenders:   make(map[uint16]chan *Segment),
		protocolReceivers: make(map[uint16]chan *Segment),
	}
	m.waitGroup.Add(1)
	go m.readLoop()
	return m
}

// Start unblocks the read loop after the handshake completes
func (m *Muxer) Start() {
	m.startChan <- true
}

// Stop shuts down the muxer
func (m *Muxer) Stop() {
	m.onceStop.Do(func() {
		// Close doneChan to signify that we're shutting down
		close(m.doneChan)
		// Close the connection to unblock the read loop
		m.conn.Close()
		// Wait for the read loop to finish
		m.waitGroup.Wait()
		// Close protocol receive channels
		// We rely on the individual mini-protocols to close the sender channel
		m.protocolMutex.Lock()
		for _, recvChan := range m.protocolReceivers {
			close(recvChan)
		}
		m.protocolMutex.Unlock()
		// Close ErrorChan to signify to consumer that we're shutting down
		close(m.ErrorChan)
	})
}

func (m *Muxer) sendError(err error) {
	// Immediately return if we're already shutting down
	select {
	case <-m.doneChan:
		return
	default:
	}
	// Send error to consumer
	m.ErrorChan <- err
	// Stop the muxer on any error, but from another goroutine since Stop
	// waits for the read loop to exit
	go m.Stop()
}

// RegisterProtocol registers the mini-protocol with the muxer and returns the
// sender and receiver channels for it
func (m *Muxer) RegisterProtocol(protocolId uint16) (chan *Segment, chan *Segment) {
	// Generate channels
	senderChan := make(chan *Segment, 10)
	receiverChan := make(chan *Segment, 10)
	// Record channels in protocol sender/receiver maps
	m.protocolMutex.Lock()
	m.protocolSenders[protocolId] = senderChan
	m.protocolReceivers[protocolId] = receiverChan
	m.protocolMutex.Unlock()
	// Start goroutine to handle outbound messages
	go func() {
		for {
			select {
			case <-m.doneChan:
				return
			case segment, ok := <-senderChan:
				if !ok {
					return
				}
				if err := m.Send(segment); err != nil {
					m.sendError(err)
					return
				}
			}
		}
	}()
	return senderChan, receiverChan
}

// Send writes the specified segment to the connection. Only one protocol can
// send at a time
func (m *Muxer) Send(segment *Segment) error {
	m.sendMutex.Lock()
	defer m.sendMutex.Unlock()
	buf := &bytes.Buffer{}
	err := binary.Write(buf, binary.BigEndian, segment.SegmentHeader)
	if err != nil {
		return err
	}
	buf.Write(segment.Payload)
	_, err = m.conn.Write(buf.Bytes())
	if err != nil {
		return err
	}
	return nil
}

func (m *Muxer) readLoop() {
	defer m.waitGroup.Done()
	started := false
	for {
		// Break out of read loop if we're shutting down
		select {
		case <-m.doneChan:
			return
		default:
		}
		header := SegmentHeader{}
		if err := binary.Read(m.conn, binary.BigEndian, &header); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			m.sendError(err)
			return
		}
		segment := &Segment{
			SegmentHeader: header,
			Payload:       make([]byte, header.PayloadLength),
		}
		// We use ReadFull because it guarantees to read the expected number of bytes or
		// return an error
		if _, err := io.ReadFull(m.conn, segment.Payload); err != nil {
			m.sendError(err)
			return
		}
		// Send message payload to proper receiver
		m.protocolMutex.Lock()
		recvChan := m.protocolReceivers[segment.GetProtocolId()]
		if recvChan == nil {
			// Try the "unknown protocol" receiver if we didn't find an explicit one
			recvChan = m.protocolReceivers[ProtocolUnknown]
		}
		m.protocolMutex.Unlock()
		if recvChan == nil {
			m.sendError(fmt.Errorf(
				"received segment for unknown protocol ID %d",
				segment.GetProtocolId(),
			))
			return
		}
		select {
		case <-m.doneChan:
			return
		case recvChan <- segment:
		}
		// Wait until the muxer is started to continue
		// We don't want to read more than one segment until the handshake is complete
		if !started {
			select {
			case <-m.doneChan:
				return
			case <-m.startChan:
				started = true
			}
		}
	}
}
