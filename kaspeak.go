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

// Package kaspeak implements a voice and text chat client that carries its
// messages in Kaspa transaction payloads.
//
// The node connection consists of a muxer and multiple mini-protocols that
// provide various functions. A handshake and protocol versioning are used to
// ensure peer compatibility.
//
// This package is the main entry point into this library. The other packages
// can be used outside of this one, but it's not a primary design goal.
package kaspeak

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"log/slog"

	"github.com/kaspeak/kaspeak-go/muxer"
	"github.com/kaspeak/kaspeak-go/protocol"
	"github.com/kaspeak/kaspeak-go/protocol/blocknotify"
	"github.com/kaspeak/kaspeak-go/protocol/handshake"
	"github.com/kaspeak/kaspeak-go/protocol/txsubmit"
)

// The Client type is a wrapper around a net.Conn object that handles
// communication with a Kaspa node over that connection
type Client struct {
	conn                  net.Conn
	networkMagic          uint32
	server                bool
	delayMuxerStart       bool
	logger                *slog.Logger
	muxer                 *muxer.Muxer
	errorChan             chan error
	protoErrorChan        chan error
	handshakeFinishedChan chan struct{}
	handshakeVersion      uint16
	doneChan              chan struct{}
	waitGroup             sync.WaitGroup
	onceClose             sync.Once
	// Mini-protocols
	handshake         *handshake.Handshake
	handshakeConfig   *handshake.Config
	blockNotify       *blocknotify.BlockNotify
	blockNotifyConfig *blocknotify.Config
	txSubmit          *txsubmit.TxSubmit
	txSubmitConfig    *txsubmit.Config
}

// NewClient returns a new Client object with the specified options. If a
// connection is provided, the handshake will be started. An error will be
// returned if the handshake fails
func NewClient(options ...ClientOptionFunc) (*Client, error) {
	c := &Client{
		protoErrorChan:        make(chan error, 10),
		handshakeFinishedChan: make(chan struct{}),
		doneChan:              make(chan struct{}),
	}
	// Apply provided options functions
	for _, option := range options {
		option(c)
	}
	if c.errorChan == nil {
		c.errorChan = make(chan error, 10)
	}
	if c.conn != nil {
		if err := c.setupConnection(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// New is an alias to NewClient
func New(options ...ClientOptionFunc) (*Client, error) {
	return NewClient(options...)
}

// Muxer returns the muxer object for the connection
func (c *Client) Muxer() *muxer.Muxer {
	return c.muxer
}

// ErrorChan returns the channel for asynchronous errors
func (c *Client) ErrorChan() chan error {
	return c.errorChan
}

// Dial will establish a connection using the specified protocol and address.
// These parameters are passed to the [net.Dial] func. The handshake will be
// started when a connection is established. An error will be returned if the
// connection fails, a connection was already established, or the handshake
// fails
func (c *Client) Dial(proto string, address string) error {
	if c.conn != nil {
		return errors.New("a connection was already established")
	}
	conn, err := net.Dial(proto, address)
	if err != nil {
		return err
	}
	c.conn = conn
	return c.setupConnection()
}

// Close will shutdown the connection
func (c *Client) Close() error {
	var err error
	c.onceClose.Do(func() {
		// Close doneChan to signify that we're shutting down
		close(c.doneChan)
		// Gracefully stop the muxer
		if c.muxer != nil {
			c.muxer.Stop()
		}
		// Wait for other goroutines to finish
		c.waitGroup.Wait()
		// Close channels
		close(c.errorChan)
		close(c.protoErrorChan)
		// We can only close a channel once, so we have to jump through a few hoops
		select {
		// The channel is either closed or has an item pending
		case _, ok := <-c.handshakeFinishedChan:
			if ok {
				close(c.handshakeFinishedChan)
			}
		// The channel is open and has no pending items
		default:
			close(c.handshakeFinishedChan)
		}
	})
	return err
}

// Handshake returns the handshake protocol handler
func (c *Client) Handshake() *handshake.Handshake {
	return c.handshake
}

// BlockNotify returns the block-notify protocol handler
func (c *Client) BlockNotify() *blocknotify.BlockNotify {
	return c.blockNotify
}

// TxSubmit returns the tx-submit protocol handler
func (c *Client) TxSubmit() *txsubmit.TxSubmit {
	return c.txSubmit
}

// ProtocolVersion returns the negotiated protocol version
func (c *Client) ProtocolVersion() uint16 {
	return c.handshakeVersion
}

// setupConnection establishes the muxer, configures and starts the handshake
// process, and initializes the mini-protocols
func (c *Client) setupConnection() error {
	c.muxer = muxer.New(c.conn)
	// Start Goroutine to pass along errors from the muxer
	c.waitGroup.Add(1)
	go func() {
		defer c.waitGroup.Done()
		select {
		case <-c.doneChan:
			return
		case err, ok := <-c.muxer.ErrorChan:
			// Break out of goroutine if muxer's error channel is closed
			if !ok {
				return
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				// Return a bare io.EOF error if error is EOF/ErrUnexpectedEOF
				c.errorChan <- io.EOF
			} else {
				// Wrap error message to denote it comes from the muxer
				c.errorChan <- fmt.Errorf("muxer error: %w", err)
			}
			// Close connection on muxer errors. This happens on another
			// goroutine since Close waits on this one
			go c.Close()
		}
	}()
	protoOptions := protocol.ProtocolOptions{
		ConnectionId: protocol.ConnectionId{
			LocalAddr:  c.conn.LocalAddr(),
			RemoteAddr: c.conn.RemoteAddr(),
		},
		Muxer:     c.muxer,
		Logger:    c.logger,
		ErrorChan: c.protoErrorChan,
	}
	// Check network magic value
	if c.networkMagic == 0 {
		return fmt.Errorf("invalid network magic value provided: %d", c.networkMagic)
	}
	// Perform handshake
	handshakeConfig := handshake.NewConfig()
	if c.handshakeConfig != nil {
		handshakeConfig = *c.handshakeConfig
	}
	handshakeConfig.NetworkMagic = c.networkMagic
	handshakeConfig.FinishedFunc = func(
		ctx handshake.CallbackContext,
		version uint16,
	) error {
		c.handshakeVersion = version
		close(c.handshakeFinishedChan)
		return nil
	}
	c.handshake = handshake.New(protoOptions, &handshakeConfig)
	if c.server {
		c.handshake.Server.Start()
	} else {
		c.handshake.Client.Start()
	}
	// Wait for handshake completion or error
	select {
	case <-c.doneChan:
		// Return an error if we're shutting down
		return io.EOF
	case err := <-c.protoErrorChan:
		return err
	case <-c.handshakeFinishedChan:
		// This is purposely empty, but we need this case to break out when
		// this channel is closed
	}
	// Start Goroutine to pass along errors from the mini-protocols
	c.waitGroup.Add(1)
	go func() {
		defer c.waitGroup.Done()
		select {
		case <-c.doneChan:
			// Return if we're shutting down
			return
		case err, ok := <-c.protoErrorChan:
			// The channel is closed, which means we're already shutting down
			if !ok {
				return
			}
			c.errorChan <- fmt.Errorf("protocol error: %w", err)
			// Close connection on mini-protocol errors. This happens on
			// another goroutine since Close waits on this one
			go c.Close()
		}
	}()
	// Configure the mini-protocols
	c.blockNotify = blocknotify.New(protoOptions, c.blockNotifyConfig)
	c.txSubmit = txsubmit.New(protoOptions, c.txSubmitConfig)
	if c.server {
		c.blockNotify.Server.Start()
		c.txSubmit.Server.Start()
	} else {
		c.blockNotify.Client.Start()
		c.txSubmit.Client.Start()
	}
	// Start muxer
	if !c.delayMuxerStart {
		c.muxer.Start()
	}
	return nil
}
