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

package kaspeak

import (
	"log/slog"
	"net"

	"github.com/kaspeak/kaspeak-go/protocol/blocknotify"
	"github.com/kaspeak/kaspeak-go/protocol/handshake"
	"github.com/kaspeak/kaspeak-go/protocol/txsubmit"
)

// ClientOptionFunc is a type that represents functions that modify the Client config
type ClientOptionFunc func(*Client)

// WithConnection specifies an existing connection to use. If none is
// provided, the Dial() function can be used to create one later
func WithConnection(conn net.Conn) ClientOptionFunc {
	return func(c *Client) {
		c.conn = conn
	}
}

// WithNetwork specifies the network to operate on. This sets the network
// magic used by the handshake
func WithNetwork(network Network) ClientOptionFunc {
	return func(c *Client) {
		c.networkMagic = network.NetworkMagic
	}
}

// WithNetworkMagic specifies the network magic value directly
func WithNetworkMagic(networkMagic uint32) ClientOptionFunc {
	return func(c *Client) {
		c.networkMagic = networkMagic
	}
}

// WithErrorChan specifies the error channel to use. If none is provided, one
// will be created
func WithErrorChan(errorChan chan error) ClientOptionFunc {
	return func(c *Client) {
		c.errorChan = errorChan
	}
}

// WithLogger specifies the logger to use. If none is provided, logging is
// disabled
func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithServer specifies whether to act as a server
func WithServer(server bool) ClientOptionFunc {
	return func(c *Client) {
		c.server = server
	}
}

// WithDelayMuxerStart specifies whether to delay the muxer start. This is
// useful if you need to take some custom actions before the muxer starts
// processing messages, generally when acting as a server
func WithDelayMuxerStart(delayMuxerStart bool) ClientOptionFunc {
	return func(c *Client) {
		c.delayMuxerStart = delayMuxerStart
	}
}

// WithHandshakeConfig specifies the handshake protocol config
func WithHandshakeConfig(cfg handshake.Config) ClientOptionFunc {
	return func(c *Client) {
		c.handshakeConfig = &cfg
	}
}

// WithBlockNotifyConfig specifies the block-notify protocol config
func WithBlockNotifyConfig(cfg blocknotify.Config) ClientOptionFunc {
	return func(c *Client) {
		c.blockNotifyConfig = &cfg
	}
}

// WithTxSubmitConfig specifies the tx-submit protocol config
func WithTxSubmitConfig(cfg txsubmit.Config) ClientOptionFunc {
	return func(c *Client) {
		c.txSubmitConfig = &cfg
	}
}
