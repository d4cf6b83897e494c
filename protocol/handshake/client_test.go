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

package handshake_test

import (
	"net"
	"testing"
	"time"

	"github.com/kaspeak/kaspeak-go/muxer"
	"github.com/kaspeak/kaspeak-go/protocol"
	"github.com/kaspeak/kaspeak-go/protocol/handshake"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

const testNetworkMagic = 2018

func testProtoOptions(m *muxer.Muxer, errorChan chan error) protocol.ProtocolOptions {
	return protocol.ProtocolOptions{
		Muxer:     m,
		ErrorChan: errorChan,
	}
}

func TestHandshakeAccept(t *testing.T) {
	defer goleak.VerifyNone(t)

	clientConn, serverConn := net.Pipe()
	clientMuxer := muxer.New(clientConn)
	defer clientMuxer.Stop()
	serverMuxer := muxer.New(serverConn)
	defer serverMuxer.Stop()
	errorChan := make(chan error, 10)

	serverDone := make(chan uint16, 1)
	server := handshake.NewServer(
		testProtoOptions(serverMuxer, errorChan),
		&handshake.Config{
			Version:      handshake.ProtocolVersion,
			NetworkMagic: testNetworkMagic,
			FinishedFunc: func(ctx handshake.CallbackContext, version uint16) error {
				serverDone <- version
				return nil
			},
		},
	)
	server.Start()
	defer server.Protocol.Stop()

	clientDone := make(chan uint16, 1)
	client := handshake.NewClient(
		testProtoOptions(clientMuxer, errorChan),
		&handshake.Config{
			Version:      handshake.ProtocolVersion,
			NetworkMagic: testNetworkMagic,
			Timeout:      2 * time.Second,
			FinishedFunc: func(ctx handshake.CallbackContext, version uint16) error {
				clientDone <- version
				return nil
			},
		},
	)
	client.Start()
	defer client.Protocol.Stop()

	select {
	case version := <-clientDone:
		assert.Equal(t, uint16(handshake.ProtocolVersion), version)
	case err := <-errorChan:
		t.Fatalf("unexpected protocol error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handshake to complete")
	}
	select {
	case version := <-serverDone:
		assert.Equal(t, uint16(handshake.ProtocolVersion), version)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server handshake callback")
	}
}

func TestHandshakeRefuseNetworkMagicMismatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	clientConn, serverConn := net.Pipe()
	clientMuxer := muxer.New(clientConn)
	defer clientMuxer.Stop()
	serverMuxer := muxer.New(serverConn)
	defer serverMuxer.Stop()
	errorChan := make(chan error, 10)

	server := handshake.NewServer(
		testProtoOptions(serverMuxer, errorChan),
		&handshake.Config{
			Version:      handshake.ProtocolVersion,
			NetworkMagic: testNetworkMagic + 1,
		},
	)
	server.Start()
	defer server.Protocol.Stop()

	client := handshake.NewClient(
		testProtoOptions(clientMuxer, errorChan),
		&handshake.Config{
			Version:      handshake.ProtocolVersion,
			NetworkMagic: testNetworkMagic,
			Timeout:      2 * time.Second,
			FinishedFunc: func(ctx handshake.CallbackContext, version uint16) error {
				t.Error("handshake should not have completed")
				return nil
			},
		},
	)
	client.Start()
	defer client.Protocol.Stop()

	select {
	case err := <-errorChan:
		assert.ErrorContains(t, err, "refused")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handshake refusal")
	}
}
