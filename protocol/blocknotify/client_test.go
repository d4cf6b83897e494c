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

package blocknotify_test

import (
	"net"
	"testing"
	"time"

	"github.com/kaspeak/kaspeak-go/ledger"
	"github.com/kaspeak/kaspeak-go/muxer"
	"github.com/kaspeak/kaspeak-go/protocol"
	"github.com/kaspeak/kaspeak-go/protocol/blocknotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRequestNext(t *testing.T) {
	defer goleak.VerifyNone(t)

	clientConn, serverConn := net.Pipe()
	clientMuxer := muxer.New(clientConn)
	defer clientMuxer.Stop()
	clientMuxer.Start()
	serverMuxer := muxer.New(serverConn)
	defer serverMuxer.Stop()
	serverMuxer.Start()
	errorChan := make(chan error, 10)

	var daaScore uint64
	server := blocknotify.NewServer(
		protocol.ProtocolOptions{
			Muxer:     serverMuxer,
			ErrorChan: errorChan,
		},
		&blocknotify.Config{
			RequestNextFunc: func(ctx blocknotify.CallbackContext) (ledger.Block, error) {
				daaScore++
				return ledger.Block{
					Timestamp: uint64(time.Now().UnixMilli()),
					DaaScore:  daaScore,
					Transactions: []ledger.Transaction{
						{Payload: []byte("block payload")},
					},
				}, nil
			},
			Timeout: 2 * time.Second,
		},
	)
	server.Start()

	client := blocknotify.NewClient(
		protocol.ProtocolOptions{
			Muxer:     clientMuxer,
			ErrorChan: errorChan,
		},
		&blocknotify.Config{
			Timeout: 2 * time.Second,
		},
	)
	client.Start()
	defer func() {
		if err := client.Stop(); err != nil {
			t.Errorf("unexpected error stopping client: %v", err)
		}
	}()

	block, err := client.RequestNext()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), block.DaaScore)
	require.Len(t, block.Transactions, 1)
	assert.Equal(t, []byte("block payload"), block.Transactions[0].Payload)

	block, err = client.RequestNext()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), block.DaaScore)

	select {
	case err := <-errorChan:
		t.Fatalf("unexpected protocol error: %v", err)
	default:
	}
}
