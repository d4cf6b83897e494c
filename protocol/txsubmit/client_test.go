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

package txsubmit_test

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/kaspeak/kaspeak-go/ledger"
	"github.com/kaspeak/kaspeak-go/muxer"
	"github.com/kaspeak/kaspeak-go/protocol"
	"github.com/kaspeak/kaspeak-go/protocol/txsubmit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSubmitTx(t *testing.T) {
	defer goleak.VerifyNone(t)

	clientConn, serverConn := net.Pipe()
	clientMuxer := muxer.New(clientConn)
	defer clientMuxer.Stop()
	clientMuxer.Start()
	serverMuxer := muxer.New(serverConn)
	defer serverMuxer.Stop()
	serverMuxer.Start()
	errorChan := make(chan error, 10)

	testTx := ledger.Transaction{
		Outputs: []ledger.TransactionOutput{
			{Amount: ledger.SompiPerKas},
		},
		Payload: []byte("test"),
	}
	expectedTxId, err := testTx.Id()
	require.NoError(t, err)

	server := txsubmit.NewServer(
		protocol.ProtocolOptions{
			Muxer:     serverMuxer,
			ErrorChan: errorChan,
		},
		&txsubmit.Config{
			SubmitTxFunc: func(ctx txsubmit.CallbackContext, tx ledger.Transaction) (ledger.Hash, uint64, error) {
				if len(tx.Outputs) == 0 {
					return ledger.Hash{}, 0, errors.New("transaction has no outputs")
				}
				txId, err := tx.Id()
				return txId, 5 * ledger.SompiPerKas, err
			},
			MaxPayloadBytes: txsubmit.MaxTxPayloadBytes,
			Timeout:         2 * time.Second,
		},
	)
	server.Start()

	client := txsubmit.NewClient(
		protocol.ProtocolOptions{
			Muxer:     clientMuxer,
			ErrorChan: errorChan,
		},
		&txsubmit.Config{
			Timeout: 2 * time.Second,
		},
	)
	client.Start()
	defer func() {
		if err := client.Stop(); err != nil {
			t.Errorf("unexpected error stopping client: %v", err)
		}
	}()

	// Accepted transaction
	txId, balance, err := client.SubmitTx(testTx)
	require.NoError(t, err)
	assert.Equal(t, expectedTxId, txId)
	assert.Equal(t, uint64(5*ledger.SompiPerKas), balance)

	// Rejected transaction
	_, _, err = client.SubmitTx(ledger.Transaction{})
	assert.ErrorIs(t, err, txsubmit.ErrTransactionRejected)
	assert.ErrorContains(t, err, "no outputs")

	select {
	case err := <-errorChan:
		t.Fatalf("unexpected protocol error: %v", err)
	default:
	}
}
