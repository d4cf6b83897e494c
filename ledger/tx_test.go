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

package ledger_test

import (
	"testing"

	"github.com/kaspeak/kaspeak-go/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionId(t *testing.T) {
	tx := ledger.Transaction{
		Version: 0,
		Outputs: []ledger.TransactionOutput{
			{
				Amount:          ledger.SompiPerKas,
				ScriptPublicKey: []byte{0x20, 0xac},
			},
		},
		Payload: []byte("test payload"),
	}
	txId, err := tx.Id()
	require.NoError(t, err)
	// ID must be deterministic
	txId2, err := tx.Id()
	require.NoError(t, err)
	assert.Equal(t, txId, txId2)
	// Changing the payload must change the ID
	tx.Payload = []byte("other payload")
	txId3, err := tx.Id()
	require.NoError(t, err)
	assert.NotEqual(t, txId, txId3)
}

func TestHashFromHex(t *testing.T) {
	hashHex := "0102030405060708091011121314151617181920212223242526272829303132"
	hash, err := ledger.NewHashFromHex(hashHex)
	require.NoError(t, err)
	assert.Equal(t, hashHex, hash.String())
	_, err = ledger.NewHashFromHex("abcd")
	assert.Error(t, err)
}
