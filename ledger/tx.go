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

package ledger

import (
	"golang.org/x/crypto/blake2b"

	"github.com/kaspeak/kaspeak-go/cbor"
)

// Outpoint references an output of a previous transaction
type Outpoint struct {
	cbor.StructAsArray
	TransactionId Hash
	Index         uint32
}

// TransactionInput represents a transaction input
type TransactionInput struct {
	cbor.StructAsArray
	PreviousOutpoint Outpoint
	SignatureScript  []byte
}

// TransactionOutput represents a transaction output
type TransactionOutput struct {
	cbor.StructAsArray
	Amount          uint64
	ScriptPublicKey []byte
}

// Transaction represents a transaction. The payload carries arbitrary
// application data and is empty for plain transfers
type Transaction struct {
	cbor.StructAsArray
	Version uint16
	Inputs  []TransactionInput
	Outputs []TransactionOutput
	Fee     uint64
	Payload []byte
}

// Id returns the transaction ID, which is the Blake2b-256 hash of the
// serialized transaction
func (t *Transaction) Id() (Hash, error) {
	data, err := cbor.Encode(t)
	if err != nil {
		return Hash{}, err
	}
	return blake2b.Sum256(data), nil
}
