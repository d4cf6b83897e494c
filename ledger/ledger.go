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

// Package ledger provides the block, transaction, and address types used when
// talking to a node
package ledger

import (
	"encoding/hex"
	"fmt"

	"github.com/kaspeak/kaspeak-go/cbor"
)

// SompiPerKas is the number of sompi in one KAS
const SompiPerKas = 100_000_000

// HashSize is the size of a ledger hash in bytes
const HashSize = 32

// Hash represents a block or transaction hash
type Hash [HashSize]byte

// NewHashFromHex parses a hex-encoded hash
func NewHashFromHex(hashHex string) (Hash, error) {
	var h Hash
	data, err := hex.DecodeString(hashHex)
	if err != nil {
		return h, err
	}
	if len(data) != HashSize {
		return h, fmt.Errorf("invalid hash length: %d", len(data))
	}
	copy(h[:], data)
	return h, nil
}

// Bytes returns the hash as a byte slice
func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalCBOR encodes the hash as a CBOR byte string
func (h Hash) MarshalCBOR() ([]byte, error) {
	return cbor.Encode(h[:])
}

// UnmarshalCBOR decodes the hash from a CBOR byte string
func (h *Hash) UnmarshalCBOR(data []byte) error {
	var tmp []byte
	if _, err := cbor.Decode(data, &tmp); err != nil {
		return err
	}
	if len(tmp) != HashSize {
		return fmt.Errorf("invalid hash length: %d", len(tmp))
	}
	copy(h[:], tmp)
	return nil
}
