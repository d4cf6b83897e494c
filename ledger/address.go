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
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Address prefixes for the supported networks
const (
	AddressPrefixMainnet = "kaspa"
	AddressPrefixTestnet = "kaspatest"
)

const (
	opData32   = 0x20
	opCheckSig = 0xac
)

var ErrInvalidAddress = errors.New("invalid address")

// Address represents a pay-to-pubkey address
type Address struct {
	prefix  string
	payload []byte
}

// NewAddress returns a new Address with the provided prefix and public key
func NewAddress(prefix string, pubKey ed25519.PublicKey) (Address, error) {
	if len(pubKey) != ed25519.PublicKeySize {
		return Address{}, fmt.Errorf(
			"%w: invalid public key length: %d",
			ErrInvalidAddress,
			len(pubKey),
		)
	}
	payload := make([]byte, len(pubKey))
	copy(payload, pubKey)
	return Address{
		prefix:  prefix,
		payload: payload,
	}, nil
}

// NewAddressFromString parses a bech32-encoded address
func NewAddressFromString(addr string) (Address, error) {
	prefix, data, err := bech32.Decode(addr)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if len(payload) != ed25519.PublicKeySize {
		return Address{}, fmt.Errorf(
			"%w: invalid payload length: %d",
			ErrInvalidAddress,
			len(payload),
		)
	}
	return Address{
		prefix:  prefix,
		payload: payload,
	}, nil
}

// Prefix returns the network prefix of the address
func (a Address) Prefix() string {
	return a.prefix
}

// Payload returns the public key payload of the address
func (a Address) Payload() []byte {
	payload := make([]byte, len(a.payload))
	copy(payload, a.payload)
	return payload
}

// Script returns the pay-to-pubkey script for the address
func (a Address) Script() []byte {
	script := make([]byte, 0, len(a.payload)+2)
	script = append(script, opData32)
	script = append(script, a.payload...)
	script = append(script, opCheckSig)
	return script
}

func (a Address) String() string {
	grouped, err := bech32.ConvertBits(a.payload, 8, 5, true)
	if err != nil {
		return ""
	}
	encoded, err := bech32.Encode(a.prefix, grouped)
	if err != nil {
		return ""
	}
	return encoded
}
