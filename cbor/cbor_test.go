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

package cbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testStructAsArray struct {
	StructAsArray
	A uint64
	B string
	C []byte
}

func TestEncodeDecodeStructAsArray(t *testing.T) {
	src := testStructAsArray{
		A: 42,
		B: "hello",
		C: []byte{0x1, 0x2, 0x3},
	}
	data, err := Encode(&src)
	assert.NoError(t, err)
	// Struct should encode as a CBOR array, not a map
	assert.Equal(t, uint8(0x83), data[0])
	var dest testStructAsArray
	n, err := Decode(data, &dest)
	assert.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, src.A, dest.A)
	assert.Equal(t, src.B, dest.B)
	assert.Equal(t, src.C, dest.C)
}

func TestDecodeIdFromList(t *testing.T) {
	testDefs := []struct {
		cborHex    []byte
		expectedId int
		expectErr  bool
	}{
		// [0]
		{cborHex: []byte{0x81, 0x00}, expectedId: 0},
		// [3, "abc"]
		{cborHex: []byte{0x82, 0x03, 0x63, 0x61, 0x62, 0x63}, expectedId: 3},
		// [25]
		{cborHex: []byte{0x81, 0x18, 0x19}, expectedId: 25},
		// []
		{cborHex: []byte{0x80}, expectErr: true},
		// ["abc"]
		{cborHex: []byte{0x81, 0x63, 0x61, 0x62, 0x63}, expectErr: true},
	}
	for _, testDef := range testDefs {
		id, err := DecodeIdFromList(testDef.cborHex)
		if testDef.expectErr {
			assert.Error(t, err)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, testDef.expectedId, id)
	}
}

type testStoreCbor struct {
	DecodeStoreCbor
	A uint64
	B string
}

func (t *testStoreCbor) UnmarshalCBOR(cborData []byte) error {
	return t.UnmarshalCbor(cborData, t)
}

func TestDecodeStoreCbor(t *testing.T) {
	src := testStoreCbor{A: 7, B: "stored"}
	data, err := Encode(&src)
	assert.NoError(t, err)
	var dest testStoreCbor
	_, err = Decode(data, &dest)
	assert.NoError(t, err)
	assert.Equal(t, src.A, dest.A)
	assert.Equal(t, src.B, dest.B)
	// Original CBOR should be retained
	assert.Equal(t, data, dest.Cbor())
}
