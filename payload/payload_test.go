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

package payload_test

import (
	"strings"
	"testing"

	"github.com/kaspeak/kaspeak-go/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextRoundTrip(t *testing.T) {
	text := "Hi!"
	p, err := payload.NewText(42, "SwiftFox \U0001F98A", text)
	require.NoError(t, err)
	parsed, err := payload.FromBytes(p.Bytes())
	require.NoError(t, err)
	assert.Equal(t, payload.MessageTypeText, parsed.MessageType)
	assert.Equal(t, payload.StatusFlagEnd, parsed.StatusFlag)
	assert.Equal(t, uint32(42), parsed.Channel)
	assert.Equal(t, uint32(0), parsed.FragmentNumber)
	assert.Equal(t, "SwiftFox \U0001F98A", parsed.Username)
	assert.Equal(t, []byte(text), parsed.Data)
	assert.False(t, parsed.ReceivedTime.IsZero())
}

func TestTextEmpty(t *testing.T) {
	_, err := payload.NewText(0, "user", "")
	assert.NoError(t, err)
}

func TestTextTooLong(t *testing.T) {
	tooLong := strings.Repeat("X", payload.MaxTextChars+5)
	_, err := payload.NewText(0, "user", tooLong)
	assert.ErrorIs(t, err, payload.ErrTextTooLong)
}

func TestUsernameTooLong(t *testing.T) {
	// 19 single-byte chars exceeds the char limit
	_, err := payload.New(
		0,
		payload.MessageTypeText,
		payload.StatusFlagEnd,
		0,
		strings.Repeat("a", payload.MaxUsernameChars+1),
		nil,
	)
	assert.ErrorIs(t, err, payload.ErrUsernameTooLong)
	// 18 chars is at the limit and must be accepted
	_, err = payload.New(
		0,
		payload.MessageTypeText,
		payload.StatusFlagEnd,
		0,
		strings.Repeat("a", payload.MaxUsernameChars),
		nil,
	)
	assert.NoError(t, err)
}

func TestPayloadTooLarge(t *testing.T) {
	_, err := payload.New(
		0,
		payload.MessageTypeVoice,
		payload.StatusFlagStart,
		0,
		"user",
		make([]byte, payload.MaxPayloadBytes+1),
	)
	assert.ErrorIs(t, err, payload.ErrPayloadTooLarge)
}

func TestFromBytesTooShort(t *testing.T) {
	_, err := payload.FromBytes([]byte("KSPK"))
	assert.ErrorIs(t, err, payload.ErrDataTooShort)
}

func TestFromBytesInvalidMarker(t *testing.T) {
	p, err := payload.New(
		0,
		payload.MessageTypeText,
		payload.StatusFlagEnd,
		0,
		"user",
		[]byte("DATA"),
	)
	require.NoError(t, err)
	raw := p.Bytes()
	raw[0] = 'X'
	_, err = payload.FromBytes(raw)
	assert.ErrorIs(t, err, payload.ErrInvalidMarker)
}

func TestFromBytesUnsupportedVersion(t *testing.T) {
	p, err := payload.New(
		0,
		payload.MessageTypeText,
		payload.StatusFlagEnd,
		0,
		"user",
		[]byte("DATA"),
	)
	require.NoError(t, err)
	raw := p.Bytes()
	raw[4] = 99
	_, err = payload.FromBytes(raw)
	assert.ErrorIs(t, err, payload.ErrUnsupportedVersion)
}

func TestFromBytesIncorrectUsernameLength(t *testing.T) {
	p, err := payload.New(
		0,
		payload.MessageTypeText,
		payload.StatusFlagStart,
		0,
		"RealU",
		[]byte("DATA"),
	)
	require.NoError(t, err)
	raw := p.Bytes()
	// Corrupt the declared username length so it overruns the packet
	raw[13] = 20
	_, err = payload.FromBytes(raw)
	require.Error(t, err)
	assert.ErrorContains(t, err, "username length exceeds available data")
}

func TestFromBytesTruncatedData(t *testing.T) {
	p, err := payload.New(
		0,
		payload.MessageTypeText,
		payload.StatusFlagEnd,
		0,
		"user",
		[]byte("some payload data"),
	)
	require.NoError(t, err)
	raw := p.Bytes()
	_, err = payload.FromBytes(raw[:len(raw)-5])
	require.Error(t, err)
	assert.ErrorContains(t, err, "payload length exceeds available data")
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	text := "Go is fast!"
	p, err := payload.NewText(0, "user", text)
	require.NoError(t, err)
	require.NoError(t, p.Compress())
	parsed, err := payload.FromBytes(p.Bytes())
	require.NoError(t, err)
	require.NoError(t, parsed.Decompress())
	assert.Equal(t, []byte(text), parsed.Data)
}

func TestChannelAndFragmentLimits(t *testing.T) {
	// Channel and fragment numbers are 3 bytes on the wire
	p, err := payload.New(
		0xFFFFFF,
		payload.MessageTypeVoice,
		payload.StatusFlagContinue,
		0xFFFFFF,
		"user",
		nil,
	)
	require.NoError(t, err)
	parsed, err := payload.FromBytes(p.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFFFF), parsed.Channel)
	assert.Equal(t, uint32(0xFFFFFF), parsed.FragmentNumber)
}
