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

package stream_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/kaspeak/kaspeak-go/payload"
	"github.com/kaspeak/kaspeak-go/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func textPayload(t *testing.T, channel uint32, username string, text string) *payload.Payload {
	t.Helper()
	p, err := payload.NewText(channel, username, text)
	require.NoError(t, err)
	return p
}

func TestAssemblerTextMessage(t *testing.T) {
	defer goleak.VerifyNone(t)

	var received []stream.Message
	assembler := stream.NewAssembler(stream.NewConfig(
		stream.WithMessageFunc(func(msg stream.Message) {
			received = append(received, msg)
		}),
	))
	assembler.Start()
	defer assembler.Stop()

	assembler.HandleFragment(textPayload(t, 7, "user", "  hello world \n"))
	require.Len(t, received, 1)
	// Content is trimmed
	assert.Equal(t, "hello world", received[0].Content)
	assert.Equal(t, "user", received[0].Username)
	assert.Equal(t, uint32(7), received[0].Channel)
	assert.NotEqual(t, received[0].Id.String(), "00000000-0000-0000-0000-000000000000")

	history := assembler.History(7)
	require.Len(t, history, 1)
	assert.Equal(t, received[0], history[0])
	// Other channels are unaffected
	assert.Empty(t, assembler.History(8))
}

func TestAssemblerHistoryCapacity(t *testing.T) {
	assembler := stream.NewAssembler(stream.NewConfig(
		stream.WithHistoryCapacity(3),
	))
	for i := 0; i < 5; i++ {
		assembler.HandleFragment(
			textPayload(t, 0, "user", fmt.Sprintf("message %d", i)),
		)
	}
	history := assembler.History(0)
	require.Len(t, history, 3)
	// Oldest messages are dropped
	assert.Equal(t, "message 2", history[0].Content)
	assert.Equal(t, "message 4", history[2].Content)
}

func TestAssemblerVoiceDrainOrder(t *testing.T) {
	assembler := stream.NewAssembler(stream.NewConfig())
	// Fragments arrive out of order
	assembler.HandleFragment(voiceFragment(t, 2, payload.StatusFlagContinue, "f2"))
	assembler.HandleFragment(voiceFragment(t, 0, payload.StatusFlagStart, "f0"))
	assembler.HandleFragment(voiceFragment(t, 1, payload.StatusFlagContinue, "f1"))

	assert.Equal(t, []string{"user"}, assembler.Senders(0))

	for i := uint32(0); i < 3; i++ {
		fragment := assembler.NextFragment(0, "user")
		require.NotNil(t, fragment)
		assert.Equal(t, i, fragment.FragmentNumber)
	}
	assert.Nil(t, assembler.NextFragment(0, "user"))
}

func TestAssemblerDropsStragglersAfterEnd(t *testing.T) {
	assembler := stream.NewAssembler(stream.NewConfig())
	assembler.HandleFragment(voiceFragment(t, 0, payload.StatusFlagStart, "f0"))
	assembler.HandleFragment(voiceFragment(t, 1, payload.StatusFlagEnd, "f1"))
	assembler.NextFragment(0, "user")
	assembler.NextFragment(0, "user")
	// A late Continue fragment for the ended stream is dropped
	assembler.HandleFragment(voiceFragment(t, 2, payload.StatusFlagContinue, "late"))
	assert.Nil(t, assembler.NextFragment(0, "user"))
	// A new Start begins a new stream
	assembler.HandleFragment(voiceFragment(t, 0, payload.StatusFlagStart, "fresh"))
	fragment := assembler.NextFragment(0, "user")
	require.NotNil(t, fragment)
	assert.Equal(t, []byte("fresh"), fragment.Data)
}

func TestAssemblerJanitorEvictsStaleBuffers(t *testing.T) {
	defer goleak.VerifyNone(t)

	assembler := stream.NewAssembler(stream.NewConfig(
		stream.WithBufferExpiry(50*time.Millisecond),
		stream.WithJanitorInterval(20*time.Millisecond),
	))
	assembler.Start()
	defer assembler.Stop()

	assembler.HandleFragment(voiceFragment(t, 0, payload.StatusFlagStart, "f0"))
	require.NotEmpty(t, assembler.Senders(0))

	assert.Eventually(t, func() bool {
		return len(assembler.Senders(0)) == 0
	}, time.Second, 10*time.Millisecond)
}
