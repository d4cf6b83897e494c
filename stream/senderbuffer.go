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

package stream

import (
	"time"

	"github.com/kaspeak/kaspeak-go/payload"
)

// SenderBuffer is the jitter buffer for a single (channel, sender) stream.
// Fragments are keyed by fragment number and drained lowest-first without
// waiting on gaps, since voice playback tolerates loss
type SenderBuffer struct {
	fragments    map[uint32]*payload.Payload
	streamActive bool
	lastFragment time.Time
}

// NewSenderBuffer returns a new, active SenderBuffer
func NewSenderBuffer() *SenderBuffer {
	return &SenderBuffer{
		fragments:    make(map[uint32]*payload.Payload),
		streamActive: true,
		lastFragment: time.Now(),
	}
}

// AddFragment inserts a fragment into the buffer. A duplicate fragment
// number silently replaces the previous fragment. An End fragment marks the
// stream as finished. A Start fragment reactivates a finished buffer,
// dropping any fragments left over from the previous stream
func (b *SenderBuffer) AddFragment(fragment *payload.Payload) {
	if fragment.StatusFlag == payload.StatusFlagStart && !b.streamActive {
		b.fragments = make(map[uint32]*payload.Payload)
		b.streamActive = true
	}
	b.fragments[fragment.FragmentNumber] = fragment
	b.lastFragment = time.Now()
	if fragment.StatusFlag == payload.StatusFlagEnd {
		b.streamActive = false
	}
}

// NextFragment removes and returns the lowest-numbered buffered fragment, or
// nil if the buffer is empty
func (b *SenderBuffer) NextFragment() *payload.Payload {
	if len(b.fragments) == 0 {
		return nil
	}
	var smallest uint32
	first := true
	for number := range b.fragments {
		if first || number < smallest {
			smallest = number
			first = false
		}
	}
	fragment := b.fragments[smallest]
	delete(b.fragments, smallest)
	return fragment
}

// Len returns the number of buffered fragments
func (b *SenderBuffer) Len() int {
	return len(b.fragments)
}

// Active returns true until an End fragment has been received
func (b *SenderBuffer) Active() bool {
	return b.streamActive
}

// Drained returns true once the stream has ended and all fragments have been
// consumed
func (b *SenderBuffer) Drained() bool {
	return !b.streamActive && len(b.fragments) == 0
}
