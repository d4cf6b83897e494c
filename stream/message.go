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
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kaspeak/kaspeak-go/payload"
)

// Message represents a complete text message reassembled from a channel
type Message struct {
	Id       uuid.UUID
	Username string
	Channel  uint32
	Content  string
	Time     time.Time
}

// NewMessage returns a new Message with a fresh ID and the current time
func NewMessage(username string, channel uint32, content string) Message {
	return Message{
		Id:       uuid.New(),
		Username: username,
		Channel:  channel,
		Content:  content,
		Time:     time.Now(),
	}
}

// NewMessageFromPayload builds a Message from a decoded text payload. The
// content is trimmed of surrounding whitespace
func NewMessageFromPayload(p *payload.Payload) Message {
	return NewMessage(
		p.Username,
		p.Channel,
		strings.TrimSpace(string(p.Data)),
	)
}
