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

package broadcaster

import (
	"github.com/kaspeak/kaspeak-go/payload"
)

// Instruction represents a unit of outbound work for the Broadcaster
type Instruction interface {
	isInstruction()
}

// SendTxInstruction carries an encoded payload to be embedded in a
// transaction sent to the local wallet's own address
type SendTxInstruction struct {
	TxPayload []byte
}

func (SendTxInstruction) isInstruction() {}

// AirdropInstruction requests a balance top-up from the shared airdrop wallet
type AirdropInstruction struct{}

func (AirdropInstruction) isInstruction() {}

// NewSendTxFromPayload compresses the provided payload and wraps its wire
// encoding in a SendTxInstruction
func NewSendTxFromPayload(p *payload.Payload) (Instruction, error) {
	if err := p.Compress(); err != nil {
		return nil, err
	}
	return SendTxInstruction{TxPayload: p.Bytes()}, nil
}

// NewSendTxFromText builds a SendTxInstruction carrying a chat text message
func NewSendTxFromText(channel uint32, username string, text string) (Instruction, error) {
	p, err := payload.NewText(channel, username, text)
	if err != nil {
		return nil, err
	}
	return NewSendTxFromPayload(p)
}
