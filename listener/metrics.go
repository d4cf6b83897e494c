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

package listener

import (
	"sync/atomic"
)

// Metrics tracks counters for the block ingress path.
// Uses atomic counters for thread-safe operation
type Metrics struct {
	blocksProcessed  atomic.Uint64
	transactionsSeen atomic.Uint64
	duplicates       atomic.Uint64
	decodeErrors     atomic.Uint64
	payloadsAccepted atomic.Uint64
	payloadsFiltered atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of the ingress counters
type MetricsSnapshot struct {
	BlocksProcessed  uint64
	TransactionsSeen uint64
	Duplicates       uint64
	DecodeErrors     uint64
	PayloadsAccepted uint64
	PayloadsFiltered uint64
}

// Snapshot returns a copy of the current counter values
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		BlocksProcessed:  m.blocksProcessed.Load(),
		TransactionsSeen: m.transactionsSeen.Load(),
		Duplicates:       m.duplicates.Load(),
		DecodeErrors:     m.decodeErrors.Load(),
		PayloadsAccepted: m.payloadsAccepted.Load(),
		PayloadsFiltered: m.payloadsFiltered.Load(),
	}
}
