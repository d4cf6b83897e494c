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
	"github.com/kaspeak/kaspeak-go/ledger"
)

// limitedHashSet is a bounded insertion-ordered set of transaction IDs.
// When the set is full, inserting a new member evicts the oldest one
type limitedHashSet struct {
	capacity int
	members  map[ledger.Hash]struct{}
	order    []ledger.Hash
}

func newLimitedHashSet(capacity int) *limitedHashSet {
	return &limitedHashSet{
		capacity: capacity,
		members:  make(map[ledger.Hash]struct{}),
	}
}

func (s *limitedHashSet) Contains(hash ledger.Hash) bool {
	_, ok := s.members[hash]
	return ok
}

// Insert adds a hash to the set, evicting the oldest member when the set is
// at capacity. Inserting an existing member is a no-op
func (s *limitedHashSet) Insert(hash ledger.Hash) {
	if _, ok := s.members[hash]; ok {
		return
	}
	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.members, oldest)
	}
	s.members[hash] = struct{}{}
	s.order = append(s.order, hash)
}

func (s *limitedHashSet) Len() int {
	return len(s.order)
}
