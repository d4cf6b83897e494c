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

package muxer

import (
	"time"
)

const (
	// SegmentProtocolIdResponseFlag is the bit set on the protocol ID of response segments
	SegmentProtocolIdResponseFlag = 0x8000

	// SegmentMaxPayloadLength is the maximum payload of a single muxer segment
	SegmentMaxPayloadLength = 65535
)

// SegmentHeader represents the 8-byte header on every muxer segment
type SegmentHeader struct {
	Timestamp     uint32
	ProtocolId    uint16
	PayloadLength uint16
}

// Segment represents a muxer segment, which is used to wrap payloads for
// transfer between the client and the node
type Segment struct {
	SegmentHeader
	Payload []byte
}

// NewSegment creates a new Segment with the specified protocol ID and payload. The
// current time is used for the segment timestamp
func NewSegment(protocolId uint16, payload []byte, isResponse bool) *Segment {
	header := SegmentHeader{
		Timestamp:  uint32(time.Now().UnixNano() & 0xffffffff),
		ProtocolId: protocolId,
	}
	if isResponse {
		header.ProtocolId = header.ProtocolId + SegmentProtocolIdResponseFlag
	}
	header.PayloadLength = uint16(len(payload))
	segment := &Segment{
		SegmentHeader: header,
		Payload:       payload,
	}
	return segment
}

// IsRequest returns true if the segment is not a response
func (s *SegmentHeader) IsRequest() bool {
	return (s.ProtocolId & SegmentProtocolIdResponseFlag) == 0
}

// IsResponse returns true if the response flag is set on the protocol ID
func (s *SegmentHeader) IsResponse() bool {
	return (s.ProtocolId & SegmentProtocolIdResponseFlag) > 0
}

// GetProtocolId returns the protocol ID with the response flag stripped
func (s *SegmentHeader) GetProtocolId() uint16 {
	if s.ProtocolId >= SegmentProtocolIdResponseFlag {
		return s.ProtocolId - SegmentProtocolIdResponseFlag
	}
	return s.ProtocolId
}
