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

package muxer_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/kaspeak/kaspeak-go/muxer"
	"go.uber.org/goleak"
)

// mockConn implements net.Conn for testing
type mockConn struct {
	readBuf  *bytes.Buffer
	writeBuf *bytes.Buffer
	closed   bool
	mu       sync.Mutex
}

func newMockConn() *mockConn {
	return &mockConn{
		readBuf:  &bytes.Buffer{},
		writeBuf: &bytes.Buffer{},
	}
}

func (m *mockConn) Read(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.EOF
	}
	if m.readBuf.Len() == 0 {
		// Return 0 bytes read but no error to simulate blocking
		return 0, nil
	}
	return m.readBuf.Read(b)
}

func (m *mockConn) Write(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	return m.writeBuf.Write(b)
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) LocalAddr() net.Addr                { return nil }
func (m *mockConn) RemoteAddr() net.Addr               { return nil }
func (m *mockConn) SetDeadline(t time.Time) error      { return nil }
func (m *mockConn) SetReadDeadline(t time.Time) error  { return nil }
func (m *mockConn) SetWriteDeadline(t time.Time) error { return nil }

func (m *mockConn) WriteToReadBuf(b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readBuf.Write(b)
}

func (m *mockConn) ReadWritten() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, m.writeBuf.Len())
	copy(out, m.writeBuf.Bytes())
	return out
}

// TestSegmentHeaderMethods tests segment header response flag handling
func TestSegmentHeaderMethods(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		name       string
		protocolId uint16
		isResponse bool
	}{
		{"request segment", 0x01, false},
		{"response segment", 0x01, true},
		{"high protocol ID request", 0x7FFF, false},
		{"high protocol ID response", 0x7FFF, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segment := muxer.NewSegment(
				tt.protocolId,
				[]byte("test"),
				tt.isResponse,
			)
			if segment.IsResponse() != tt.isResponse {
				t.Errorf(
					"expected IsResponse() %v, got %v",
					tt.isResponse,
					segment.IsResponse(),
				)
			}
			if segment.IsRequest() == tt.isResponse {
				t.Error("isResponse and isRequest should be opposites")
			}
			if segment.GetProtocolId() != tt.protocolId {
				t.Errorf(
					"expected GetProtocolId() %d, got %d",
					tt.protocolId,
					segment.GetProtocolId(),
				)
			}
			if segment.PayloadLength != 4 {
				t.Errorf(
					"expected payload length 4, got %d",
					segment.PayloadLength,
				)
			}
		})
	}
}

// TestMuxerStop tests that the muxer can be stopped multiple times without panic
func TestMuxerStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	conn := newMockConn()
	m := muxer.New(conn)
	m.Stop()
	// Should be able to stop multiple times without panic
	m.Stop()
}

// TestMuxerSend tests basic send functionality
func TestMuxerSend(t *testing.T) {
	defer goleak.VerifyNone(t)

	conn := newMockConn()
	m := muxer.New(conn)
	defer m.Stop()

	sendChan, _ := m.RegisterProtocol(0x01)
	m.Start()

	payload := []byte("test message")
	sendChan <- muxer.NewSegment(0x01, payload, false)

	// Give some time for processing
	time.Sleep(10 * time.Millisecond)

	written := conn.ReadWritten()
	if len(written) < 8 {
		t.Fatalf("written data too short: %d bytes", len(written))
	}

	var header muxer.SegmentHeader
	buf := bytes.NewReader(written[:8])
	if err := binary.Read(buf, binary.BigEndian, &header); err != nil {
		t.Errorf("failed to parse header: %v", err)
	}
	if header.GetProtocolId() != 0x01 {
		t.Errorf(
			"expected protocol ID 0x01, got 0x%04x",
			header.GetProtocolId(),
		)
	}
	if header.PayloadLength != uint16(len(payload)) {
		t.Errorf(
			"expected payload length %d, got %d",
			len(payload),
			header.PayloadLength,
		)
	}
	if !bytes.Equal(written[8:], payload) {
		t.Errorf("expected payload %v, got %v", payload, written[8:])
	}
}

// TestMuxerReceive tests that inbound segments are routed to the proper receiver
func TestMuxerReceive(t *testing.T) {
	defer goleak.VerifyNone(t)

	conn := newMockConn()
	m := muxer.New(conn)
	defer m.Stop()

	_, recvChan := m.RegisterProtocol(0x02)

	payload := []byte("inbound payload")
	segment := muxer.NewSegment(0x02, payload, true)
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.BigEndian, segment.SegmentHeader); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	buf.Write(segment.Payload)
	conn.WriteToReadBuf(buf.Bytes())

	select {
	case received := <-recvChan:
		if !bytes.Equal(received.Payload, payload) {
			t.Errorf(
				"expected payload %v, got %v",
				payload,
				received.Payload,
			)
		}
		if !received.IsResponse() {
			t.Error("expected response segment")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for segment")
	}
}

// TestMuxerUnknownProtocol tests the error path for segments with an
// unregistered protocol ID
func TestMuxerUnknownProtocol(t *testing.T) {
	defer goleak.VerifyNone(t)

	conn := newMockConn()
	m := muxer.New(conn)
	defer m.Stop()

	segment := muxer.NewSegment(0x42, []byte("test"), false)
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.BigEndian, segment.SegmentHeader); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	buf.Write(segment.Payload)
	conn.WriteToReadBuf(buf.Bytes())

	select {
	case err := <-m.ErrorChan:
		if err == nil {
			t.Error("expected error for unknown protocol")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for muxer error")
	}
}
