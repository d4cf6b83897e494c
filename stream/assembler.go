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

// Package stream reassembles ordered per-channel message streams from
// payload fragments that arrive out of order across the blockDAG
package stream

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/kaspeak/kaspeak-go/payload"
)

// MaxChannelHistory is the default number of messages retained per channel
const MaxChannelHistory = 250

// MessageFunc is the callback invoked when a complete text message is
// reassembled
type MessageFunc func(Message)

// bufferKey identifies the stream of a single sender on a single channel
type bufferKey struct {
	Channel  uint32
	Username string
}

// Config is used to configure the Assembler
type Config struct {
	Logger          *slog.Logger
	MessageFunc     MessageFunc
	HistoryCapacity int
	BufferExpiry    time.Duration
	JanitorInterval time.Duration
}

// AssemblerOptionFunc represents a function used to modify the Assembler config
type AssemblerOptionFunc func(*Config)

// NewConfig returns a new Assembler config object with the provided options
func NewConfig(options ...AssemblerOptionFunc) Config {
	c := Config{
		HistoryCapacity: MaxChannelHistory,
		BufferExpiry:    60 * time.Second,
		JanitorInterval: 10 * time.Second,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) AssemblerOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMessageFunc specifies the callback for completed text messages
func WithMessageFunc(messageFunc MessageFunc) AssemblerOptionFunc {
	return func(c *Config) {
		c.MessageFunc = messageFunc
	}
}

// WithHistoryCapacity specifies the number of messages retained per channel
func WithHistoryCapacity(historyCapacity int) AssemblerOptionFunc {
	return func(c *Config) {
		c.HistoryCapacity = historyCapacity
	}
}

// WithBufferExpiry specifies how long a sender buffer may go without a new
// fragment before the janitor evicts it
func WithBufferExpiry(bufferExpiry time.Duration) AssemblerOptionFunc {
	return func(c *Config) {
		c.BufferExpiry = bufferExpiry
	}
}

// WithJanitorInterval specifies how often stale sender buffers are swept
func WithJanitorInterval(janitorInterval time.Duration) AssemblerOptionFunc {
	return func(c *Config) {
		c.JanitorInterval = janitorInterval
	}
}

// Assembler consumes decoded payload fragments and produces ordered
// per-channel streams. Text payloads are emitted as complete messages, voice
// and file payloads are buffered per (channel, sender) for in-order draining
type Assembler struct {
	config    Config
	mutex     sync.Mutex
	buffers   map[bufferKey]*SenderBuffer
	history   map[uint32][]Message
	doneChan  chan struct{}
	onceStart sync.Once
	onceStop  sync.Once
	waitGroup sync.WaitGroup
}

// NewAssembler returns a new Assembler with the provided configuration
func NewAssembler(cfg Config) *Assembler {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := &Assembler{
		config:   cfg,
		buffers:  make(map[bufferKey]*SenderBuffer),
		history:  make(map[uint32][]Message),
		doneChan: make(chan struct{}),
	}
	return a
}

// Start launches the janitor sweep for stale sender buffers
func (a *Assembler) Start() {
	a.onceStart.Do(func() {
		a.waitGroup.Add(1)
		go a.janitorLoop()
	})
}

// Stop shuts down the assembler
func (a *Assembler) Stop() {
	a.onceStop.Do(func() {
		close(a.doneChan)
		a.waitGroup.Wait()
	})
}

// HandleFragment routes a decoded payload fragment. Text payloads produce a
// complete Message immediately. Voice and file payloads are buffered for
// in-order draining via NextFragment
func (a *Assembler) HandleFragment(p *payload.Payload) {
	if p.MessageType == payload.MessageTypeText {
		a.handleText(p)
		return
	}
	key := bufferKey{Channel: p.Channel, Username: p.Username}
	a.mutex.Lock()
	buffer, ok := a.buffers[key]
	if !ok {
		buffer = NewSenderBuffer()
		a.buffers[key] = buffer
	} else if buffer.Drained() && p.StatusFlag != payload.StatusFlagStart {
		// Only a Start fragment may begin a new stream once the previous
		// stream has ended and drained
		a.mutex.Unlock()
		a.config.Logger.Debug("dropping fragment for ended stream",
			"component", "stream",
			"channel", p.Channel,
			"username", p.Username,
			"fragment", p.FragmentNumber,
		)
		return
	}
	buffer.AddFragment(p)
	size := buffer.Len()
	a.mutex.Unlock()
	a.config.Logger.Debug("buffered fragment",
		"component", "stream",
		"channel", p.Channel,
		"username", p.Username,
		"fragment", p.FragmentNumber,
		"buffer_size", size,
	)
}

func (a *Assembler) handleText(p *payload.Payload) {
	message := NewMessageFromPayload(p)
	a.mutex.Lock()
	history := append(a.history[p.Channel], message)
	if len(history) > a.config.HistoryCapacity {
		history = history[1:]
	}
	a.history[p.Channel] = history
	a.mutex.Unlock()
	a.config.Logger.Info("received text message",
		"component", "stream",
		"channel", p.Channel,
		"username", p.Username,
	)
	if a.config.MessageFunc != nil {
		a.config.MessageFunc(message)
	}
}

// NextFragment removes and returns the lowest-numbered buffered fragment for
// the provided channel and sender, or nil when nothing is buffered. Drained
// buffers stick around until the janitor sweeps them, so that stragglers for
// an ended stream are dropped rather than replayed
func (a *Assembler) NextFragment(channel uint32, username string) *payload.Payload {
	key := bufferKey{Channel: channel, Username: username}
	a.mutex.Lock()
	defer a.mutex.Unlock()
	buffer, ok := a.buffers[key]
	if !ok {
		return nil
	}
	return buffer.NextFragment()
}

// Senders returns the senders with a buffered stream on the provided channel
func (a *Assembler) Senders(channel uint32) []string {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	var senders []string
	for key := range a.buffers {
		if key.Channel == channel {
			senders = append(senders, key.Username)
		}
	}
	return senders
}

// History returns a copy of the retained messages for the provided channel
// in arrival order
func (a *Assembler) History(channel uint32) []Message {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	history := make([]Message, len(a.history[channel]))
	copy(history, a.history[channel])
	return history
}

func (a *Assembler) janitorLoop() {
	defer a.waitGroup.Done()
	ticker := time.NewTicker(a.config.JanitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.doneChan:
			return
		case <-ticker.C:
			a.sweep()
		}
	}
}

// sweep evicts sender buffers that have drained or gone stale
func (a *Assembler) sweep() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	for key, buffer := range a.buffers {
		if buffer.Drained() ||
			time.Since(buffer.lastFragment) > a.config.BufferExpiry {
			delete(a.buffers, key)
			a.config.Logger.Debug("evicted stale sender buffer",
				"component", "stream",
				"channel", key.Channel,
				"username", key.Username,
				"dropped_fragments", buffer.Len(),
			)
		}
	}
}
