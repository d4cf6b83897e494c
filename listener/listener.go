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

// Package listener extracts chat payloads from the stream of accepted
// blocks. Transactions carrying the payload marker are deduplicated by
// transaction ID, decoded, filtered against the local channel settings and
// handed off to the payload consumer
package listener

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/kaspeak/kaspeak-go/ledger"
	"github.com/kaspeak/kaspeak-go/payload"
)

// DefaultDedupeCapacity is the default number of processed transaction IDs
// remembered for payload deduplication
const DefaultDedupeCapacity = 100_000

// NextBlockFunc fetches the next accepted block. It blocks until a block is
// available or the source is shut down
type NextBlockFunc func() (ledger.Block, error)

// PayloadFunc is the callback invoked for each payload that passes the
// incoming filters
type PayloadFunc func(*payload.Payload)

// Config is used to configure the Listener
type Config struct {
	Logger         *slog.Logger
	NextBlockFunc  NextBlockFunc
	PayloadFunc    PayloadFunc
	DedupeCapacity int
	Username       string
	Channel        uint32
	ListenSelf     bool
	MuteAll        bool
}

// ListenerOptionFunc represents a function used to modify the Listener config
type ListenerOptionFunc func(*Config)

// NewConfig returns a new Listener config object with the provided options
func NewConfig(options ...ListenerOptionFunc) Config {
	c := Config{
		DedupeCapacity: DefaultDedupeCapacity,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) ListenerOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithNextBlockFunc specifies the block source drained by Start
func WithNextBlockFunc(nextBlockFunc NextBlockFunc) ListenerOptionFunc {
	return func(c *Config) {
		c.NextBlockFunc = nextBlockFunc
	}
}

// WithPayloadFunc specifies the callback for accepted payloads
func WithPayloadFunc(payloadFunc PayloadFunc) ListenerOptionFunc {
	return func(c *Config) {
		c.PayloadFunc = payloadFunc
	}
}

// WithDedupeCapacity specifies the number of processed transaction IDs
// remembered for deduplication
func WithDedupeCapacity(dedupeCapacity int) ListenerOptionFunc {
	return func(c *Config) {
		c.DedupeCapacity = dedupeCapacity
	}
}

// WithUsername specifies the local username used by the self filter
func WithUsername(username string) ListenerOptionFunc {
	return func(c *Config) {
		c.Username = username
	}
}

// WithChannel specifies the initial channel number
func WithChannel(channel uint32) ListenerOptionFunc {
	return func(c *Config) {
		c.Channel = channel
	}
}

// WithListenSelf specifies whether the local user's own voice payloads are
// accepted
func WithListenSelf(listenSelf bool) ListenerOptionFunc {
	return func(c *Config) {
		c.ListenSelf = listenSelf
	}
}

// WithMuteAll specifies whether all incoming voice payloads are dropped
func WithMuteAll(muteAll bool) ListenerOptionFunc {
	return func(c *Config) {
		c.MuteAll = muteAll
	}
}

// Listener drains accepted blocks and turns marker-tagged transaction
// payloads into decoded chat payloads
type Listener struct {
	config     Config
	mutex      sync.Mutex
	username   string
	channel    uint32
	listenSelf bool
	muteAll    bool
	processed  *limitedHashSet
	metrics    Metrics
	doneChan   chan struct{}
	onceStart  sync.Once
	onceStop   sync.Once
	waitGroup  sync.WaitGroup
}

// New returns a new Listener with the provided configuration
func New(cfg Config) *Listener {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.DedupeCapacity <= 0 {
		cfg.DedupeCapacity = DefaultDedupeCapacity
	}
	l := &Listener{
		config:     cfg,
		username:   cfg.Username,
		channel:    cfg.Channel,
		listenSelf: cfg.ListenSelf,
		muteAll:    cfg.MuteAll,
		processed:  newLimitedHashSet(cfg.DedupeCapacity),
		doneChan:   make(chan struct{}),
	}
	return l
}

// Start launches the block processing loop. It returns an error if no block
// source was configured
func (l *Listener) Start() error {
	if l.config.NextBlockFunc == nil {
		return errors.New("no block source configured")
	}
	l.onceStart.Do(func() {
		l.waitGroup.Add(1)
		go l.blockLoop()
	})
	return nil
}

// Stop shuts down the block processing loop
func (l *Listener) Stop() {
	l.onceStop.Do(func() {
		close(l.doneChan)
		l.waitGroup.Wait()
	})
}

// SetChannel changes the channel used by the voice filter
func (l *Listener) SetChannel(channel uint32) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.channel = channel
}

// SetListenSelf changes whether the local user's own voice payloads are
// accepted
func (l *Listener) SetListenSelf(listenSelf bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.listenSelf = listenSelf
}

// SetMuteAll changes whether all incoming voice payloads are dropped
func (l *Listener) SetMuteAll(muteAll bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.muteAll = muteAll
}

// SetUsername changes the local username used by the self filter
func (l *Listener) SetUsername(username string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.username = username
}

// Metrics returns a snapshot of the ingress counters
func (l *Listener) Metrics() MetricsSnapshot {
	return l.metrics.Snapshot()
}

func (l *Listener) blockLoop() {
	defer l.waitGroup.Done()
	for {
		select {
		case <-l.doneChan:
			return
		default:
		}
		block, err := l.config.NextBlockFunc()
		if err != nil {
			select {
			case <-l.doneChan:
			default:
				l.config.Logger.Error(
					fmt.Sprintf("error while fetching block: %s", err),
					"component", "listener",
				)
			}
			return
		}
		l.HandleBlock(block)
	}
}

// HandleBlock scans the transactions of an accepted block for chat payloads.
// Transactions without the payload marker are skipped, already-processed
// transaction IDs are deduplicated and malformed payloads are logged and
// dropped
func (l *Listener) HandleBlock(block ledger.Block) {
	l.metrics.blocksProcessed.Add(1)
	for _, tx := range block.Transactions {
		l.metrics.transactionsSeen.Add(1)
		if !bytes.HasPrefix(tx.Payload, payload.Marker) {
			continue
		}
		txId, err := tx.Id()
		if err != nil {
			l.config.Logger.Error(
				fmt.Sprintf("error while hashing transaction: %s", err),
				"component", "listener",
			)
			continue
		}
		if l.processed.Contains(txId) {
			l.metrics.duplicates.Add(1)
			continue
		}
		l.processed.Insert(txId)
		p, err := payload.FromBytes(tx.Payload)
		if err != nil {
			l.metrics.decodeErrors.Add(1)
			l.config.Logger.Error(
				fmt.Sprintf("error while parsing payload: %s (tx_id=%s)", err, txId),
				"component", "listener",
			)
			continue
		}
		l.config.Logger.Info(
			fmt.Sprintf("received payload: %s (tx_id=%s)", p, txId),
			"component", "listener",
		)
		switch p.MessageType {
		case payload.MessageTypeVoice:
			if !l.filterIncomingVoice(p) {
				l.metrics.payloadsFiltered.Add(1)
				continue
			}
			if err := p.Decompress(); err != nil {
				l.metrics.decodeErrors.Add(1)
				l.config.Logger.Error(
					fmt.Sprintf("error while decompressing audio: %s", err),
					"component", "listener",
				)
				continue
			}
			l.dispatch(p)
		case payload.MessageTypeText:
			if err := p.Decompress(); err != nil {
				l.metrics.decodeErrors.Add(1)
				l.config.Logger.Error(
					fmt.Sprintf("error while decompressing text: %s", err),
					"component", "listener",
				)
				continue
			}
			if !l.filterIncomingText(p) {
				l.metrics.payloadsFiltered.Add(1)
				continue
			}
			l.dispatch(p)
		default:
			l.metrics.payloadsFiltered.Add(1)
			l.config.Logger.Warn(
				"unsupported message type",
				"component", "listener",
				"message_type", uint8(p.MessageType),
			)
		}
	}
}

func (l *Listener) filterIncomingVoice(p *payload.Payload) bool {
	l.mutex.Lock()
	username := l.username
	listenSelf := l.listenSelf
	muteAll := l.muteAll
	channel := l.channel
	l.mutex.Unlock()
	if muteAll {
		return false
	}
	if p.Username == username && !listenSelf {
		return false
	}
	if p.Channel != channel {
		return false
	}
	return true
}

func (l *Listener) filterIncomingText(p *payload.Payload) bool {
	if !utf8.Valid(p.Data) {
		return false
	}
	charCount := utf8.RuneCount(p.Data)
	if charCount > payload.MaxTextChars {
		l.config.Logger.Warn(
			fmt.Sprintf(
				"text data has %d chars, max allowed is %d",
				charCount,
				payload.MaxTextChars,
			),
			"component", "listener",
		)
		return false
	}
	return true
}

func (l *Listener) dispatch(p *payload.Payload) {
	l.metrics.payloadsAccepted.Add(1)
	if l.config.PayloadFunc != nil {
		l.config.PayloadFunc(p)
	}
}
