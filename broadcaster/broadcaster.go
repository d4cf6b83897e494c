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

// Package broadcaster turns outbound chat payloads into wallet
// transactions. Instructions submitted while the node connection is down
// are deferred and flushed once the connection comes back, and in-flight
// instructions are bounded by a fixed concurrency limit
package broadcaster

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/kaspeak/kaspeak-go/ledger"
)

const (
	// DefaultFeeLevel is the default priority fee in sompi attached to
	// payload transactions
	DefaultFeeLevel = 1_000_000

	// DefaultSendAmount is the amount in sompi sent to the wallet's own
	// address when embedding a payload
	DefaultSendAmount = 5 * ledger.SompiPerKas

	// MinAirdropBalance is the mature balance in sompi below which an
	// airdrop is requested
	MinAirdropBalance = 10 * ledger.SompiPerKas

	// DefaultConcurrency is the default number of instructions processed in
	// parallel
	DefaultConcurrency = 10
)

// ErrShuttingDown is returned when an instruction is submitted to a stopped
// Broadcaster
var ErrShuttingDown = errors.New("broadcaster is shutting down")

// Wallet abstracts the wallet operations needed by the Broadcaster. Key
// management and transaction construction live behind this interface
type Wallet interface {
	// SendToSelf sends the provided amount to the wallet's own address with
	// the payload embedded in the transaction, returning the mature balance
	// in sompi after the send
	SendToSelf(amount uint64, txPayload []byte) (uint64, error)
	// Balance returns the wallet's mature balance in sompi
	Balance() (uint64, error)
	// RequestAirdrop asks the shared airdrop wallet for a balance top-up
	RequestAirdrop() error
}

// Config is used to configure the Broadcaster
type Config struct {
	Logger            *slog.Logger
	Wallet            Wallet
	SendAmount        uint64
	MinAirdropBalance uint64
	Concurrency       int
}

// BroadcasterOptionFunc represents a function used to modify the Broadcaster
// config
type BroadcasterOptionFunc func(*Config)

// NewConfig returns a new Broadcaster config object with the provided options
func NewConfig(options ...BroadcasterOptionFunc) Config {
	c := Config{
		SendAmount:        DefaultSendAmount,
		MinAirdropBalance: MinAirdropBalance,
		Concurrency:       DefaultConcurrency,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) BroadcasterOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithWallet specifies the wallet used to send payload transactions
func WithWallet(wallet Wallet) BroadcasterOptionFunc {
	return func(c *Config) {
		c.Wallet = wallet
	}
}

// WithSendAmount specifies the amount in sompi sent to the wallet's own
// address with each payload
func WithSendAmount(sendAmount uint64) BroadcasterOptionFunc {
	return func(c *Config) {
		c.SendAmount = sendAmount
	}
}

// WithMinAirdropBalance specifies the balance threshold in sompi below which
// an airdrop is requested
func WithMinAirdropBalance(minAirdropBalance uint64) BroadcasterOptionFunc {
	return func(c *Config) {
		c.MinAirdropBalance = minAirdropBalance
	}
}

// WithConcurrency specifies the number of instructions processed in parallel
func WithConcurrency(concurrency int) BroadcasterOptionFunc {
	return func(c *Config) {
		c.Concurrency = concurrency
	}
}

// Broadcaster processes outbound instructions against the wallet
type Broadcaster struct {
	config          Config
	instructionChan chan Instruction
	connectedChan   chan bool
	semaphore       chan struct{}
	doneChan        chan struct{}
	onceStart       sync.Once
	onceStop        sync.Once
	waitGroup       sync.WaitGroup
	taskGroup       sync.WaitGroup
}

// New returns a new Broadcaster with the provided configuration
func New(cfg Config) *Broadcaster {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	b := &Broadcaster{
		config:          cfg,
		instructionChan: make(chan Instruction, 64),
		connectedChan:   make(chan bool),
		semaphore:       make(chan struct{}, cfg.Concurrency),
		doneChan:        make(chan struct{}),
	}
	return b
}

// Start launches the instruction processing loop. It returns an error if no
// wallet was configured
func (b *Broadcaster) Start() error {
	if b.config.Wallet == nil {
		return errors.New("no wallet configured")
	}
	b.onceStart.Do(func() {
		b.waitGroup.Add(1)
		go b.eventLoop()
	})
	return nil
}

// Stop shuts down the instruction loop and waits for in-flight instructions
// to finish
func (b *Broadcaster) Stop() {
	b.onceStop.Do(func() {
		close(b.doneChan)
		b.waitGroup.Wait()
		b.taskGroup.Wait()
	})
}

// SendInstruction queues an instruction for processing. Instructions queued
// while disconnected are deferred until the connection comes back
func (b *Broadcaster) SendInstruction(instruction Instruction) error {
	select {
	case <-b.doneChan:
		return ErrShuttingDown
	case b.instructionChan <- instruction:
		return nil
	}
}

// SendMessage queues a chat text message for broadcast
func (b *Broadcaster) SendMessage(channel uint32, username string, text string) error {
	instruction, err := NewSendTxFromText(channel, username, text)
	if err != nil {
		return err
	}
	return b.SendInstruction(instruction)
}

// SetConnected reports a node connection state change to the Broadcaster.
// Reporting a connection triggers the airdrop balance check and flushes any
// deferred instructions
func (b *Broadcaster) SetConnected(connected bool) {
	select {
	case <-b.doneChan:
	case b.connectedChan <- connected:
	}
}

func (b *Broadcaster) eventLoop() {
	defer b.waitGroup.Done()
	var connected bool
	var deferred []Instruction
	for {
		select {
		case <-b.doneChan:
			return
		case connected = <-b.connectedChan:
			if connected {
				b.handleConnect()
				for _, instruction := range deferred {
					b.dispatch(instruction)
				}
				deferred = nil
			} else {
				b.config.Logger.Info("disconnected from node",
					"component", "broadcaster",
				)
			}
		case instruction := <-b.instructionChan:
			if !connected {
				deferred = append(deferred, instruction)
				continue
			}
			b.dispatch(instruction)
		}
	}
}

// handleConnect checks the wallet balance and requests an airdrop when it is
// below the configured threshold
func (b *Broadcaster) handleConnect() {
	b.config.Logger.Info("connected to node",
		"component", "broadcaster",
	)
	balance, err := b.config.Wallet.Balance()
	if err != nil {
		b.config.Logger.Error(
			fmt.Sprintf("error while retrieving balance: %s", err),
			"component", "broadcaster",
		)
		return
	}
	if balance < b.config.MinAirdropBalance {
		b.dispatch(AirdropInstruction{})
	}
}

// dispatch runs an instruction on its own goroutine, bounded by the
// concurrency semaphore
func (b *Broadcaster) dispatch(instruction Instruction) {
	select {
	case <-b.doneChan:
		return
	case b.semaphore <- struct{}{}:
	}
	b.taskGroup.Add(1)
	go func() {
		defer func() {
			<-b.semaphore
			b.taskGroup.Done()
		}()
		b.handleInstruction(instruction)
	}()
}

func (b *Broadcaster) handleInstruction(instruction Instruction) {
	switch i := instruction.(type) {
	case SendTxInstruction:
		balance, err := b.config.Wallet.SendToSelf(
			b.config.SendAmount,
			i.TxPayload,
		)
		if err != nil {
			b.config.Logger.Error(
				fmt.Sprintf("error while sending transaction: %s", err),
				"component", "broadcaster",
			)
			return
		}
		b.config.Logger.Info("transaction successfully sent",
			"component", "broadcaster",
			"payload_size", len(i.TxPayload),
			"balance", balance,
		)
		if balance < b.config.MinAirdropBalance {
			// Queue a top-up rather than running it inline so that the
			// semaphore slot is released first
			select {
			case <-b.doneChan:
			case b.instructionChan <- AirdropInstruction{}:
			default:
			}
		}
	case AirdropInstruction:
		b.config.Logger.Info("starting airdrop",
			"component", "broadcaster",
		)
		if err := b.config.Wallet.RequestAirdrop(); err != nil {
			b.config.Logger.Error(
				fmt.Sprintf("error while performing airdrop: %s", err),
				"component", "broadcaster",
			)
		}
	}
}
