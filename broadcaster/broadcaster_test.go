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

package broadcaster_test

import (
	"sync"
	"testing"
	"time"

	"github.com/kaspeak/kaspeak-go/broadcaster"
	"github.com/kaspeak/kaspeak-go/ledger"
	"github.com/kaspeak/kaspeak-go/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type mockWallet struct {
	mutex    sync.Mutex
	balance  uint64
	sends    [][]byte
	airdrops int
}

func (w *mockWallet) SendToSelf(amount uint64, txPayload []byte) (uint64, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.sends = append(w.sends, txPayload)
	return w.balance, nil
}

func (w *mockWallet) Balance() (uint64, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.balance, nil
}

func (w *mockWallet) RequestAirdrop() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.airdrops++
	return nil
}

func (w *mockWallet) sendCount() int {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return len(w.sends)
}

func (w *mockWallet) airdropCount() int {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.airdrops
}

func (w *mockWallet) lastSend() []byte {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.sends[len(w.sends)-1]
}

func TestBroadcasterSendMessage(t *testing.T) {
	defer goleak.VerifyNone(t)

	wallet := &mockWallet{balance: 100 * ledger.SompiPerKas}
	b := broadcaster.New(broadcaster.NewConfig(
		broadcaster.WithWallet(wallet),
	))
	require.NoError(t, b.Start())
	defer b.Stop()

	b.SetConnected(true)
	require.NoError(t, b.SendMessage(3, "user", "hello"))
	assert.Eventually(t, func() bool {
		return wallet.sendCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The embedded payload round-trips to the original message
	p, err := payload.FromBytes(wallet.lastSend())
	require.NoError(t, err)
	require.NoError(t, p.Decompress())
	assert.Equal(t, payload.MessageTypeText, p.MessageType)
	assert.Equal(t, uint32(3), p.Channel)
	assert.Equal(t, []byte("hello"), p.Data)
	assert.Equal(t, 0, wallet.airdropCount())
}

func TestBroadcasterDefersWhileDisconnected(t *testing.T) {
	defer goleak.VerifyNone(t)

	wallet := &mockWallet{balance: 100 * ledger.SompiPerKas}
	b := broadcaster.New(broadcaster.NewConfig(
		broadcaster.WithWallet(wallet),
	))
	require.NoError(t, b.Start())
	defer b.Stop()

	require.NoError(t, b.SendMessage(0, "user", "first"))
	require.NoError(t, b.SendMessage(0, "user", "second"))
	// Nothing is sent until the connection comes up
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, wallet.sendCount())

	b.SetConnected(true)
	assert.Eventually(t, func() bool {
		return wallet.sendCount() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcasterAirdropOnLowBalance(t *testing.T) {
	defer goleak.VerifyNone(t)

	wallet := &mockWallet{balance: 2 * ledger.SompiPerKas}
	b := broadcaster.New(broadcaster.NewConfig(
		broadcaster.WithWallet(wallet),
	))
	require.NoError(t, b.Start())
	defer b.Stop()

	b.SetConnected(true)
	assert.Eventually(t, func() bool {
		return wallet.airdropCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcasterAirdropAfterSend(t *testing.T) {
	defer goleak.VerifyNone(t)

	wallet := &mockWallet{balance: 100 * ledger.SompiPerKas}
	b := broadcaster.New(broadcaster.NewConfig(
		broadcaster.WithWallet(wallet),
	))
	require.NoError(t, b.Start())
	defer b.Stop()

	b.SetConnected(true)
	require.NoError(t, b.SendMessage(0, "user", "hello"))
	assert.Eventually(t, func() bool {
		return wallet.sendCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, wallet.airdropCount())

	// A send that drains the balance below the threshold queues a top-up
	wallet.mutex.Lock()
	wallet.balance = ledger.SompiPerKas
	wallet.mutex.Unlock()
	require.NoError(t, b.SendMessage(0, "user", "again"))
	assert.Eventually(t, func() bool {
		return wallet.airdropCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcasterStartWithoutWallet(t *testing.T) {
	b := broadcaster.New(broadcaster.NewConfig())
	assert.Error(t, b.Start())
}
