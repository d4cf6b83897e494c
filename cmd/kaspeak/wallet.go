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

package main

import (
	"log/slog"
	"sync"

	kaspeak "github.com/kaspeak/kaspeak-go"
	"github.com/kaspeak/kaspeak-go/broadcaster"
	"github.com/kaspeak/kaspeak-go/ledger"
)

// nodeWallet implements the broadcaster wallet interface on top of the
// tx-submit protocol. The node tracks the account and reports the remaining
// balance with each accepted transaction
type nodeWallet struct {
	client *kaspeak.Client
	logger *slog.Logger
	mutex  sync.Mutex
	// Last balance reported by the node. Starts at the airdrop threshold so
	// that no top-up is requested before the first submission reports the
	// real balance
	balance uint64
}

func newNodeWallet(client *kaspeak.Client, logger *slog.Logger) *nodeWallet {
	return &nodeWallet{
		client:  client,
		logger:  logger,
		balance: broadcaster.MinAirdropBalance,
	}
}

func (w *nodeWallet) SendToSelf(amount uint64, txPayload []byte) (uint64, error) {
	tx := ledger.Transaction{
		Outputs: []ledger.TransactionOutput{
			{Amount: amount},
		},
		Fee:     broadcaster.DefaultFeeLevel,
		Payload: txPayload,
	}
	txId, balance, err := w.client.TxSubmit().Client.SubmitTx(tx)
	if err != nil {
		return 0, err
	}
	w.logger.Info("transaction accepted",
		"tx_id", txId.String(),
		"balance", balance,
	)
	w.mutex.Lock()
	w.balance = balance
	w.mutex.Unlock()
	return balance, nil
}

func (w *nodeWallet) Balance() (uint64, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.balance, nil
}

func (w *nodeWallet) RequestAirdrop() error {
	// Top-ups are handled by the shared airdrop wallet on the node side
	w.logger.Warn("balance is below the airdrop threshold")
	return nil
}
