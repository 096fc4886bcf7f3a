// Package mempool maintains the pending transaction pool for the blockchain.
package mempool

import (
	"errors"
	"sync"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
)

// ErrDuplicateTransaction is returned when a transaction with the same id is
// already pending.
var ErrDuplicateTransaction = errors.New("transaction already pending")

// Mempool represents a cache of pending transactions keyed by transaction
// id. Transactions are handed out in the order they were admitted.
type Mempool struct {
	mu    sync.RWMutex
	pool  map[string]database.Transaction
	order []string
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{
		pool: make(map[string]database.Transaction),
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add inserts a transaction into the pool and returns the new pool size.
func (mp *Mempool) Add(tx database.Transaction) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[tx.ID]; exists {
		return len(mp.pool), ErrDuplicateTransaction
	}

	mp.pool[tx.ID] = tx
	mp.order = append(mp.order, tx.ID)

	return len(mp.pool), nil
}

// Delete removes the transactions from the pool.
func (mp *Mempool) Delete(txs ...database.Transaction) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, tx := range txs {
		delete(mp.pool, tx.ID)
	}

	order := mp.order[:0]
	for _, id := range mp.order {
		if _, exists := mp.pool[id]; exists {
			order = append(order, id)
		}
	}
	mp.order = order
}

// Copy returns the pending transactions in admission order.
func (mp *Mempool) Copy() []database.Transaction {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	txs := make([]database.Transaction, 0, len(mp.order))
	for _, id := range mp.order {
		txs = append(txs, mp.pool[id])
	}

	return txs
}
