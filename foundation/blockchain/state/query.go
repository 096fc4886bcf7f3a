package state

import (
	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/genesis"
)

// BalanceOf returns the balance of the address derived by replaying the
// committed blocks. Pending transactions are not included.
func (s *State) BalanceOf(addr database.Address) database.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.balanceOf(addr)
}

// TransactionsFor returns every committed transaction the address sent or
// received in chain order.
func (s *State) TransactionsFor(addr database.Address) []database.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	bm, exists := s.addresses[addr]
	if !exists {
		return nil
	}

	var txs []database.Transaction

	it := bm.Iterator()
	for it.HasNext() {
		for _, tx := range s.chain[it.Next()].Transactions {
			if tx.To == addr || (tx.From == addr && !tx.IsReward()) {
				txs = append(txs, tx)
			}
		}
	}

	return txs
}

// TransactionByID returns the committed transaction with the id and the
// index of the block holding it.
func (s *State) TransactionByID(id string) (database.Transaction, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, exists := s.committed[id]
	if !exists {
		return database.Transaction{}, 0, false
	}

	for _, tx := range s.chain[index].Transactions {
		if tx.ID == id {
			return tx, index, true
		}
	}

	return database.Transaction{}, 0, false
}

// LatestBlock returns a copy of the current latest block.
func (s *State) LatestBlock() database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chain[len(s.chain)-1]
}

// Chain returns a read only snapshot of the chain.
func (s *State) Chain() []database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]database.Block(nil), s.chain...)
}

// Blocks returns the blocks between the two indexes, inclusive. Indexes past
// the tip are clamped.
func (s *State) Blocks(from uint64, to uint64) []database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := uint64(len(s.chain) - 1)
	if to > last {
		to = last
	}
	if from > to {
		return nil
	}

	return append([]database.Block(nil), s.chain[from:to+1]...)
}

// Length returns the number of blocks in the chain including genesis.
func (s *State) Length() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.chain)
}

// Difficulty returns the difficulty the next mined block must meet.
func (s *State) Difficulty() uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.difficulty
}

// Reward returns the reward paid for the next block.
func (s *State) Reward() database.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reward
}

// Pending returns a copy of the pending pool in admission order.
func (s *State) Pending() []database.Transaction {
	return s.mempool.Copy()
}

// PendingCount returns the number of pending transactions.
func (s *State) PendingCount() int {
	return s.mempool.Count()
}

// Genesis returns a copy of the consensus parameters.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}
