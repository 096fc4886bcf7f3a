package state

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/shopspring/decimal"
)

// rebuildIndex recreates the address index and the committed transaction
// set from the current chain and drops every cached balance.
func (s *State) rebuildIndex() {
	s.addresses = make(map[database.Address]*roaring.Bitmap)
	s.committed = make(map[string]uint64)
	s.balances.Purge()

	for _, block := range s.chain {
		s.indexBlock(block)
	}
}

// indexBlock records which addresses the block touches. Cached balances for
// those addresses are dropped.
func (s *State) indexBlock(block database.Block) {
	touch := func(addr database.Address) {
		bm, exists := s.addresses[addr]
		if !exists {
			bm = roaring.New()
			s.addresses[addr] = bm
		}
		bm.Add(uint32(block.Index))
		s.balances.Remove(addr)
	}

	for _, tx := range block.Transactions {
		if !tx.IsReward() {
			touch(tx.From)
		}
		touch(tx.To)
		s.committed[tx.ID] = block.Index
	}
}

// balanceOf replays the committed transactions of the blocks that touch the
// address. Callers must hold the lock.
func (s *State) balanceOf(addr database.Address) database.Amount {
	if v, ok := s.balances.Get(addr); ok {
		return v.(database.Amount)
	}

	balance := decimal.Zero

	if bm, exists := s.addresses[addr]; exists {
		it := bm.Iterator()
		for it.HasNext() {
			block := s.chain[it.Next()]
			for _, tx := range block.Transactions {
				if tx.From == addr {
					balance = balance.Sub(tx.Amount)
				}
				if tx.To == addr {
					balance = balance.Add(tx.Amount)
				}
			}
		}
	}

	s.balances.Add(addr, balance)

	return balance
}

// =============================================================================

// replaySchedule derives the difficulty and reward the chain arrives at by
// applying the adjustment and halving rules after every block past genesis.
func (s *State) replaySchedule(blocks []database.Block) (uint, database.Amount) {
	difficulty := s.genesis.Difficulty
	reward := s.genesis.MiningReward

	for length := 2; length <= len(blocks); length++ {
		difficulty, reward = s.nextSchedule(blocks[:length], difficulty, reward)
	}

	return difficulty, reward
}

// nextSchedule applies the rules that run after a block is appended: every
// adjustment interval the difficulty is revisited and every halving
// interval the reward is halved.
func (s *State) nextSchedule(blocks []database.Block, difficulty uint, reward database.Amount) (uint, database.Amount) {
	length := uint64(len(blocks))

	if length%s.genesis.AdjustmentInterval == 0 {
		difficulty = adjustDifficulty(blocks, difficulty, s.genesis.TargetBlockTime)
	}

	if length%s.genesis.HalvingInterval == 0 {
		reward = reward.Div(decimal.NewFromInt(2))
	}

	return difficulty, reward
}

// adjustDifficulty compares the time between the two most recent blocks
// against the target. Blocks faster than half the target raise the
// difficulty by one, blocks slower than double the target lower it by one
// with a floor of one.
func adjustDifficulty(blocks []database.Block, difficulty uint, target int64) uint {
	if len(blocks) < 2 {
		return difficulty
	}

	last := blocks[len(blocks)-1]
	prev := blocks[len(blocks)-2]
	taken := float64(last.Timestamp-prev.Timestamp) / 1000
	expected := float64(target)

	switch {
	case taken < expected/2:
		difficulty++
	case taken > expected*2:
		if difficulty <= 1 {
			return 1
		}
		difficulty--
	}

	return difficulty
}
