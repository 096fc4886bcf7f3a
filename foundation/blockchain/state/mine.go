package state

import (
	"context"
	"fmt"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
)

// MinePendingTransactions builds a block from every pending transaction plus
// a reward for the producer and performs the proof of work. The search runs
// without holding the lock so transactions and chains can still be received.
// If the chain tip moved while mining, the block is discarded and
// ErrChainChanged is returned.
func (s *State) MinePendingTransactions(ctx context.Context, producer database.Address) (database.Block, error) {
	s.evHandler("state: MinePendingTransactions: MINING: started: producer[%s]", producer)
	defer s.evHandler("state: MinePendingTransactions: MINING: completed")

	block, pending, tip := s.prepareBlock(producer)

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	if err := block.Mine(ctx, block.Difficulty, s.evHandler); err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.appendProduced(block, pending, tip); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ForgePendingTransactions builds a proof of stake block from every pending
// transaction plus a reward for the producer. The block is sealed without a
// nonce search and carries a difficulty of zero.
func (s *State) ForgePendingTransactions(producer database.Address) (database.Block, error) {
	s.evHandler("state: ForgePendingTransactions: FORGING: started: producer[%s]", producer)
	defer s.evHandler("state: ForgePendingTransactions: FORGING: completed")

	block, pending, tip := s.prepareBlock(producer)

	block.Difficulty = 0
	block.Hash = block.CalculateHash()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.appendProduced(block, pending, tip); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// =============================================================================

// prepareBlock snapshots the pending pool, the reward and the tip.
func (s *State) prepareBlock(producer database.Address) (database.Block, []database.Transaction, database.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.mempool.Copy()
	tip := s.chain[len(s.chain)-1]

	txs := make([]database.Transaction, 0, len(pending)+1)
	txs = append(txs, pending...)
	txs = append(txs, database.NewRewardTransaction(producer, s.reward))

	block := database.NewBlock(
		uint64(len(s.chain)),
		s.now().UTC().UnixMilli(),
		txs,
		tip.Hash,
		s.difficulty,
		producer,
		s.reward,
	)

	return block, pending, tip
}

// appendProduced commits a locally produced block. Callers must hold the lock.
func (s *State) appendProduced(block database.Block, pending []database.Transaction, tip database.Block) error {
	if latest := s.chain[len(s.chain)-1]; latest.Hash != tip.Hash {
		s.evHandler("state: appendProduced: tip changed: exp[%s]: got[%s]", tip.Hash, latest.Hash)
		return ErrChainChanged
	}

	if err := s.appendBlock(block); err != nil {
		return err
	}

	// Only the mined transactions leave the pool, anything admitted while
	// the block was produced stays pending.
	s.mempool.Delete(pending...)

	return nil
}

// appendBlock writes the block to storage, extends the chain and applies the
// difficulty and reward schedule. Callers must hold the lock.
func (s *State) appendBlock(block database.Block) error {
	s.evHandler("state: appendBlock: write to disk: blk[%d]: hash[%s]", block.Index, block.Hash)

	if err := s.storage.Write(block); err != nil {
		return fmt.Errorf("writing block: %w", err)
	}

	s.chain = append(s.chain, block)
	s.indexBlock(block)
	s.registerStakes(block)

	difficulty, reward := s.nextSchedule(s.chain, s.difficulty, s.reward)
	if difficulty != s.difficulty {
		s.evHandler("state: appendBlock: difficulty adjusted: from[%d]: to[%d]", s.difficulty, difficulty)
	}
	if !reward.Equal(s.reward) {
		s.evHandler("state: appendBlock: reward halved: from[%s]: to[%s]", s.reward, reward)
	}
	s.difficulty, s.reward = difficulty, reward

	return nil
}

// AdjustDifficulty applies the difficulty rule to the two most recent
// blocks and returns the new difficulty.
func (s *State) AdjustDifficulty() uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.difficulty = adjustDifficulty(s.chain, s.difficulty, s.genesis.TargetBlockTime)

	return s.difficulty
}
