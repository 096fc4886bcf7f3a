package state

import (
	"fmt"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
)

// IsChainValid walks the current chain checking every block is well formed,
// links to its parent and carries the work its difficulty claims.
func (s *State) IsChainValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.validateChain(s.chain) == nil
}

// ValidateChain checks the candidate starts with the canonical genesis block
// and that every following block is valid against its parent.
func (s *State) ValidateChain(candidate []database.Block) error {
	return s.validateChain(candidate)
}

// ReplaceChain swaps the current chain for the candidate when the candidate
// is longer and valid. On rejection nothing is changed. Storage is rewritten
// with the candidate and every derived structure is rebuilt.
func (s *State) ReplaceChain(candidate []database.Block) error {
	s.evHandler("state: ReplaceChain: started: candidate[%d]", len(candidate))
	defer s.evHandler("state: ReplaceChain: completed")

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(candidate) <= len(s.chain) {
		s.evHandler("state: ReplaceChain: rejected: candidate[%d]: current[%d]", len(candidate), len(s.chain))
		return fmt.Errorf("%w: candidate %d, current %d", ErrChainTooShort, len(candidate), len(s.chain))
	}

	if err := s.validateChain(candidate); err != nil {
		s.evHandler("state: ReplaceChain: rejected: %s", err)
		return err
	}

	blocks := append([]database.Block(nil), candidate...)

	if err := s.rewriteStorage(blocks); err != nil {
		s.evHandler("state: ReplaceChain: ERROR: %s", err)

		if rerr := s.rewriteStorage(s.chain); rerr != nil {
			return fmt.Errorf("replacing storage: %w, restoring storage: %w", err, rerr)
		}
		return fmt.Errorf("replacing storage: %w", err)
	}

	s.setChain(blocks)

	// Remove transactions that are now in the blockchain.
	for _, block := range blocks {
		s.mempool.Delete(block.Transactions...)
	}

	s.evHandler("state: ReplaceChain: replaced: length[%d]: tip[%s]", len(blocks), blocks[len(blocks)-1].Hash)

	return nil
}

// AcceptBlock validates a single block received from outside the node and
// appends it when it extends the current tip.
func (s *State) AcceptBlock(block database.Block) error {
	s.evHandler("state: AcceptBlock: started: blk[%d]: hash[%s]", block.Index, block.Hash)
	defer s.evHandler("state: AcceptBlock: completed")

	if err := block.ValidateStructure(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChain, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tip := s.chain[len(s.chain)-1]
	if block.PreviousHash != tip.Hash || block.Index != uint64(len(s.chain)) {
		return fmt.Errorf("%w: blk[%d]: tip[%d]", ErrNotNextBlock, block.Index, tip.Index)
	}

	if err := block.ValidateLink(tip); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChain, err)
	}

	if !database.HashMeetsDifficulty(block.Hash, block.Difficulty) {
		return fmt.Errorf("%w: blk[%d]: hash does not meet difficulty %d", ErrInvalidChain, block.Index, block.Difficulty)
	}

	if err := s.appendBlock(block); err != nil {
		return err
	}

	s.mempool.Delete(block.Transactions...)

	return nil
}

// =============================================================================

// validateChain performs the chain checks without touching state.
func (s *State) validateChain(blocks []database.Block) error {
	if len(blocks) == 0 {
		return fmt.Errorf("%w: empty chain", ErrInvalidChain)
	}

	if !blocks[0].Equal(s.genesisBlock) {
		return ErrGenesisMismatch
	}

	for i := 1; i < len(blocks); i++ {
		if blocks[i].Index != uint64(i) {
			return fmt.Errorf("%w: blk[%d] stored at position %d", ErrInvalidChain, blocks[i].Index, i)
		}

		if err := blocks[i].ValidateStructure(); err != nil {
			return fmt.Errorf("%w: blk[%d]: %w", ErrInvalidChain, i, err)
		}

		if err := blocks[i].ValidateLink(blocks[i-1]); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidChain, err)
		}

		if !database.HashMeetsDifficulty(blocks[i].Hash, blocks[i].Difficulty) {
			return fmt.Errorf("%w: blk[%d]: hash does not meet difficulty %d", ErrInvalidChain, i, blocks[i].Difficulty)
		}
	}

	return nil
}

// rewriteStorage resets the storage and writes every block. Callers must
// hold the lock.
func (s *State) rewriteStorage(blocks []database.Block) error {
	if err := s.storage.Reset(); err != nil {
		return err
	}

	for _, block := range blocks {
		if err := s.storage.Write(block); err != nil {
			return err
		}
	}

	return nil
}
