package state

import (
	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/stake"
)

// SelectNextStaker draws the producer of the next proof of stake block
// weighted by stake. It reports false when staking is not enabled or nobody
// has staked.
func (s *State) SelectNextStaker() (database.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stakingEnabled {
		return "", false
	}

	return s.stakes.Select(s.rand)
}

// SwitchToProofOfStake enables proof of stake once the chain is long enough.
// The switch is one way. It reports whether staking is enabled afterwards.
func (s *State) SwitchToProofOfStake() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stakingEnabled {
		return true
	}

	if uint64(len(s.chain)) < s.genesis.MinPoSChainLength {
		s.evHandler("state: SwitchToProofOfStake: chain too short: length[%d]: required[%d]", len(s.chain), s.genesis.MinPoSChainLength)
		return false
	}

	s.stakingEnabled = true
	s.evHandler("state: SwitchToProofOfStake: switched to proof of stake")

	return true
}

// StakingEnabled reports whether proof of stake has been enabled.
func (s *State) StakingEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stakingEnabled
}

// Stakes returns a copy of the stake registry in insertion order.
func (s *State) Stakes() []stake.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stakes.Entries()
}

// StakeOf returns the amount staked by the address.
func (s *State) StakeOf(addr database.Address) database.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stakes.Of(addr)
}
