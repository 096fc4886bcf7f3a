// Package consensus provides the strategies deciding, per block, whether the
// next block is produced by proof of work or proof of stake.
package consensus

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Mode identifies how the next block is produced.
type Mode string

// Set of modes a block can be produced with.
const (
	ProofOfWork  Mode = "POW"
	ProofOfStake Mode = "POS"
)

// List of the different consensus strategies.
const (
	StrategyCoinFlip = "coinflip"
	StrategyWork     = "work"
	StrategyStake    = "stake"
)

// Source provides uniform random numbers in [0,1).
type Source interface {
	Float64() float64
}

// Selector decides the mode for the next block. Proof of stake can only be
// chosen once staking has been enabled on the chain.
type Selector func(stakingEnabled bool) Mode

// Map of the different strategies with their constructors.
var strategies = map[string]func(src Source) Selector{
	StrategyCoinFlip: coinFlip,
	StrategyWork:     alwaysWork,
	StrategyStake:    preferStake,
}

// Retrieve returns the specified selector. A nil source is replaced by a
// time seeded source.
func Retrieve(strategy string, src Source) (Selector, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}

	if src == nil {
		src = NewSource(time.Now().UnixNano())
	}

	return fn(src), nil
}

// =============================================================================

// coinFlip picks proof of stake half of the time once staking is enabled.
func coinFlip(src Source) Selector {
	return func(stakingEnabled bool) Mode {
		if stakingEnabled && src.Float64() < 0.5 {
			return ProofOfStake
		}
		return ProofOfWork
	}
}

// alwaysWork never leaves proof of work.
func alwaysWork(Source) Selector {
	return func(bool) Mode {
		return ProofOfWork
	}
}

// preferStake uses proof of stake whenever it is enabled.
func preferStake(Source) Selector {
	return func(stakingEnabled bool) Mode {
		if stakingEnabled {
			return ProofOfStake
		}
		return ProofOfWork
	}
}

// =============================================================================

// LockedSource is a math/rand source that is safe for concurrent use.
type LockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSource constructs a seeded source that is safe for concurrent use.
func NewSource(seed int64) *LockedSource {
	return &LockedSource{
		rnd: rand.New(rand.NewSource(seed)),
	}
}

// Float64 returns a number in [0,1).
func (s *LockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rnd.Float64()
}
