// Package genesis maintains access to the genesis file and the consensus
// parameters every node on the network must agree on.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// Default consensus parameters.
const (
	DefaultDifficulty         = 4
	DefaultMiningReward       = 50
	DefaultAdjustmentInterval = 100
	DefaultHalvingInterval    = 210000
	DefaultTargetBlockTime    = 600
	DefaultMinPoSChainLength  = 1000
)

// defaultDate is the fixed timestamp of the canonical genesis block.
var defaultDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Genesis represents the genesis file.
type Genesis struct {
	Date               time.Time       `json:"date"`
	Difficulty         uint            `json:"difficulty"`           // Leading zero hex digits required for the work problem.
	MiningReward       decimal.Decimal `json:"mining_reward"`        // Reward for producing a block.
	AdjustmentInterval uint64          `json:"adjustment_interval"`  // Difficulty is revisited every this many blocks.
	HalvingInterval    uint64          `json:"halving_interval"`     // The reward is halved every this many blocks.
	TargetBlockTime    int64           `json:"target_block_time"`    // Seconds between blocks the difficulty steers towards.
	MinPoSChainLength  uint64          `json:"min_pos_chain_length"` // Chain length needed before proof of stake can start.
}

// Default returns the consensus parameters used when no genesis file is
// provided.
func Default() Genesis {
	return Genesis{
		Date:               defaultDate,
		Difficulty:         DefaultDifficulty,
		MiningReward:       decimal.NewFromInt(DefaultMiningReward),
		AdjustmentInterval: DefaultAdjustmentInterval,
		HalvingInterval:    DefaultHalvingInterval,
		TargetBlockTime:    DefaultTargetBlockTime,
		MinPoSChainLength:  DefaultMinPoSChainLength,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Fields missing from the file keep
// their default value.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis: %w", err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the parameters are usable.
func (g Genesis) Validate() error {
	switch {
	case g.Date.IsZero():
		return fmt.Errorf("genesis date is required")
	case g.MiningReward.IsNegative():
		return fmt.Errorf("mining reward can't be negative")
	case g.AdjustmentInterval == 0:
		return fmt.Errorf("adjustment interval must be positive")
	case g.HalvingInterval == 0:
		return fmt.Errorf("halving interval must be positive")
	case g.TargetBlockTime <= 0:
		return fmt.Errorf("target block time must be positive")
	}

	return nil
}

// Timestamp returns the genesis date in unix milliseconds.
func (g Genesis) Timestamp() int64 {
	return g.Date.UnixMilli()
}
