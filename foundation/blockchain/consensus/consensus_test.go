package consensus_test

import (
	"testing"

	"github.com/aurumchain/aurum/foundation/blockchain/consensus"
	"github.com/stretchr/testify/require"
)

type fixed float64

func (f fixed) Float64() float64 { return float64(f) }

func TestRetrieve(t *testing.T) {
	_, err := consensus.Retrieve("vrf", nil)
	require.Error(t, err)

	for _, name := range []string{consensus.StrategyCoinFlip, consensus.StrategyWork, consensus.StrategyStake} {
		sel, err := consensus.Retrieve(name, nil)
		require.NoError(t, err)
		require.Equal(t, consensus.ProofOfWork, sel(false), name)
	}
}

func TestCoinFlip(t *testing.T) {
	heads, err := consensus.Retrieve(consensus.StrategyCoinFlip, fixed(0.2))
	require.NoError(t, err)
	require.Equal(t, consensus.ProofOfStake, heads(true))
	require.Equal(t, consensus.ProofOfWork, heads(false))

	tails, err := consensus.Retrieve(consensus.StrategyCoinFlip, fixed(0.7))
	require.NoError(t, err)
	require.Equal(t, consensus.ProofOfWork, tails(true))
}

func TestCoinFlipDistribution(t *testing.T) {
	sel, err := consensus.Retrieve(consensus.StrategyCoinFlip, consensus.NewSource(7))
	require.NoError(t, err)

	const rounds = 10000
	var stake int
	for range rounds {
		if sel(true) == consensus.ProofOfStake {
			stake++
		}
	}

	require.InDelta(t, 0.5, float64(stake)/rounds, 0.03)
}

func TestFixedStrategies(t *testing.T) {
	work, err := consensus.Retrieve(consensus.StrategyWork, nil)
	require.NoError(t, err)
	require.Equal(t, consensus.ProofOfWork, work(true))

	stake, err := consensus.Retrieve(consensus.StrategyStake, nil)
	require.NoError(t, err)
	require.Equal(t, consensus.ProofOfStake, stake(true))
}
