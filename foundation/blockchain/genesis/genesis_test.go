package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aurumchain/aurum/foundation/blockchain/genesis"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("overrides", func(t *testing.T) {
		path := filepath.Join(dir, "genesis.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"difficulty": 2, "mining_reward": "12.5"}`), 0600))

		g, err := genesis.Load(path)
		require.NoError(t, err)
		require.Equal(t, uint(2), g.Difficulty)
		require.Equal(t, "12.5", g.MiningReward.String())

		def := genesis.Default()
		require.Equal(t, def.HalvingInterval, g.HalvingInterval)
		require.Equal(t, def.Timestamp(), g.Timestamp())
	})

	t.Run("invalid", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"adjustment_interval": 0}`), 0600))

		_, err := genesis.Load(path)
		require.Error(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := genesis.Load(filepath.Join(dir, "nope.json"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestDefault(t *testing.T) {
	g := genesis.Default()
	require.NoError(t, g.Validate())
	require.Equal(t, uint(genesis.DefaultDifficulty), g.Difficulty)
	require.Equal(t, uint64(genesis.DefaultMinPoSChainLength), g.MinPoSChainLength)
}
