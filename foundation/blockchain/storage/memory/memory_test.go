package memory_test

import (
	"testing"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/genesis"
	"github.com/aurumchain/aurum/foundation/blockchain/storage/memory"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	m, err := memory.New()
	require.NoError(t, err)

	g := database.GenesisBlock(genesis.Default())
	next := database.NewBlock(1, g.Timestamp+1000, nil, g.Hash, 0, "", database.NewAmount(50))

	require.ErrorIs(t, m.Write(next), database.ErrBlockOutOfOrder)
	require.NoError(t, m.Write(g))
	require.NoError(t, m.Write(next))

	var hashes []string
	iter := m.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		require.NoError(t, err)
		hashes = append(hashes, block.Hash)
	}
	require.Equal(t, []string{g.Hash, next.Hash}, hashes)

	require.NoError(t, m.Reset())
	_, err = m.GetBlock(0)
	require.Error(t, err)
}
