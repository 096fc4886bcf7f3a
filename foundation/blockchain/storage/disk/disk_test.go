package disk_test

import (
	"testing"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/genesis"
	"github.com/aurumchain/aurum/foundation/blockchain/storage/disk"
	"github.com/stretchr/testify/require"
)

func chain(n int) []database.Block {
	g := genesis.Default()
	blocks := []database.Block{database.GenesisBlock(g)}

	for i := 1; i < n; i++ {
		prev := blocks[i-1]
		b := database.NewBlock(uint64(i), prev.Timestamp+1000, nil, prev.Hash, 0, "", database.NewAmount(50))
		blocks = append(blocks, b)
	}

	return blocks
}

func readAll(t *testing.T, s database.Storage) []database.Block {
	t.Helper()

	var blocks []database.Block
	iter := s.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		require.NoError(t, err)
		blocks = append(blocks, block)
	}

	return blocks
}

func TestWriteRead(t *testing.T) {
	d, err := disk.New(t.TempDir())
	require.NoError(t, err)
	defer d.Close()

	blocks := chain(4)
	for _, b := range blocks {
		require.NoError(t, d.Write(b))
	}

	got := readAll(t, d)
	require.Len(t, got, len(blocks))
	for i := range blocks {
		require.True(t, blocks[i].Equal(got[i]), "block %d", i)
	}

	b, err := d.GetBlock(2)
	require.NoError(t, err)
	require.Equal(t, blocks[2].Hash, b.Hash)

	_, err = d.GetBlock(10)
	require.Error(t, err)
}

func TestOutOfOrder(t *testing.T) {
	d, err := disk.New(t.TempDir())
	require.NoError(t, err)
	defer d.Close()

	blocks := chain(3)
	require.ErrorIs(t, d.Write(blocks[1]), database.ErrBlockOutOfOrder)
	require.NoError(t, d.Write(blocks[0]))
	require.ErrorIs(t, d.Write(blocks[2]), database.ErrBlockOutOfOrder)
}

func TestReset(t *testing.T) {
	dir := t.TempDir()

	d, err := disk.New(dir)
	require.NoError(t, err)

	for _, b := range chain(3) {
		require.NoError(t, d.Write(b))
	}

	require.NoError(t, d.Reset())
	require.Empty(t, readAll(t, d))

	require.NoError(t, d.Write(chain(1)[0]))
	require.Len(t, readAll(t, d), 1)
	require.NoError(t, d.Close())

	// The cleared blocks stay gone after reopening.
	d, err = disk.New(dir)
	require.NoError(t, err)
	defer d.Close()

	require.Len(t, readAll(t, d), 1)
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()

	d, err := disk.New(dir)
	require.NoError(t, err)

	blocks := chain(3)
	for _, b := range blocks {
		require.NoError(t, d.Write(b))
	}
	require.NoError(t, d.Close())

	d, err = disk.New(dir)
	require.NoError(t, err)
	defer d.Close()

	require.Len(t, readAll(t, d), 3)

	next := database.NewBlock(3, blocks[2].Timestamp+1000, nil, blocks[2].Hash, 0, "", database.NewAmount(50))
	require.NoError(t, d.Write(next))
	require.Len(t, readAll(t, d), 4)
}
