package stake_test

import (
	"math/rand"
	"testing"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/stake"
	"github.com/stretchr/testify/require"
)

type fixed float64

func (f fixed) Float64() float64 { return float64(f) }

func TestRegistry(t *testing.T) {
	r := stake.New()

	_, ok := r.Select(fixed(0.5))
	require.False(t, ok)

	r.Add("A", database.NewAmount(10))
	r.Add("B", database.NewAmount(90))
	r.Add("A", database.NewAmount(5))

	require.Equal(t, 2, r.Len())
	require.True(t, r.Of("A").Equal(database.NewAmount(15)))
	require.True(t, r.Of("C").IsZero())
	require.True(t, r.Total().Equal(database.NewAmount(105)))

	entries := r.Entries()
	require.Equal(t, database.Address("A"), entries[0].Address)
	require.Equal(t, database.Address("B"), entries[1].Address)
}

func TestSelectBoundaries(t *testing.T) {
	r := stake.New()
	r.Add("A", database.NewAmount(10))
	r.Add("B", database.NewAmount(90))

	tt := []struct {
		draw float64
		exp  database.Address
	}{
		{0, "A"},
		{0.05, "A"},
		{0.1, "A"},
		{0.11, "B"},
		{0.999, "B"},
	}

	for _, tst := range tt {
		addr, ok := r.Select(fixed(tst.draw))
		require.True(t, ok)
		require.Equal(t, tst.exp, addr, "draw %v", tst.draw)
	}
}

func TestSelectDistribution(t *testing.T) {
	r := stake.New()
	r.Add("A", database.NewAmount(10))
	r.Add("B", database.NewAmount(90))

	src := rand.New(rand.NewSource(42))

	const draws = 20000
	var b int
	for range draws {
		addr, ok := r.Select(src)
		require.True(t, ok)
		if addr == "B" {
			b++
		}
	}

	freq := float64(b) / draws
	require.InDelta(t, 0.9, freq, 0.02)
}
