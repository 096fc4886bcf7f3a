package state_test

import (
	"context"
	"crypto/ecdsa"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/genesis"
	"github.com/aurumchain/aurum/foundation/blockchain/mempool"
	"github.com/aurumchain/aurum/foundation/blockchain/signature"
	"github.com/aurumchain/aurum/foundation/blockchain/state"
	"github.com/aurumchain/aurum/foundation/blockchain/storage/disk"
	"github.com/aurumchain/aurum/foundation/blockchain/storage/memory"
	"github.com/stretchr/testify/require"
)

// clock hands out timestamps that advance by a fixed step on every call.
type clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newClock(step time.Duration) *clock {
	return &clock{now: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), step: step}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(c.step)
	return c.now
}

type fixed float64

func (f fixed) Float64() float64 { return float64(f) }

type account struct {
	key  *ecdsa.PrivateKey
	addr database.Address
}

func newAccount(t *testing.T) account {
	t.Helper()

	pk, err := signature.GenerateKey()
	require.NoError(t, err)

	return account{key: pk, addr: database.Address(signature.PublicKeyToAddress(&pk.PublicKey))}
}

func testGenesis() genesis.Genesis {
	g := genesis.Default()
	g.Difficulty = 1
	return g
}

func newState(t *testing.T, g genesis.Genesis, cfgs ...func(cfg *state.Config)) *state.State {
	t.Helper()

	strg, err := memory.New()
	require.NoError(t, err)

	cfg := state.Config{
		Genesis:   g,
		Storage:   strg,
		EvHandler: func(v string, args ...any) { t.Logf(v, args...) },
		Now:       newClock(time.Second).Now,
	}
	for _, f := range cfgs {
		f(&cfg)
	}

	st, err := state.New(cfg)
	require.NoError(t, err)

	return st
}

func mine(t *testing.T, st *state.State, producer database.Address) database.Block {
	t.Helper()

	block, err := st.MinePendingTransactions(context.Background(), producer)
	require.NoError(t, err)

	return block
}

func transfer(t *testing.T, from account, to database.Address, amount int64) database.Transaction {
	t.Helper()

	tx := database.NewTransaction(from.addr, to, database.NewAmount(amount))
	require.NoError(t, tx.Sign(from.key))

	return tx
}

// =============================================================================

func TestGenesisChain(t *testing.T) {
	g := testGenesis()
	st := newState(t, g)

	require.Equal(t, 1, st.Length())
	require.True(t, st.IsChainValid())
	require.True(t, st.LatestBlock().Equal(database.GenesisBlock(g)))
	require.Equal(t, g.Difficulty, st.Difficulty())
	require.True(t, st.Reward().Equal(database.NewAmount(50)))
}

func TestRewardOnlyBlock(t *testing.T) {
	st := newState(t, genesis.Default())
	x := newAccount(t)

	block := mine(t, st, x.addr)

	require.Len(t, block.Transactions, 1)
	require.True(t, block.Transactions[0].IsReward())
	require.Equal(t, x.addr, block.Transactions[0].To)
	require.Equal(t, 2, st.Length())
	require.True(t, st.BalanceOf(x.addr).Equal(st.Reward()))
	require.True(t, strings.HasPrefix(block.Hash, "0000"))
	require.True(t, st.IsChainValid())
}

func TestMiningDifficulty(t *testing.T) {
	for d := uint(0); d <= 4; d++ {
		g := genesis.Default()
		g.Difficulty = d

		st := newState(t, g)
		block := mine(t, st, newAccount(t).addr)

		require.True(t, strings.HasPrefix(block.Hash, strings.Repeat("0", int(d))))
		require.Equal(t, block.CalculateHash(), block.Hash)
		require.Equal(t, d, st.Difficulty())
	}
}

func TestAddTransaction(t *testing.T) {
	st := newState(t, testGenesis())
	a := newAccount(t)
	b := newAccount(t)

	mine(t, st, a.addr)

	t.Run("zero amount", func(t *testing.T) {
		require.ErrorIs(t, st.AddTransaction(transfer(t, a, b.addr, 0)), state.ErrInvalidAmount)
	})

	t.Run("negative amount", func(t *testing.T) {
		require.ErrorIs(t, st.AddTransaction(transfer(t, a, b.addr, -5)), state.ErrInvalidAmount)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		require.ErrorIs(t, st.AddTransaction(transfer(t, b, a.addr, 1)), state.ErrInsufficientBalance)
	})

	t.Run("missing addresses", func(t *testing.T) {
		require.ErrorIs(t, st.AddTransaction(database.NewTransaction("", "", database.NewAmount(1))), state.ErrMissingAddresses)
	})

	t.Run("reward", func(t *testing.T) {
		tx := database.NewRewardTransaction(b.addr, database.NewAmount(1000))
		require.NoError(t, st.AddTransaction(tx))
	})

	t.Run("no recipient", func(t *testing.T) {
		require.NoError(t, st.AddTransaction(transfer(t, a, "", 1)))
	})

	t.Run("missing signature", func(t *testing.T) {
		tx := database.NewTransaction(a.addr, b.addr, database.NewAmount(1))
		require.ErrorIs(t, st.AddTransaction(tx), database.ErrMissingSignature)
	})

	t.Run("forged signature", func(t *testing.T) {
		tx := transfer(t, b, a.addr, 1)
		tx.From = a.addr
		require.ErrorIs(t, st.AddTransaction(tx), state.ErrInvalidSignature)
	})

	t.Run("forged id", func(t *testing.T) {
		tx := transfer(t, a, b.addr, 1)
		tx.ID = signature.ZeroHash
		require.ErrorIs(t, st.AddTransaction(tx), state.ErrInvalidTransactionID)
	})

	t.Run("duplicate", func(t *testing.T) {
		tx := transfer(t, a, b.addr, 1)
		require.NoError(t, st.AddTransaction(tx))
		require.ErrorIs(t, st.AddTransaction(tx), mempool.ErrDuplicateTransaction)
	})

	require.Equal(t, 3, st.PendingCount())
}

func TestBalances(t *testing.T) {
	st := newState(t, testGenesis())
	a := newAccount(t)
	b := newAccount(t)
	c := newAccount(t)

	mine(t, st, a.addr)
	require.True(t, st.BalanceOf(a.addr).Equal(database.NewAmount(50)))

	tx := transfer(t, a, b.addr, 20)
	require.NoError(t, st.AddTransaction(tx))

	// Pending transactions do not move balances.
	require.True(t, st.BalanceOf(a.addr).Equal(database.NewAmount(50)))
	require.True(t, st.BalanceOf(b.addr).IsZero())

	block := mine(t, st, c.addr)
	require.Len(t, block.Transactions, 2)
	require.True(t, block.Transactions[1].IsReward())
	require.Equal(t, 0, st.PendingCount())

	require.True(t, st.BalanceOf(a.addr).Equal(database.NewAmount(30)))
	require.True(t, st.BalanceOf(b.addr).Equal(database.NewAmount(20)))
	require.True(t, st.BalanceOf(c.addr).Equal(database.NewAmount(50)))
	require.True(t, st.BalanceOf(newAccount(t).addr).IsZero())

	require.Len(t, st.TransactionsFor(a.addr), 2)
	require.Len(t, st.TransactionsFor(b.addr), 1)

	got, index, ok := st.TransactionByID(tx.ID)
	require.True(t, ok)
	require.Equal(t, uint64(2), index)
	require.Equal(t, tx.ID, got.ID)

	// A committed transaction can't be replayed.
	require.ErrorIs(t, st.AddTransaction(tx), state.ErrAlreadyCommitted)

	require.True(t, st.IsChainValid())
}

func TestPendingDoubleSpend(t *testing.T) {
	st := newState(t, testGenesis())
	a := newAccount(t)
	b := newAccount(t)

	mine(t, st, a.addr)

	// Each transaction passes the point in time balance check on its own.
	require.NoError(t, st.AddTransaction(transfer(t, a, b.addr, 40)))
	require.NoError(t, st.AddTransaction(transfer(t, a, b.addr, 30)))
	require.Equal(t, 2, st.PendingCount())
}

func TestDifficultyUnchangedBetweenIntervals(t *testing.T) {
	st := newState(t, testGenesis())
	x := newAccount(t)

	mine(t, st, x.addr)
	mine(t, st, x.addr)

	require.Equal(t, uint(1), st.Difficulty())
}

func TestDifficultyAdjustment(t *testing.T) {
	t.Run("fast blocks", func(t *testing.T) {
		g := testGenesis()
		g.AdjustmentInterval = 3

		st := newState(t, g)
		x := newAccount(t)

		mine(t, st, x.addr)
		require.Equal(t, uint(1), st.Difficulty())

		mine(t, st, x.addr)
		require.Equal(t, 3, st.Length())
		require.Equal(t, uint(2), st.Difficulty())
	})

	t.Run("slow blocks", func(t *testing.T) {
		g := testGenesis()
		g.Difficulty = 2
		g.AdjustmentInterval = 3

		st := newState(t, g, func(cfg *state.Config) {
			cfg.Now = newClock(30 * time.Minute).Now
		})
		x := newAccount(t)

		mine(t, st, x.addr)
		mine(t, st, x.addr)
		require.Equal(t, uint(1), st.Difficulty())

		mine(t, st, x.addr)
		mine(t, st, x.addr)
		mine(t, st, x.addr)
		require.Equal(t, 6, st.Length())
		require.Equal(t, uint(1), st.Difficulty())
	})

	t.Run("on target", func(t *testing.T) {
		g := testGenesis()
		g.AdjustmentInterval = 3

		st := newState(t, g, func(cfg *state.Config) {
			cfg.Now = newClock(10 * time.Minute).Now
		})
		x := newAccount(t)

		mine(t, st, x.addr)
		mine(t, st, x.addr)
		require.Equal(t, uint(1), st.Difficulty())
	})
}

func TestRewardHalving(t *testing.T) {
	g := testGenesis()
	g.HalvingInterval = 3

	st := newState(t, g)
	x := newAccount(t)

	mine(t, st, x.addr)
	require.True(t, st.Reward().Equal(database.NewAmount(50)))

	mine(t, st, x.addr)
	require.True(t, st.Reward().Equal(database.NewAmount(25)))

	block := mine(t, st, x.addr)
	require.True(t, block.Reward.Equal(database.NewAmount(25)))
	require.True(t, st.BalanceOf(x.addr).Equal(database.NewAmount(125)))
}

func TestMineCancelled(t *testing.T) {
	g := genesis.Default()
	g.Difficulty = 64

	st := newState(t, g)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := st.MinePendingTransactions(ctx, newAccount(t).addr)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1, st.Length())
}

func TestMineChainChanged(t *testing.T) {
	g := testGenesis()
	x := newAccount(t)

	peer := newState(t, g)
	mine(t, peer, x.addr)
	mine(t, peer, x.addr)

	// Replace the chain once the proof of work has started on the old tip.
	var st *state.State
	var once sync.Once
	st = newState(t, g, func(cfg *state.Config) {
		cfg.EvHandler = func(v string, args ...any) {
			if strings.HasPrefix(v, "database: Mine: MINING: started") {
				once.Do(func() {
					require.NoError(t, st.ReplaceChain(peer.Chain()))
				})
			}
		}
	})

	_, err := st.MinePendingTransactions(context.Background(), x.addr)
	require.ErrorIs(t, err, state.ErrChainChanged)
	require.Equal(t, 3, st.Length())
	require.Equal(t, peer.LatestBlock().Hash, st.LatestBlock().Hash)
}

func TestForge(t *testing.T) {
	st := newState(t, testGenesis())
	x := newAccount(t)

	block, err := st.ForgePendingTransactions(x.addr)
	require.NoError(t, err)
	require.Equal(t, uint(0), block.Difficulty)
	require.Equal(t, uint64(0), block.Nonce)
	require.Equal(t, block.CalculateHash(), block.Hash)
	require.Equal(t, 2, st.Length())
	require.True(t, st.IsChainValid())
	require.True(t, st.BalanceOf(x.addr).Equal(database.NewAmount(50)))
}

// =============================================================================

func TestReplaceChain(t *testing.T) {
	g := testGenesis()
	x := newAccount(t)
	y := newAccount(t)

	st := newState(t, g)
	mine(t, st, x.addr)

	longer := newState(t, g)
	mine(t, longer, y.addr)
	mine(t, longer, y.addr)
	mine(t, longer, y.addr)

	t.Run("shorter", func(t *testing.T) {
		before := st.Chain()
		require.ErrorIs(t, st.ReplaceChain(longer.Chain()[:2]), state.ErrChainTooShort)
		require.Equal(t, before, st.Chain())
	})

	t.Run("tampered", func(t *testing.T) {
		before := st.Chain()

		candidate := longer.Chain()
		candidate[2].Transactions = append([]database.Transaction(nil), candidate[2].Transactions...)
		candidate[2].Transactions[0].Amount = database.NewAmount(1_000_000)

		require.ErrorIs(t, st.ReplaceChain(candidate), state.ErrInvalidChain)
		require.Equal(t, before, st.Chain())

		// Rejecting again leaves everything unchanged.
		require.ErrorIs(t, st.ReplaceChain(candidate), state.ErrInvalidChain)
		require.Equal(t, before, st.Chain())
	})

	t.Run("broken link", func(t *testing.T) {
		candidate := longer.Chain()
		candidate[3].PreviousHash = signature.ZeroHash
		candidate[3].Hash = candidate[3].CalculateHash()

		require.ErrorIs(t, st.ReplaceChain(candidate), state.ErrInvalidChain)
		require.Equal(t, 2, st.Length())
	})

	t.Run("genesis mismatch", func(t *testing.T) {
		other := g
		other.Date = other.Date.Add(time.Hour)

		foreign := newState(t, other)
		mine(t, foreign, y.addr)
		mine(t, foreign, y.addr)
		mine(t, foreign, y.addr)

		require.ErrorIs(t, st.ReplaceChain(foreign.Chain()), state.ErrGenesisMismatch)
		require.Equal(t, 2, st.Length())
	})

	t.Run("zero work", func(t *testing.T) {
		candidate := st.Chain()
		for i := 0; i < 2; i++ {
			prev := candidate[len(candidate)-1]
			reward := database.NewRewardTransaction(y.addr, database.NewAmount(1_000_000))

			blk := database.NewBlock(prev.Index+1, prev.Timestamp+1000, []database.Transaction{reward}, prev.Hash, 4, y.addr, database.NewAmount(1_000_000))
			for database.HashMeetsDifficulty(blk.Hash, blk.Difficulty) {
				blk.Nonce++
				blk.Hash = blk.CalculateHash()
			}
			candidate = append(candidate, blk)
		}

		require.ErrorIs(t, st.ReplaceChain(candidate), state.ErrInvalidChain)
		require.ErrorIs(t, st.ValidateChain(candidate), state.ErrInvalidChain)
		require.Equal(t, 2, st.Length())
		require.True(t, st.BalanceOf(y.addr).IsZero())
	})

	t.Run("longer and valid", func(t *testing.T) {
		require.NoError(t, st.ReplaceChain(longer.Chain()))
		require.Equal(t, 4, st.Length())
		require.Equal(t, longer.LatestBlock().Hash, st.LatestBlock().Hash)
		require.True(t, st.BalanceOf(x.addr).IsZero())
		require.True(t, st.BalanceOf(y.addr).Equal(database.NewAmount(150)))
		require.True(t, st.IsChainValid())
	})
}

func TestReplaceChainDropsMinedTransactions(t *testing.T) {
	g := testGenesis()
	a := newAccount(t)
	b := newAccount(t)

	peer := newState(t, g)
	mine(t, peer, a.addr)

	st := newState(t, g)
	require.NoError(t, st.ReplaceChain(peer.Chain()))

	tx := transfer(t, a, b.addr, 10)
	require.NoError(t, st.AddTransaction(tx))
	require.NoError(t, peer.AddTransaction(tx))
	mine(t, peer, a.addr)

	require.NoError(t, st.ReplaceChain(peer.Chain()))
	require.Equal(t, 0, st.PendingCount())
	require.True(t, st.BalanceOf(b.addr).Equal(database.NewAmount(10)))
}

func TestAcceptBlock(t *testing.T) {
	g := testGenesis()
	x := newAccount(t)

	st := newState(t, g)
	peer := newState(t, g)

	b1 := mine(t, peer, x.addr)
	b2 := mine(t, peer, x.addr)

	require.ErrorIs(t, st.AcceptBlock(b2), state.ErrNotNextBlock)
	require.NoError(t, st.AcceptBlock(b1))
	require.NoError(t, st.AcceptBlock(b2))
	require.Equal(t, 3, st.Length())
	require.True(t, st.BalanceOf(x.addr).Equal(database.NewAmount(100)))

	bad := mine(t, peer, x.addr)
	bad.Nonce++
	require.ErrorIs(t, st.AcceptBlock(bad), state.ErrInvalidChain)
	require.Equal(t, 3, st.Length())
}

// =============================================================================

func TestStaking(t *testing.T) {
	g := testGenesis()
	g.MinPoSChainLength = 4

	a := newAccount(t)
	b := newAccount(t)

	st := newState(t, g, func(cfg *state.Config) {
		cfg.Rand = fixed(0.99)
	})

	_, err := st.CreateStakeTransaction(a.key, database.NewAmount(10))
	require.ErrorIs(t, err, state.ErrInsufficientBalance)
	require.Empty(t, st.Stakes())

	mine(t, st, a.addr)
	mine(t, st, b.addr)

	_, err = st.CreateStakeTransaction(a.key, database.NewAmount(10))
	require.NoError(t, err)
	_, err = st.CreateStakeTransaction(b.key, database.NewAmount(40))
	require.NoError(t, err)

	require.True(t, st.StakeOf(a.addr).Equal(database.NewAmount(10)))
	require.True(t, st.StakeOf(b.addr).Equal(database.NewAmount(40)))

	_, ok := st.SelectNextStaker()
	require.False(t, ok, "staking is not enabled")

	require.False(t, st.SwitchToProofOfStake())
	require.False(t, st.StakingEnabled())

	mine(t, st, a.addr)
	require.Equal(t, 4, st.Length())
	require.True(t, st.BalanceOf(database.StakingAddress).Equal(database.NewAmount(50)))

	require.True(t, st.SwitchToProofOfStake())
	require.True(t, st.SwitchToProofOfStake())
	require.True(t, st.StakingEnabled())

	addr, ok := st.SelectNextStaker()
	require.True(t, ok)
	require.Equal(t, b.addr, addr)

	// Committed stake is registered once.
	require.True(t, st.StakeOf(a.addr).Equal(database.NewAmount(10)))
	require.Len(t, st.Stakes(), 2)

	tx := transfer(t, a, b.addr, 1)
	require.Error(t, st.Stake(tx))
}

func TestReload(t *testing.T) {
	g := testGenesis()
	g.AdjustmentInterval = 3
	dir := t.TempDir()

	a := newAccount(t)

	open := func() *state.State {
		strg, err := disk.New(dir)
		require.NoError(t, err)

		st, err := state.New(state.Config{
			Genesis: g,
			Storage: strg,
			Now:     newClock(time.Second).Now,
		})
		require.NoError(t, err)
		return st
	}

	st := open()
	mine(t, st, a.addr)
	_, err := st.CreateStakeTransaction(a.key, database.NewAmount(5))
	require.NoError(t, err)
	mine(t, st, a.addr)

	chain := st.Chain()
	difficulty := st.Difficulty()
	require.NoError(t, st.Shutdown())

	st = open()
	defer st.Shutdown()

	require.Equal(t, len(chain), st.Length())
	require.Equal(t, chain[len(chain)-1].Hash, st.LatestBlock().Hash)
	require.Equal(t, difficulty, st.Difficulty())
	require.True(t, st.StakeOf(a.addr).Equal(database.NewAmount(5)))
	require.True(t, st.BalanceOf(a.addr).Equal(database.NewAmount(95)))
}

func TestReplaceChainOnDisk(t *testing.T) {
	g := testGenesis()
	dir := t.TempDir()

	x := newAccount(t)
	y := newAccount(t)

	open := func() *state.State {
		strg, err := disk.New(dir)
		require.NoError(t, err)

		st, err := state.New(state.Config{
			Genesis: g,
			Storage: strg,
			Now:     newClock(time.Second).Now,
		})
		require.NoError(t, err)
		return st
	}

	st := open()
	mine(t, st, x.addr)

	peer := newState(t, g)
	mine(t, peer, y.addr)
	mine(t, peer, y.addr)
	mine(t, peer, y.addr)

	require.NoError(t, st.ReplaceChain(peer.Chain()))
	require.Equal(t, 4, st.Length())
	require.NoError(t, st.Shutdown())

	st = open()
	defer st.Shutdown()

	require.Equal(t, 4, st.Length())
	require.Equal(t, peer.LatestBlock().Hash, st.LatestBlock().Hash)
	require.True(t, st.BalanceOf(x.addr).IsZero())
	require.True(t, st.IsChainValid())
}
