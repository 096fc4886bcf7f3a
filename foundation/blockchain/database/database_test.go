package database_test

import (
	"context"
	"crypto/ecdsa"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/genesis"
	"github.com/aurumchain/aurum/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

func account(t *testing.T) (*ecdsa.PrivateKey, database.Address) {
	t.Helper()

	pk, err := crypto.HexToECDSA(pkHexKey)
	require.NoError(t, err)

	return pk, database.Address(signature.PublicKeyToAddress(&pk.PublicKey))
}

func otherAccount(t *testing.T) database.Address {
	t.Helper()

	pk, err := signature.GenerateKey()
	require.NoError(t, err)

	return database.Address(signature.PublicKeyToAddress(&pk.PublicKey))
}

// =============================================================================

func TestTransactionID(t *testing.T) {
	_, from := account(t)
	to := otherAccount(t)

	tx := database.NewTransaction(from, to, database.NewAmount(10))

	exp := signature.Hash(string(from) + string(to) + "10" + strconv.FormatInt(tx.Timestamp, 10))
	require.Equal(t, exp, tx.ID)
	require.Equal(t, tx.ID, tx.CalculateHash())
	require.Empty(t, tx.Signature)
}

func TestTransactionSigning(t *testing.T) {
	pk, from := account(t)
	to := otherAccount(t)

	tx := database.NewTransaction(from, to, database.NewAmount(10))

	_, err := tx.IsValid()
	require.ErrorIs(t, err, database.ErrMissingSignature)

	require.NoError(t, tx.Sign(pk))

	ok, err := tx.IsValid()
	require.NoError(t, err)
	require.True(t, ok)

	t.Run("tampered amount", func(t *testing.T) {
		bad := tx
		bad.Amount = database.NewAmount(1000)

		ok, err := bad.IsValid()
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("tampered recipient", func(t *testing.T) {
		bad := tx
		bad.To = otherAccount(t)

		ok, err := bad.IsValid()
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("garbage signature", func(t *testing.T) {
		bad := tx
		bad.Signature = "0xnothex"

		ok, err := bad.IsValid()
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := signature.GenerateKey()
		require.NoError(t, err)

		bad := database.NewTransaction(from, to, database.NewAmount(10))
		require.Error(t, bad.Sign(other))
	})
}

func TestRewardTransaction(t *testing.T) {
	pk, to := account(t)

	tx := database.NewRewardTransaction(to, database.NewAmount(50))
	require.True(t, tx.IsReward())

	ok, err := tx.IsValid()
	require.NoError(t, err)
	require.True(t, ok)

	require.ErrorIs(t, tx.Sign(pk), database.ErrRewardNotSignable)
}

// =============================================================================

func TestBlockHash(t *testing.T) {
	pk, from := account(t)
	to := otherAccount(t)

	tx := database.NewTransaction(from, to, database.NewAmount(5))
	require.NoError(t, tx.Sign(pk))

	txs := []database.Transaction{tx, database.NewRewardTransaction(from, database.NewAmount(50))}
	b := database.NewBlock(1, time.Now().UnixMilli(), txs, signature.ZeroHash, 2, from, database.NewAmount(50))

	require.Equal(t, uint64(0), b.Nonce)
	require.Equal(t, b.CalculateHash(), b.Hash)
	require.Equal(t, database.MerkleRoot(txs), b.MerkleRoot)

	b.Nonce = 7
	require.NotEqual(t, b.CalculateHash(), b.Hash)
}

func TestMine(t *testing.T) {
	_, producer := account(t)

	for difficulty := uint(0); difficulty <= 4; difficulty++ {
		t.Run(strconv.Itoa(int(difficulty)), func(t *testing.T) {
			txs := []database.Transaction{database.NewRewardTransaction(producer, database.NewAmount(50))}
			b := database.NewBlock(1, time.Now().UnixMilli(), txs, signature.ZeroHash, difficulty, producer, database.NewAmount(50))

			require.NoError(t, b.Mine(context.Background(), difficulty, nil))
			require.True(t, strings.HasPrefix(b.Hash, strings.Repeat("0", int(difficulty))))
			require.True(t, database.HashMeetsDifficulty(b.Hash, difficulty))
			require.Equal(t, b.CalculateHash(), b.Hash)
		})
	}
}

func TestMineCancel(t *testing.T) {
	_, producer := account(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := database.NewBlock(1, time.Now().UnixMilli(), nil, signature.ZeroHash, 64, producer, database.NewAmount(50))
	require.ErrorIs(t, b.Mine(ctx, 64, nil), context.Canceled)
}

func TestHashMeetsDifficulty(t *testing.T) {
	tt := []struct {
		hash       string
		difficulty uint
		exp        bool
	}{
		{"abc", 0, true},
		{"0abc", 1, true},
		{"00abc", 3, false},
		{"000", 3, true},
		{"00", 3, false},
	}

	for _, tst := range tt {
		require.Equal(t, tst.exp, database.HashMeetsDifficulty(tst.hash, tst.difficulty), tst.hash)
	}
}

func TestValidateLink(t *testing.T) {
	pk, from := account(t)
	to := otherAccount(t)

	parent := database.GenesisBlock(genesis.Default())

	tx := database.NewTransaction(from, to, database.NewAmount(5))
	require.NoError(t, tx.Sign(pk))

	b := database.NewBlock(1, time.Now().UnixMilli(), []database.Transaction{tx}, parent.Hash, 1, from, database.NewAmount(50))
	require.NoError(t, b.Mine(context.Background(), 1, nil))
	require.NoError(t, b.ValidateLink(parent))

	t.Run("wrong parent", func(t *testing.T) {
		bad := b
		bad.PreviousHash = signature.ZeroHash
		bad.Hash = bad.CalculateHash()
		require.Error(t, bad.ValidateLink(parent))
	})

	t.Run("stale hash", func(t *testing.T) {
		bad := b
		bad.Timestamp++
		require.Error(t, bad.ValidateLink(parent))
	})

	t.Run("invalid transaction", func(t *testing.T) {
		bad := b
		forged := tx
		forged.Amount = database.NewAmount(500)
		bad.Transactions = []database.Transaction{forged}
		bad.Hash = bad.CalculateHash()
		require.Error(t, bad.ValidateLink(parent))
	})
}

func TestValidateStructure(t *testing.T) {
	_, producer := account(t)

	parent := database.GenesisBlock(genesis.Default())
	require.NoError(t, parent.ValidateStructure())

	txs := []database.Transaction{database.NewRewardTransaction(producer, database.NewAmount(50))}
	b := database.NewBlock(1, time.Now().UnixMilli(), txs, parent.Hash, 0, producer, database.NewAmount(50))
	require.NoError(t, b.ValidateStructure())

	tt := map[string]func(b *database.Block){
		"bad hash":          func(b *database.Block) { b.Hash = "xyz" },
		"no previous hash":  func(b *database.Block) { b.PreviousHash = "" },
		"no timestamp":      func(b *database.Block) { b.Timestamp = 0 },
		"no transactions":   func(b *database.Block) { b.Transactions = nil },
		"wrong merkle root": func(b *database.Block) { b.MerkleRoot = signature.ZeroHash },
		"malformed tx":      func(b *database.Block) { b.Transactions = []database.Transaction{{}} },
	}

	for name, mutate := range tt {
		t.Run(name, func(t *testing.T) {
			bad := b
			mutate(&bad)
			require.Error(t, bad.ValidateStructure())
		})
	}
}

func TestGenesisBlock(t *testing.T) {
	g := genesis.Default()

	b1 := database.GenesisBlock(g)
	b2 := database.GenesisBlock(g)

	require.True(t, b1.Equal(b2))
	require.Equal(t, uint64(0), b1.Index)
	require.Equal(t, database.GenesisPreviousHash, b1.PreviousHash)
	require.Empty(t, b1.Transactions)
	require.Equal(t, g.Date.UnixMilli(), b1.Timestamp)
}

func TestAddress(t *testing.T) {
	_, addr := account(t)

	got, err := database.ToAddress(string(addr))
	require.NoError(t, err)
	require.Equal(t, addr, got)

	require.True(t, database.StakingAddress.IsAddress())
	require.True(t, database.Address("").IsSystem())

	_, err = database.ToAddress("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	require.Error(t, err)
}
