package commands_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/aurumchain/aurum/app/tooling/admin/commands"
	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/genesis"
	"github.com/aurumchain/aurum/foundation/blockchain/signature"
	"github.com/aurumchain/aurum/foundation/blockchain/state"
	"github.com/aurumchain/aurum/foundation/blockchain/storage/memory"
	"github.com/stretchr/testify/require"
)

func newState(t *testing.T) (*state.State, database.Address, database.Transaction) {
	t.Helper()

	g := genesis.Default()
	g.Difficulty = 1

	strg, err := memory.New()
	require.NoError(t, err)

	st, err := state.New(state.Config{Genesis: g, Storage: strg})
	require.NoError(t, err)

	pk, err := signature.GenerateKey()
	require.NoError(t, err)
	addr := database.Address(signature.PublicKeyToAddress(&pk.PublicKey))

	_, err = st.MinePendingTransactions(context.Background(), addr)
	require.NoError(t, err)

	other, err := signature.GenerateKey()
	require.NoError(t, err)

	tx := database.NewTransaction(addr, database.Address(signature.PublicKeyToAddress(&other.PublicKey)), database.NewAmount(7))
	require.NoError(t, tx.Sign(pk))
	require.NoError(t, st.AddTransaction(tx))

	_, err = st.MinePendingTransactions(context.Background(), addr)
	require.NoError(t, err)

	return st, addr, tx
}

func TestProcess(t *testing.T) {
	st, addr, tx := newState(t)

	t.Run("usage", func(t *testing.T) {
		var buf bytes.Buffer
		require.ErrorIs(t, commands.Process(&buf, nil, st), commands.ErrHelp)
		require.ErrorIs(t, commands.Process(&buf, []string{"nope"}, st), commands.ErrHelp)
		require.Contains(t, buf.String(), "verify")
	})

	t.Run("blocks", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, commands.Process(&buf, []string{"blocks"}, st))
		require.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("Block: ")))

		buf.Reset()
		require.NoError(t, commands.Process(&buf, []string{"blocks", "2"}, st))
		require.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("Block: ")))

		require.Error(t, commands.Process(&buf, []string{"blocks", "x"}, st))
	})

	t.Run("balances", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, commands.Process(&buf, []string{"bals"}, st))
		require.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("Account: ")))

		buf.Reset()
		require.NoError(t, commands.Process(&buf, []string{"bals", string(tx.To)}, st))
		require.Contains(t, buf.String(), "Balance: 7")

		require.Error(t, commands.Process(&buf, []string{"bals", "nobody"}, st))
	})

	t.Run("transactions", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, commands.Process(&buf, []string{"trans", string(addr)}, st))
		require.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("ID: ")))

		buf.Reset()
		require.NoError(t, commands.Process(&buf, []string{"trans", tx.ID}, st))
		require.Contains(t, buf.String(), "Block: 2")

		require.Error(t, commands.Process(&buf, []string{"trans", "missing"}, st))
		require.Error(t, commands.Process(&buf, []string{"trans"}, st))
	})

	t.Run("verify", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, commands.Process(&buf, []string{"verify"}, st))
		require.Contains(t, buf.String(), "3 blocks")
	})
}
