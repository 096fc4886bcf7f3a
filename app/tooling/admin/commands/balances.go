package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/state"
)

// Balances prints the committed balance of one account, or of every account
// that appears on the chain.
func Balances(w io.Writer, args []string, st *state.State) error {
	fmt.Fprintf(w, "LatestBlockHash: %s\n\n", st.LatestBlock().Hash)

	if len(args) > 0 {
		addr, err := database.ToAddress(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "Account: %s  Balance: %s  Stake: %s\n", addr, st.BalanceOf(addr), st.StakeOf(addr))
		return nil
	}

	for _, addr := range accounts(st.Chain()) {
		fmt.Fprintf(w, "Account: %s  Balance: %s  Stake: %s\n", addr, st.BalanceOf(addr), st.StakeOf(addr))
	}

	return nil
}

// accounts returns every non system address found in the chain, sorted.
func accounts(chain []database.Block) []database.Address {
	seen := make(map[database.Address]struct{})
	for _, b := range chain {
		for _, tx := range b.Transactions {
			for _, addr := range []database.Address{tx.From, tx.To} {
				if !addr.IsSystem() {
					seen[addr] = struct{}{}
				}
			}
		}
	}

	out := make([]database.Address, 0, len(seen))
	for addr := range seen {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
