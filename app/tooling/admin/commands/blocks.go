package commands

import (
	"fmt"
	"io"

	"github.com/aurumchain/aurum/foundation/blockchain/state"
)

// Blocks prints the blocks in the requested range.
func Blocks(w io.Writer, args []string, st *state.State) error {
	latest := st.LatestBlock().Index

	from, err := parseIndex(args, 0, 0)
	if err != nil {
		return err
	}

	to, err := parseIndex(args, 1, latest)
	if err != nil {
		return err
	}

	for _, b := range st.Blocks(from, to) {
		fmt.Fprintf(w, "Block: %d  Hash: %s  Prev: %s  Difficulty: %d  Nonce: %d  Producer: %s  Txs: %d\n",
			b.Index, b.Hash, b.PreviousHash, b.Difficulty, b.Nonce, b.Producer, len(b.Transactions))
	}

	return nil
}
