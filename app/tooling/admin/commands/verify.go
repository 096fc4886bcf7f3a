package commands

import (
	"fmt"
	"io"

	"github.com/aurumchain/aurum/foundation/blockchain/state"
)

// Verify validates every block of the stored chain.
func Verify(w io.Writer, st *state.State) error {
	if err := st.ValidateChain(st.Chain()); err != nil {
		return err
	}

	fmt.Fprintf(w, "Chain is valid: %d blocks, difficulty %d, reward %s\n", st.Length(), st.Difficulty(), st.Reward())
	return nil
}
