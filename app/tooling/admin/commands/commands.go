// Package commands contains the functionality for the set of commands
// currently supported by the admin CLI tooling.
package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/aurumchain/aurum/foundation/blockchain/state"
)

// ErrHelp is returned when no command or an unknown command is provided.
var ErrHelp = errors.New("provided help")

// Usage lists the supported commands.
const Usage = `Commands:
  blocks [from] [to]     print the blocks in the range, the whole chain by default
  bals   [address]       print committed balances, every account by default
  trans  <address|txid>  print the transactions of an account or a single transaction
  verify                 validate the stored chain`

// Process handles the execution of the commands specified on the command line.
func Process(w io.Writer, args []string, st *state.State) error {
	if len(args) == 0 {
		fmt.Fprintln(w, Usage)
		return ErrHelp
	}

	switch args[0] {
	case "blocks":
		if err := Blocks(w, args[1:], st); err != nil {
			return fmt.Errorf("getting blocks: %w", err)
		}

	case "bals":
		if err := Balances(w, args[1:], st); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}

	case "trans":
		if err := Transactions(w, args[1:], st); err != nil {
			return fmt.Errorf("getting transactions: %w", err)
		}

	case "verify":
		if err := Verify(w, st); err != nil {
			return fmt.Errorf("verifying chain: %w", err)
		}

	default:
		fmt.Fprintln(w, Usage)
		return ErrHelp
	}

	return nil
}

// =============================================================================

func parseIndex(args []string, i int, def uint64) (uint64, error) {
	if len(args) <= i {
		return def, nil
	}

	n, err := strconv.ParseUint(args[i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block index %q", args[i])
	}

	return n, nil
}
