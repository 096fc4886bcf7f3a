package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/state"
)

// Transactions prints the committed transactions of an account, or a single
// transaction when a transaction id is provided.
func Transactions(w io.Writer, args []string, st *state.State) error {
	if len(args) == 0 {
		return errors.New("an address or transaction id is required")
	}

	if addr, err := database.ToAddress(args[0]); err == nil {
		for _, tx := range st.TransactionsFor(addr) {
			printTx(w, tx)
		}
		return nil
	}

	tx, index, found := st.TransactionByID(args[0])
	if !found {
		return fmt.Errorf("transaction %q not found", args[0])
	}

	fmt.Fprintf(w, "Block: %d\n", index)
	printTx(w, tx)

	return nil
}

func printTx(w io.Writer, tx database.Transaction) {
	from := string(tx.From)
	if tx.IsReward() {
		from = "reward"
	}

	fmt.Fprintf(w, "ID: %s  From: %s  To: %s  Amount: %s  Timestamp: %d\n", tx.ID, from, tx.To, tx.Amount, tx.Timestamp)
}
