package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/aurumchain/aurum/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the committed transactions of the wallet",
	Run:   historyRun,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func historyRun(cmd *cobra.Command, args []string) {
	addr, err := wallet.ReadAddress(getWalletPath())
	if err != nil {
		log.Fatal(err)
	}

	ledger, err := newLedger(context.Background(), newClient(url), addr)
	if err != nil {
		log.Fatal(err)
	}

	for _, tx := range ledger.TransactionsFor(addr) {
		from := string(tx.From)
		if tx.IsReward() {
			from = "reward"
		}
		fmt.Printf("ID: %s  From: %s  To: %s  Amount: %s\n", tx.ID, from, tx.To, tx.Amount)
	}
}
