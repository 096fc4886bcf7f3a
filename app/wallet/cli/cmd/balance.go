package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/aurumchain/aurum/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	addr, err := wallet.ReadAddress(getWalletPath())
	if err != nil {
		log.Fatal(err)
	}

	act, err := newClient(url).Account(context.Background(), addr)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("For Account:", act.Address)
	fmt.Println("Balance:    ", act.Balance)
	fmt.Println("Stake:      ", act.Stake)
	fmt.Println("Block:      ", act.Latest)
}
