package cmd

import (
	"fmt"
	"log"

	"github.com/aurumchain/aurum/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the address of the wallet",
	Run:   addressRun,
}

func init() {
	rootCmd.AddCommand(addressCmd)
}

func addressRun(cmd *cobra.Command, args []string) {
	addr, err := wallet.ReadAddress(getWalletPath())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(addr)
}
