package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/aurumchain/aurum/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new wallet",
	Run:   generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) {
	path := getWalletPath()

	if _, err := os.Stat(path); err == nil {
		log.Fatalf("wallet %s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		log.Fatal(err)
	}

	keys, err := wallet.Generate()
	if err != nil {
		log.Fatal(err)
	}

	if err := keys.Save(path, password); err != nil {
		log.Fatal(err)
	}

	phrase, err := wallet.Mnemonic()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Wallet:  ", path)
	fmt.Println("Address: ", keys.Address())
	fmt.Println("Phrase:  ", phrase)
}
