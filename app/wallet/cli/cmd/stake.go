package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var stakeCmd = &cobra.Command{
	Use:   "stake",
	Short: "Lock an amount as stake for block forging",
	Run: func(cmd *cobra.Command, args []string) {
		amt, err := parseAmount(amount)
		if err != nil {
			log.Fatal(err)
		}

		w, err := openWallet(context.Background())
		if err != nil {
			log.Fatal(err)
		}

		tx, err := w.Stake(amt)
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println("Staked:", tx.Amount, "ID:", tx.ID)
	},
}

func init() {
	rootCmd.AddCommand(stakeCmd)
	stakeCmd.Flags().StringVarP(&amount, "amount", "a", "", "Amount to stake.")
	stakeCmd.MarkFlagRequired("amount")
}
