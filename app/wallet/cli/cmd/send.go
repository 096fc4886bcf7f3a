package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount string
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	Run: func(cmd *cobra.Command, args []string) {
		tx, err := send(context.Background(), to, amount)
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println("Submitted:", tx.ID)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address of the recipient.")
	sendCmd.Flags().StringVarP(&amount, "amount", "a", "", "Amount to send.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func send(ctx context.Context, toAddr string, value string) (database.Transaction, error) {
	recipient, err := database.ToAddress(toAddr)
	if err != nil {
		return database.Transaction{}, err
	}

	amt, err := parseAmount(value)
	if err != nil {
		return database.Transaction{}, err
	}

	w, err := openWallet(ctx)
	if err != nil {
		return database.Transaction{}, err
	}

	return w.SendTransaction(recipient, amt)
}

// openWallet decrypts the wallet and binds it to a snapshot of the node.
func openWallet(ctx context.Context) (*wallet.Wallet, error) {
	keys, err := wallet.Load(getWalletPath(), password)
	if err != nil {
		return nil, err
	}

	ledger, err := newLedger(ctx, newClient(url), keys.Address())
	if err != nil {
		return nil, err
	}

	return wallet.New(keys, ledger), nil
}

func parseAmount(value string) (database.Amount, error) {
	amt, err := database.ParseAmount(value)
	if err != nil {
		return database.Amount{}, fmt.Errorf("invalid amount %q: %w", value, err)
	}

	if !amt.IsPositive() {
		return database.Amount{}, fmt.Errorf("amount must be positive: %s", amt)
	}

	return amt, nil
}
