// Package cmd contains the wallet commands.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	walletName string
	walletPath string
	password   string
	url        string
)

const (
	walletExtension = ".json"
	passwordEnv     = "AURUM_WALLET_PASSWORD"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Aurum ledger wallet",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&walletName, "wallet", "w", "private", "Name of the wallet file.")
	rootCmd.PersistentFlags().StringVarP(&walletPath, "wallet-path", "p", "zblock/wallets/", "Path to the directory with wallet files.")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "P", os.Getenv(passwordEnv), "Password protecting the wallet, defaults to $"+passwordEnv+".")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

func getWalletPath() string {
	name := walletName
	if !strings.HasSuffix(name, walletExtension) {
		name += walletExtension
	}
	return filepath.Join(walletPath, name)
}
