// This program is a command line wallet for the aurum ledger.
package main

import "github.com/aurumchain/aurum/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
