// Package nameservice reads a folder of wallet files and creates a name
// service lookup for the accounts they hold.
package nameservice

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/wallet"
)

// walletExt is the extension of the wallet files that are read.
const walletExt = ".json"

// NameService maintains a map of accounts for name lookup.
type NameService struct {
	accounts map[database.Address]string
}

// New constructs a name service with the accounts from the wallet files
// found under root. The private keys are never decrypted.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[database.Address]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if info.IsDir() || path.Ext(fileName) != walletExt {
			return nil
		}

		addr, err := wallet.ReadAddress(fileName)
		if err != nil {
			return fmt.Errorf("%s: %w", fileName, err)
		}

		ns.accounts[addr] = strings.TrimSuffix(path.Base(fileName), walletExt)

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified account.
func (ns *NameService) Lookup(addr database.Address) string {
	name, exists := ns.accounts[addr]
	if !exists {
		return string(addr)
	}
	return name
}

// Copy returns a copy of the map of names and accounts.
func (ns *NameService) Copy() map[database.Address]string {
	cpy := make(map[database.Address]string, len(ns.accounts))
	for addr, name := range ns.accounts {
		cpy[addr] = name
	}
	return cpy
}
