// Package database handles all the lower level support for the ledger:
// addresses, amounts, transactions, blocks and the storage contract used to
// persist the chain.
package database

import (
	"errors"
	"fmt"

	"github.com/aurumchain/aurum/foundation/blockchain/signature"
	"github.com/shopspring/decimal"
)

// Set of error variables for transaction and block handling.
var (
	ErrMissingSignature  = errors.New("transaction is missing a signature")
	ErrRewardNotSignable = errors.New("reward transactions can't be signed")
	ErrBlockOutOfOrder   = errors.New("block is out of order")
	ErrEndOfChain        = errors.New("end of chain")
)

// =============================================================================

// Address represents an account on the ledger. The empty address is the
// system account that mints rewards.
type Address string

// StakingAddress receives the value locked by stake transactions.
const StakingAddress Address = "STAKING_ADDRESS"

// ToAddress converts a string into an address after checking the format.
func ToAddress(s string) (Address, error) {
	a := Address(s)
	if !a.IsAddress() {
		return "", fmt.Errorf("invalid address format: %q", s)
	}

	return a, nil
}

// IsAddress verifies the address is a wallet address or the staking address.
func (a Address) IsAddress() bool {
	return a == StakingAddress || signature.IsAddress(string(a))
}

// IsSystem reports whether this is the reward minting account.
func (a Address) IsSystem() bool {
	return a == ""
}

// =============================================================================

// Amount represents a quantity of value on the ledger.
type Amount = decimal.Decimal

// NewAmount constructs an amount from an integer value.
func NewAmount(v int64) Amount {
	return decimal.NewFromInt(v)
}

// ParseAmount converts a string into an amount.
func ParseAmount(s string) (Amount, error) {
	return decimal.NewFromString(s)
}

// =============================================================================

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(block Block) error
	GetBlock(num uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}
