package state

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/signature"
)

// ErrInvalidTransactionID is returned when the id of a transaction does not
// match its contents.
var ErrInvalidTransactionID = errors.New("transaction id does not match its contents")

// AddTransaction validates the transaction and admits it into the pending
// pool. The balance check is made against committed blocks only, so two
// pending transactions from one sender may together exceed its balance.
func (s *State) AddTransaction(tx database.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addTransaction(tx)
}

// Stake admits a signed transfer to the staking address and records the
// stake for the sender.
func (s *State) Stake(tx database.Transaction) error {
	if tx.To != database.StakingAddress {
		return fmt.Errorf("stake must be sent to %s", database.StakingAddress)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.addTransaction(tx); err != nil {
		return err
	}

	s.registerStakes(database.Block{Transactions: []database.Transaction{tx}})

	s.evHandler("state: Stake: address[%s]: amount[%s]: total[%s]", tx.From, tx.Amount, s.stakes.Of(tx.From))

	return nil
}

// CreateStakeTransaction builds and signs a transfer of the amount from the
// key's address to the staking address and admits it through Stake.
func (s *State) CreateStakeTransaction(privateKey *ecdsa.PrivateKey, amount database.Amount) (database.Transaction, error) {
	from := database.Address(signature.PublicKeyToAddress(&privateKey.PublicKey))

	tx := database.NewTransaction(from, database.StakingAddress, amount)
	if err := tx.Sign(privateKey); err != nil {
		return database.Transaction{}, err
	}

	if err := s.Stake(tx); err != nil {
		return database.Transaction{}, err
	}

	return tx, nil
}

// =============================================================================

// addTransaction performs the admission rules. Callers must hold the lock.
func (s *State) addTransaction(tx database.Transaction) error {
	if tx.From.IsSystem() && tx.To == "" {
		return ErrMissingAddresses
	}

	ok, err := tx.IsValid()
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidSignature
	}

	if tx.ID != tx.CalculateHash() {
		return ErrInvalidTransactionID
	}

	if !tx.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	if _, exists := s.committed[tx.ID]; exists {
		return ErrAlreadyCommitted
	}

	if balance := s.balanceOf(tx.From); !tx.IsReward() && balance.LessThan(tx.Amount) {
		return fmt.Errorf("%w: address %s, balance %s, needed %s", ErrInsufficientBalance, tx.From, balance, tx.Amount)
	}

	n, err := s.mempool.Add(tx)
	if err != nil {
		return err
	}

	s.evHandler("state: addTransaction: tx[%s]: pending[%d]", tx, n)

	return nil
}
