package wallet

import (
	"errors"
	"fmt"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
)

// ErrInsufficientBalance is returned when the account can't cover the amount.
var ErrInsufficientBalance = errors.New("not enough balance")

// Ledger is the behavior a wallet needs from the chain it operates on. It is
// satisfied by the local ledger and by a remote node client.
type Ledger interface {
	BalanceOf(addr database.Address) database.Amount
	AddTransaction(tx database.Transaction) error
	Stake(tx database.Transaction) error
	TransactionsFor(addr database.Address) []database.Transaction
}

// Wallet binds a key pair to a ledger.
type Wallet struct {
	keys   *KeyPair
	ledger Ledger
}

// New constructs a wallet for the key pair operating on the ledger.
func New(keys *KeyPair, ledger Ledger) *Wallet {
	return &Wallet{
		keys:   keys,
		ledger: ledger,
	}
}

// Address returns the wallet's account address.
func (w *Wallet) Address() database.Address {
	return w.keys.Address()
}

// KeyPair returns the wallet's key pair.
func (w *Wallet) KeyPair() *KeyPair {
	return w.keys
}

// Balance returns the committed balance of the wallet's account.
func (w *Wallet) Balance() database.Amount {
	return w.ledger.BalanceOf(w.Address())
}

// CreateTransaction builds and signs a transfer. The committed balance must
// cover the amount.
func (w *Wallet) CreateTransaction(to database.Address, amount database.Amount) (database.Transaction, error) {
	if balance := w.Balance(); balance.LessThan(amount) {
		return database.Transaction{}, fmt.Errorf("%w: balance %s, needed %s", ErrInsufficientBalance, balance, amount)
	}

	tx := database.NewTransaction(w.Address(), to, amount)
	if err := tx.Sign(w.keys.PrivateKey()); err != nil {
		return database.Transaction{}, err
	}

	return tx, nil
}

// SendTransaction creates a transfer and submits it to the ledger.
func (w *Wallet) SendTransaction(to database.Address, amount database.Amount) (database.Transaction, error) {
	tx, err := w.CreateTransaction(to, amount)
	if err != nil {
		return database.Transaction{}, err
	}

	if err := w.ledger.AddTransaction(tx); err != nil {
		return database.Transaction{}, err
	}

	return tx, nil
}

// History returns every committed transaction the account sent or received.
func (w *Wallet) History() []database.Transaction {
	return w.ledger.TransactionsFor(w.Address())
}

// Stake locks the amount by sending it to the staking address.
func (w *Wallet) Stake(amount database.Amount) (database.Transaction, error) {
	tx, err := w.CreateTransaction(database.StakingAddress, amount)
	if err != nil {
		return database.Transaction{}, fmt.Errorf("not enough balance to stake: %w", err)
	}

	if err := w.ledger.Stake(tx); err != nil {
		return database.Transaction{}, err
	}

	return tx, nil
}
