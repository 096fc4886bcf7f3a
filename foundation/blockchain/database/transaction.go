package database

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"
	"time"

	"github.com/aurumchain/aurum/foundation/blockchain/signature"
)

// Transaction is an intent to move value between two addresses. A
// transaction with an empty from address is a reward minted by the system.
type Transaction struct {
	From      Address `json:"fromAddress"` // Empty for a reward.
	To        Address `json:"toAddress"`
	Amount    Amount  `json:"amount"`
	Timestamp int64   `json:"timestamp"` // Unix milliseconds.
	Signature string  `json:"signature"` // Hex encoded [R|S|V], empty for a reward.
	ID        string  `json:"txId"`      // Content hash computed at construction.
}

// NewTransaction constructs a new transaction stamped with the current time.
// Construction never fails, the ledger rejects bad values on admission.
func NewTransaction(from Address, to Address, amount Amount) Transaction {
	tx := Transaction{
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: time.Now().UTC().UnixMilli(),
	}
	tx.ID = tx.CalculateHash()

	return tx
}

// NewRewardTransaction constructs the transaction that pays a block producer.
func NewRewardTransaction(to Address, amount Amount) Transaction {
	return NewTransaction("", to, amount)
}

// CalculateHash returns the content hash of the transaction.
func (tx Transaction) CalculateHash() string {
	return signature.Hash(string(tx.From) + string(tx.To) + tx.Amount.String() + strconv.FormatInt(tx.Timestamp, 10))
}

// Sign uses the specified private key to sign the transaction. The key must
// belong to the from address.
func (tx *Transaction) Sign(privateKey *ecdsa.PrivateKey) error {
	if tx.IsReward() {
		return ErrRewardNotSignable
	}

	if signature.PublicKeyToAddress(&privateKey.PublicKey) != string(tx.From) {
		return fmt.Errorf("key does not belong to address %s", tx.From)
	}

	sig, err := signature.Sign(tx.CalculateHash(), privateKey)
	if err != nil {
		return err
	}

	tx.Signature = sig

	return nil
}

// IsValid verifies the signature was produced by the key behind the from
// address over the current contents. A signature that can't be decoded is
// reported as false and not as an error.
func (tx Transaction) IsValid() (bool, error) {
	if tx.IsReward() {
		return true, nil
	}

	if tx.Signature == "" {
		return false, ErrMissingSignature
	}

	return signature.VerifyAddress(tx.CalculateHash(), tx.Signature, string(tx.From)), nil
}

// IsReward reports whether the transaction was minted by the system.
func (tx Transaction) IsReward() bool {
	return tx.From.IsSystem()
}

// Hash implements the merkle Hashable interface for providing a hash
// of a transaction.
func (tx Transaction) Hash() (string, error) {
	return tx.ID, nil
}

// Equals implements the merkle Hashable interface for providing an equality
// check between two transactions. If the ids and signatures are the same,
// the two transactions are the same.
func (tx Transaction) Equals(otherTx Transaction) bool {
	return tx.ID == otherTx.ID && tx.Signature == otherTx.Signature
}

// String implements the fmt.Stringer interface for logging.
func (tx Transaction) String() string {
	from := string(tx.From)
	if tx.IsReward() {
		from = "reward"
	}

	return fmt.Sprintf("%s:%s->%s:%s", tx.ID[:min(8, len(tx.ID))], from, tx.To, tx.Amount)
}
