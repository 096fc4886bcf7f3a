package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aurumchain/aurum/foundation/blockchain/genesis"
	"github.com/aurumchain/aurum/foundation/blockchain/merkle"
	"github.com/aurumchain/aurum/foundation/blockchain/signature"
)

// GenesisPreviousHash is the previous hash recorded in the genesis block.
const GenesisPreviousHash = "0"

// =============================================================================

// Block represents a group of transactions batched together and bound to its
// predecessor by hash.
type Block struct {
	Index        uint64        `json:"index"`        // Position in the chain, genesis is 0.
	Timestamp    int64         `json:"timestamp"`    // Unix milliseconds.
	Transactions []Transaction `json:"transactions"` // Ordered as they were taken from the pool.
	PreviousHash string        `json:"previousHash"` // Hash of the previous block in the chain.
	Hash         string        `json:"hash"`         // Hash of this block's contents.
	Nonce        uint64        `json:"nonce"`        // Value identified to solve the hash solution.
	Difficulty   uint          `json:"difficulty"`   // Number of 0's needed to solve the hash solution.
	Producer     Address       `json:"producer"`     // Account who mined or forged the block.
	Reward       Amount        `json:"reward"`       // Reward paid to the producer.
	MerkleRoot   string        `json:"merkleRoot"`   // Merkle root of the transaction ids.
}

// NewBlock constructs a block and computes its hash with a nonce of zero.
func NewBlock(index uint64, timestamp int64, txs []Transaction, previousHash string, difficulty uint, producer Address, reward Amount) Block {
	if txs == nil {
		txs = []Transaction{}
	}

	b := Block{
		Index:        index,
		Timestamp:    timestamp,
		Transactions: txs,
		PreviousHash: previousHash,
		Difficulty:   difficulty,
		Producer:     producer,
		Reward:       reward,
		MerkleRoot:   MerkleRoot(txs),
	}
	b.Hash = b.CalculateHash()

	return b
}

// GenesisBlock returns the canonical first block for the specified genesis.
// It is deterministic so every node agrees on it.
func GenesisBlock(g genesis.Genesis) Block {
	return NewBlock(0, g.Timestamp(), nil, GenesisPreviousHash, 0, "", NewAmount(0))
}

// CalculateHash returns the hash of the block's current contents.
func (b Block) CalculateHash() string {
	txs := b.Transactions
	if txs == nil {
		txs = []Transaction{}
	}

	data, err := json.Marshal(txs)
	if err != nil {
		return signature.ZeroHash
	}

	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(b.Index, 10))
	sb.WriteString(b.PreviousHash)
	sb.WriteString(strconv.FormatInt(b.Timestamp, 10))
	sb.Write(data)
	sb.WriteString(strconv.FormatUint(b.Nonce, 10))

	return signature.Hash(sb.String())
}

// Mine does the work of finding a nonce that produces a hash with the
// specified number of leading zeros. Pointer semantics are being used since
// a nonce is being discovered.
func (b *Block) Mine(ctx context.Context, difficulty uint, ev func(v string, args ...any)) error {
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	ev("database: Mine: MINING: started: blk[%d]: difficulty[%d]", b.Index, difficulty)
	defer ev("database: Mine: MINING: completed: blk[%d]", b.Index)

	for _, tx := range b.Transactions {
		ev("database: Mine: MINING: tx[%s]", tx)
	}

	b.Difficulty = difficulty
	b.Hash = b.CalculateHash()

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: Mine: MINING: attempts[%d]", attempts)
		}

		// Did we get cancelled trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: Mine: MINING: CANCELLED")
			return ctx.Err()
		}

		if HashMeetsDifficulty(b.Hash, difficulty) {
			ev("database: Mine: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.PreviousHash, b.Hash, attempts)
			return nil
		}

		b.Nonce++
		b.Hash = b.CalculateHash()
	}
}

// HasValidTransactions reports whether every transaction in the block
// carries a valid signature.
func (b Block) HasValidTransactions() bool {
	for _, tx := range b.Transactions {
		ok, err := tx.IsValid()
		if err != nil || !ok {
			return false
		}
	}

	return true
}

// ValidateStructure is a fast reject for blocks received from outside the
// node. It checks the shape of the block before any deeper validation.
func (b Block) ValidateStructure() error {
	if !isHexHash(b.Hash) {
		return errors.New("block hash is not a sha256 hex digest")
	}

	if b.PreviousHash == "" {
		return errors.New("block is missing the previous hash")
	}

	if b.Index > 0 && !isHexHash(b.PreviousHash) {
		return errors.New("previous hash is not a sha256 hex digest")
	}

	if b.Timestamp <= 0 {
		return errors.New("block is missing a timestamp")
	}

	if b.Transactions == nil {
		return errors.New("block is missing the transaction list")
	}

	for i, tx := range b.Transactions {
		if tx.ID == "" || (tx.From.IsSystem() && tx.To == "") {
			return fmt.Errorf("transaction %d is malformed", i)
		}
	}

	if root := MerkleRoot(b.Transactions); b.MerkleRoot != root {
		return fmt.Errorf("merkle root does not match transactions, got %s, exp %s", b.MerkleRoot, root)
	}

	return nil
}

// ValidateLink checks the block against its parent: the previous hash links
// to the parent, the stored hash matches the contents and every transaction
// is valid.
func (b Block) ValidateLink(parent Block) error {
	if b.PreviousHash != parent.Hash {
		return fmt.Errorf("blk[%d]: parent block hash doesn't match our known parent, got %s, exp %s", b.Index, b.PreviousHash, parent.Hash)
	}

	if hash := b.CalculateHash(); b.Hash != hash {
		return fmt.Errorf("blk[%d]: block hash doesn't match its contents, got %s, exp %s", b.Index, b.Hash, hash)
	}

	if !b.HasValidTransactions() {
		return fmt.Errorf("blk[%d]: block has invalid transactions", b.Index)
	}

	return nil
}

// Equal reports whether both blocks serialize identically.
func (b Block) Equal(other Block) bool {
	data1, err1 := json.Marshal(b)
	data2, err2 := json.Marshal(other)
	if err1 != nil || err2 != nil {
		return false
	}

	return string(data1) == string(data2)
}

// =============================================================================

// MerkleRoot returns the merkle root of the transaction ids.
func MerkleRoot(txs []Transaction) string {
	leafs := make([]string, len(txs))
	for i, tx := range txs {
		leafs[i] = tx.ID
	}

	return merkle.Root(leafs)
}

// HashMeetsDifficulty checks the hash starts with the specified number of
// zero hex digits.
func HashMeetsDifficulty(hash string, difficulty uint) bool {
	if uint(len(hash)) < difficulty {
		return false
	}

	return strings.Count(hash[:difficulty], "0") == int(difficulty)
}

func isHexHash(s string) bool {
	if len(s) != 64 {
		return false
	}

	for _, c := range s {
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}

	return true
}
