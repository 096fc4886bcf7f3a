package public

import (
	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/merkle"
	"github.com/aurumchain/aurum/foundation/nameservice"
)

type tx struct {
	ID        string           `json:"txId"`
	From      database.Address `json:"fromAddress"`
	FromName  string           `json:"fromName,omitempty"`
	To        database.Address `json:"toAddress"`
	ToName    string           `json:"toName,omitempty"`
	Amount    database.Amount  `json:"amount"`
	Timestamp int64            `json:"timestamp"`
	Signature string           `json:"signature,omitempty"`
	Reward    bool             `json:"reward,omitempty"`
}

type block struct {
	Index        uint64           `json:"index"`
	Timestamp    int64            `json:"timestamp"`
	PreviousHash string           `json:"previousHash"`
	Hash         string           `json:"hash"`
	Nonce        uint64           `json:"nonce"`
	Difficulty   uint             `json:"difficulty"`
	Producer     database.Address `json:"producer"`
	ProducerName string           `json:"producerName,omitempty"`
	Reward       database.Amount  `json:"reward"`
	MerkleRoot   string           `json:"merkleRoot"`
	Transactions []tx             `json:"transactions"`
}

type account struct {
	Address database.Address `json:"address"`
	Name    string           `json:"name"`
	Balance database.Amount  `json:"balance"`
	Stake   database.Amount  `json:"stake"`
	Latest  string           `json:"latestBlock"`
}

type proof struct {
	ID         string             `json:"txId"`
	Block      uint64             `json:"block"`
	BlockHash  string             `json:"blockHash"`
	MerkleRoot string             `json:"merkleRoot"`
	Proof      []merkle.ProofStep `json:"proof"`
}

type submitted struct {
	Status string `json:"status"`
	ID     string `json:"txId"`
}

// =============================================================================

func toTx(ns *nameservice.NameService, t database.Transaction) tx {
	out := tx{
		ID:        t.ID,
		From:      t.From,
		To:        t.To,
		ToName:    ns.Lookup(t.To),
		Amount:    t.Amount,
		Timestamp: t.Timestamp,
		Signature: t.Signature,
		Reward:    t.IsReward(),
	}

	if !t.IsReward() {
		out.FromName = ns.Lookup(t.From)
	}

	return out
}

func toTxs(ns *nameservice.NameService, txs []database.Transaction) []tx {
	out := make([]tx, len(txs))
	for i, t := range txs {
		out[i] = toTx(ns, t)
	}
	return out
}

func toBlock(ns *nameservice.NameService, b database.Block) block {
	out := block{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		PreviousHash: b.PreviousHash,
		Hash:         b.Hash,
		Nonce:        b.Nonce,
		Difficulty:   b.Difficulty,
		Producer:     b.Producer,
		Reward:       b.Reward,
		MerkleRoot:   b.MerkleRoot,
		Transactions: toTxs(ns, b.Transactions),
	}

	if b.Producer != "" {
		out.ProducerName = ns.Lookup(b.Producer)
	}

	return out
}
