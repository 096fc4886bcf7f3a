package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aurumchain/aurum/business/web/errs"
	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/merkle"
)

// account is the balance view returned by the node.
type account struct {
	Address database.Address `json:"address"`
	Name    string           `json:"name"`
	Balance database.Amount  `json:"balance"`
	Stake   database.Amount  `json:"stake"`
	Latest  string           `json:"latestBlock"`
}

// inclusion is the merkle proof of a committed transaction returned by the
// node.
type inclusion struct {
	ID         string             `json:"txId"`
	Block      uint64             `json:"block"`
	BlockHash  string             `json:"blockHash"`
	MerkleRoot string             `json:"merkleRoot"`
	Proof      []merkle.ProofStep `json:"proof"`
}

// header is the part of a block the wallet checks proofs against.
type header struct {
	Index      uint64 `json:"index"`
	Hash       string `json:"hash"`
	MerkleRoot string `json:"merkleRoot"`
}

// client talks to the public api of a node.
type client struct {
	url  string
	http *http.Client
}

func newClient(url string) *client {
	return &client{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Account returns the committed balance and stake of the address.
func (c *client) Account(ctx context.Context, addr database.Address) (account, error) {
	var act account
	if err := c.do(ctx, http.MethodGet, "/v1/balances/"+string(addr), nil, &act); err != nil {
		return account{}, err
	}
	return act, nil
}

// History returns the committed transactions of the address.
func (c *client) History(ctx context.Context, addr database.Address) ([]database.Transaction, error) {
	var txs []database.Transaction
	if err := c.do(ctx, http.MethodGet, "/v1/tx/history/"+string(addr), nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// Proof returns the merkle inclusion proof of a committed transaction.
func (c *client) Proof(ctx context.Context, id string) (inclusion, error) {
	var inc inclusion
	if err := c.do(ctx, http.MethodGet, "/v1/tx/proof/"+id, nil, &inc); err != nil {
		return inclusion{}, err
	}
	return inc, nil
}

// Block returns the header of the block at the index.
func (c *client) Block(ctx context.Context, index uint64) (header, error) {
	var blocks []header
	path := fmt.Sprintf("/v1/blocks/list/%d/%d", index, index)
	if err := c.do(ctx, http.MethodGet, path, nil, &blocks); err != nil {
		return header{}, err
	}

	if len(blocks) != 1 {
		return header{}, fmt.Errorf("block %d not found", index)
	}
	return blocks[0], nil
}

// Submit sends a signed transfer to the pending pool of the node.
func (c *client) Submit(ctx context.Context, tx database.Transaction) error {
	return c.do(ctx, http.MethodPost, "/v1/tx/submit", tx, nil)
}

// SubmitStake sends a signed stake transfer to the node.
func (c *client) SubmitStake(ctx context.Context, tx database.Transaction) error {
	return c.do(ctx, http.MethodPost, "/v1/tx/stake", tx, nil)
}

func (c *client) do(ctx context.Context, method string, path string, body any, resp any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var er errs.Response
		if err := json.NewDecoder(res.Body).Decode(&er); err != nil || er.Error == "" {
			return fmt.Errorf("node responded %s", res.Status)
		}
		return fmt.Errorf("node responded %s: %s", res.Status, er.Error)
	}

	if resp == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.NewDecoder(res.Body).Decode(resp)
}

// =============================================================================

// ledger is a snapshot of one account taken from a node. Reads are served
// from the snapshot and writes go to the node.
type ledger struct {
	ctx     context.Context
	client  *client
	addr    database.Address
	balance database.Amount
	history []database.Transaction
}

func newLedger(ctx context.Context, c *client, addr database.Address) (*ledger, error) {
	act, err := c.Account(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("fetching balance: %w", err)
	}

	history, err := c.History(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}

	l := ledger{
		ctx:     ctx,
		client:  c,
		addr:    addr,
		balance: act.Balance,
		history: history,
	}

	return &l, nil
}

// BalanceOf returns the snapshot balance for the snapshot account and zero
// for any other account.
func (l *ledger) BalanceOf(addr database.Address) database.Amount {
	if addr != l.addr {
		return database.NewAmount(0)
	}
	return l.balance
}

// TransactionsFor returns the snapshot history.
func (l *ledger) TransactionsFor(addr database.Address) []database.Transaction {
	if addr != l.addr {
		return nil
	}
	return l.history
}

// AddTransaction submits the transfer to the node.
func (l *ledger) AddTransaction(tx database.Transaction) error {
	return l.client.Submit(l.ctx, tx)
}

// Stake submits the stake transfer to the node.
func (l *ledger) Stake(tx database.Transaction) error {
	return l.client.SubmitStake(l.ctx, tx)
}
