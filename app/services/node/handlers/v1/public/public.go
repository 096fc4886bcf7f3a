// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aurumchain/aurum/business/web/errs"
	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/merkle"
	"github.com/aurumchain/aurum/foundation/blockchain/node"
	"github.com/aurumchain/aurum/foundation/blockchain/worker"
	"github.com/aurumchain/aurum/foundation/nameservice"
	"github.com/aurumchain/aurum/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of wallet and explorer endpoints.
type Handlers struct {
	Log  *zap.SugaredLogger
	Node *node.Node
	NS   *nameservice.NameService
	WS   websocket.Upgrader
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	id, ch := h.Node.Subscribe()
	defer h.Node.Unsubscribe(id)

	h.Log.Infow("events", "traceid", v.TraceID, "subscriber", id)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(ev); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Node.Status(), http.StatusOK)
}

// Genesis returns the consensus parameters.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Node.State().Genesis(), http.StatusOK)
}

// Blocks returns the blocks between the from and to indexes, or the whole
// chain when no range is provided.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	st := h.Node.State()
	latest := st.LatestBlock().Index

	from, err := index(web.Param(r, "from"), 0, latest)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	to, err := index(web.Param(r, "to"), latest, latest)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	dbBlocks := st.Blocks(from, to)
	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocks := make([]block, len(dbBlocks))
	for i, b := range dbBlocks {
		blocks[i] = toBlock(h.NS, b)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// LatestBlock returns the tip of the chain.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toBlock(h.NS, h.Node.LatestBlock()), http.StatusOK)
}

// Balance returns the committed balance and stake of an address.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addr, err := database.ToAddress(web.Param(r, "address"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	st := h.Node.State()

	act := account{
		Address: addr,
		Name:    h.NS.Lookup(addr),
		Balance: st.BalanceOf(addr),
		Stake:   st.StakeOf(addr),
		Latest:  st.LatestBlock().Hash,
	}

	return web.Respond(ctx, w, act, http.StatusOK)
}

// History returns the committed transactions of an address.
func (h Handlers) History(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addr, err := database.ToAddress(web.Param(r, "address"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, toTxs(h.NS, h.Node.State().TransactionsFor(addr)), http.StatusOK)
}

// Proof returns the merkle inclusion proof of a committed transaction so a
// wallet can check it against the block's merkle root.
func (h Handlers) Proof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	st := h.Node.State()

	tx, idx, ok := st.TransactionByID(id)
	if !ok {
		return errs.NewTrusted(fmt.Errorf("transaction %q is not committed", id), http.StatusNotFound)
	}

	blocks := st.Blocks(idx, idx)
	if len(blocks) == 0 {
		return errs.NewTrusted(fmt.Errorf("block %d not found", idx), http.StatusNotFound)
	}
	blk := blocks[0]

	tree, err := merkle.NewTree(blk.Transactions)
	if err != nil {
		return fmt.Errorf("building merkle tree: blk[%d]: %w", idx, err)
	}

	steps, err := tree.Proof(tx)
	if err != nil {
		return fmt.Errorf("building merkle proof: tx[%s]: %w", id, err)
	}

	resp := proof{
		ID:         tx.ID,
		Block:      blk.Index,
		BlockHash:  blk.Hash,
		MerkleRoot: tree.RootHex(),
		Proof:      steps,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Pending returns the set of uncommitted transactions.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toTxs(h.NS, h.Node.State().Pending()), http.StatusOK)
}

// SubmitTransaction adds a signed wallet transaction to the pending pool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx database.Transaction
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "tx", tx)
	if err := h.Node.SubmitTransaction(tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := submitted{
		Status: "transaction added to pending pool",
		ID:     tx.ID,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitStake adds a signed stake transfer to the pending pool and registers
// the stake.
func (h Handlers) SubmitStake(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx database.Transaction
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("submit stake", "traceid", v.TraceID, "tx", tx)
	if err := h.Node.SubmitStake(tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := submitted{
		Status: "stake added to pending pool",
		ID:     tx.ID,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalMining asks the worker to produce a block from the pending pool.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.Node.MineBlock(); err != nil {
		switch {
		case errors.Is(err, worker.ErrAlreadyMining):
			return errs.NewTrusted(err, http.StatusConflict)
		default:
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}

// =============================================================================

// index parses a block index parameter. Empty and "latest" resolve to the
// provided defaults.
func index(s string, def uint64, latest uint64) (uint64, error) {
	switch s {
	case "":
		return def, nil
	case "latest":
		return latest, nil
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block index %q", s)
	}

	return n, nil
}
