// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aurumchain/aurum/business/web/errs"
	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/node"
	"github.com/aurumchain/aurum/foundation/blockchain/state"
	"github.com/aurumchain/aurum/foundation/validate"
	"github.com/aurumchain/aurum/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of peer endpoints.
type Handlers struct {
	Log  *zap.SugaredLogger
	Node *node.Node
}

// PeerRequest names the peer to connect to or disconnect from.
type PeerRequest struct {
	Host string `json:"host" validate:"required,hostname_port"`
}

// ReplaceRequest carries the chain a peer shared during a sync.
type ReplaceRequest struct {
	Host  string           `json:"host" validate:"required,hostname_port"`
	Chain []database.Block `json:"chain" validate:"required,min=1"`
}

type status struct {
	Status string `json:"status"`
}

// Status returns the status shared with peers.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Node.PeerStatus(), http.StatusOK)
}

// ConnectPeer adds a peer to the connected set.
func (h Handlers) ConnectPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req PeerRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	if err := h.Node.ConnectPeer(req.Host); err != nil {
		return errs.NewTrusted(err, http.StatusConflict)
	}

	return web.Respond(ctx, w, status{Status: "connected"}, http.StatusOK)
}

// DisconnectPeer removes a peer from the connected set.
func (h Handlers) DisconnectPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req PeerRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	if err := h.Node.DisconnectPeer(req.Host); err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, status{Status: "disconnected"}, http.StatusOK)
}

// Chain returns the full chain so a peer can sync from it.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Node.Chain(), http.StatusOK)
}

// ReplaceChain adopts the chain shared by a peer when it is longer and valid.
func (h Handlers) ReplaceChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req ReplaceRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	h.Log.Infow("replace chain", "traceid", v.TraceID, "host", req.Host, "blocks", len(req.Chain))

	if err := h.Node.SyncWithPeer(req.Host, req.Chain); err != nil {
		switch {
		case errors.Is(err, state.ErrChainTooShort):
			return errs.NewTrusted(err, http.StatusConflict)
		case errors.Is(err, state.ErrInvalidChain), errors.Is(err, state.ErrGenesisMismatch):
			return errs.NewTrusted(err, http.StatusNotAcceptable)
		default:
			return err
		}
	}

	return web.Respond(ctx, w, status{Status: "replaced"}, http.StatusOK)
}

// ReceiveBlock takes a block produced by a peer, validates it and if that
// passes, adds the block to the local chain.
func (h Handlers) ReceiveBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var block database.Block
	if err := web.Decode(r, &block); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := h.Node.ReceiveBlock(block); err != nil {
		switch {
		case errors.Is(err, node.ErrSyncRequired):
			return errs.NewTrusted(err, http.StatusConflict)
		default:
			return errs.NewTrusted(fmt.Errorf("block not accepted: %w", err), http.StatusNotAcceptable)
		}
	}

	return web.Respond(ctx, w, status{Status: "accepted"}, http.StatusOK)
}

// ReceiveTransaction adds a transaction shared by a peer to the pending pool.
func (h Handlers) ReceiveTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var tx database.Transaction
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := h.Node.ReceiveTransaction(tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, status{Status: "transaction added to pending pool"}, http.StatusOK)
}

// EnableStaking switches the chain to proof of stake once it is long enough.
func (h Handlers) EnableStaking(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	st := h.Node.State()

	if !st.SwitchToProofOfStake() {
		err := fmt.Errorf("chain has %d blocks, %d required", st.Length(), st.Genesis().MinPoSChainLength)
		return errs.NewTrusted(err, http.StatusConflict)
	}

	return web.Respond(ctx, w, status{Status: "proof of stake enabled"}, http.StatusOK)
}

// =============================================================================

func decode(r *http.Request, val any) error {
	if err := web.Decode(r, val); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	return validate.Check(val)
}
