// Package node ties the ledger, the mining worker and the event registry
// together into the operations a peer exposes: connecting peers, receiving
// transactions and blocks, syncing chains and requesting blocks be mined.
package node

import (
	"errors"
	"fmt"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/peer"
	"github.com/aurumchain/aurum/foundation/blockchain/state"
	"github.com/aurumchain/aurum/foundation/blockchain/worker"
	"github.com/aurumchain/aurum/foundation/events"
)

// Set of error variables for node operations.
var (
	ErrAlreadyConnected  = errors.New("peer already connected")
	ErrNotConnected      = errors.New("peer not connected")
	ErrNoTransactions    = errors.New("no pending transactions to mine")
	ErrSyncRequired      = errors.New("block does not link to the chain tip, network sync requested")
	ErrRewardNotAccepted = errors.New("reward transactions are only minted by block producers")
	ErrMissingRecipient  = errors.New("transaction must name a recipient")
)

// DefaultMineThreshold is the number of pending transactions that triggers
// a mining operation when transactions are received.
const DefaultMineThreshold = 5

// Miner is the behavior required to drive block production.
type Miner interface {
	SignalStartMining() error
	SignalCancelMining() (done func())
	IsMining() bool
}

// Config represents the configuration required to start the node.
type Config struct {
	Host          string
	Producer      database.Address
	State         *state.State
	Miner         Miner
	Events        *events.Events
	MineThreshold int
	EvHandler     state.EventHandler
}

// Node manages the peer facing operations of the blockchain.
type Node struct {
	host          string
	producer      database.Address
	state         *state.State
	miner         Miner
	events        *events.Events
	peers         *peer.PeerSet
	mineThreshold int
	evHandler     state.EventHandler
}

// New constructs a node for the specified ledger and miner.
func New(cfg Config) (*Node, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	switch {
	case cfg.State == nil:
		return nil, errors.New("state is required")
	case cfg.Miner == nil:
		return nil, errors.New("miner is required")
	}

	if cfg.Events == nil {
		cfg.Events = events.New()
	}

	if cfg.MineThreshold <= 0 {
		cfg.MineThreshold = DefaultMineThreshold
	}

	n := Node{
		host:          cfg.Host,
		producer:      cfg.Producer,
		state:         cfg.State,
		miner:         cfg.Miner,
		events:        cfg.Events,
		peers:         peer.NewPeerSet(),
		mineThreshold: cfg.MineThreshold,
		evHandler:     ev,
	}

	latest := cfg.State.LatestBlock()
	ev("node: New: started: host[%s]: producer[%s]: blk[%d]", cfg.Host, cfg.Producer, latest.Index)

	return &n, nil
}

// =============================================================================

// ConnectPeer adds the peer to the set of connected peers and syncs with it.
func (n *Node) ConnectPeer(host string) error {
	p := peer.New(host)

	if !n.peers.Add(p) {
		n.evHandler("node: ConnectPeer: already connected: %s", p.Host)
		return fmt.Errorf("%w: %s", ErrAlreadyConnected, p.Host)
	}

	n.evHandler("node: ConnectPeer: connected: %s", p.Host)
	n.events.Emit(events.PeerConnected, p.Host)

	// Nothing is known about the peer's chain yet.
	return n.SyncWithPeer(p.Host, nil)
}

// DisconnectPeer removes the peer from the set of connected peers.
func (n *Node) DisconnectPeer(host string) error {
	p := peer.New(host)

	if !n.peers.Remove(p) {
		n.evHandler("node: DisconnectPeer: not connected: %s", p.Host)
		return fmt.Errorf("%w: %s", ErrNotConnected, p.Host)
	}

	n.evHandler("node: DisconnectPeer: disconnected: %s", p.Host)
	n.events.Emit(events.PeerDisconnected, p.Host)

	return nil
}

// Peers returns the connected peers.
func (n *Node) Peers() []peer.Peer {
	return n.peers.Copy(n.host)
}

// =============================================================================

// ReceiveTransaction admits a transaction coming from a peer. Once enough
// transactions are pending a mining operation is signaled.
func (n *Node) ReceiveTransaction(tx database.Transaction) error {
	n.evHandler("node: ReceiveTransaction: started: tx[%s]", tx.ID)
	defer n.evHandler("node: ReceiveTransaction: completed")

	if err := checkOrigin(tx); err != nil {
		n.evHandler("node: ReceiveTransaction: rejected: %s", err)
		return err
	}

	if err := n.state.AddTransaction(tx); err != nil {
		n.evHandler("node: ReceiveTransaction: rejected: %s", err)
		return err
	}

	n.events.Emit(events.TransactionReceived, tx)
	n.signalMiningAtThreshold()

	return nil
}

// SubmitTransaction admits a transaction created on this node and asks for
// it to be shared with the network.
func (n *Node) SubmitTransaction(tx database.Transaction) error {
	n.evHandler("node: SubmitTransaction: started: tx[%s]", tx.ID)
	defer n.evHandler("node: SubmitTransaction: completed")

	if err := checkOrigin(tx); err != nil {
		n.evHandler("node: SubmitTransaction: rejected: %s", err)
		return err
	}

	if err := n.state.AddTransaction(tx); err != nil {
		n.evHandler("node: SubmitTransaction: rejected: %s", err)
		return err
	}

	n.broadcastTransaction(tx)
	n.signalMiningAtThreshold()

	return nil
}

// SubmitStake admits a stake transfer created on this node, registers the
// stake and asks for it to be shared with the network.
func (n *Node) SubmitStake(tx database.Transaction) error {
	n.evHandler("node: SubmitStake: started: tx[%s]", tx.ID)
	defer n.evHandler("node: SubmitStake: completed")

	if err := checkOrigin(tx); err != nil {
		n.evHandler("node: SubmitStake: rejected: %s", err)
		return err
	}

	if err := n.state.Stake(tx); err != nil {
		n.evHandler("node: SubmitStake: rejected: %s", err)
		return err
	}

	n.broadcastTransaction(tx)
	n.signalMiningAtThreshold()

	return nil
}

// checkOrigin rejects transactions a wallet can't legitimately author. The
// ledger admits them, rewards are only minted inside produced blocks.
func checkOrigin(tx database.Transaction) error {
	if tx.IsReward() {
		return ErrRewardNotAccepted
	}

	if tx.To == "" {
		return ErrMissingRecipient
	}

	return nil
}

// ReceiveBlock accepts a block coming from a peer when it extends the chain
// tip. A block that does not link to the tip triggers a network sync and
// ErrSyncRequired is returned.
func (n *Node) ReceiveBlock(block database.Block) error {
	n.evHandler("node: ReceiveBlock: started: blk[%d]: hash[%s]", block.Index, block.Hash)
	defer n.evHandler("node: ReceiveBlock: completed")

	if block.PreviousHash != n.state.LatestBlock().Hash {
		n.evHandler("node: ReceiveBlock: block is not connected to the chain")
		n.SyncWithNetwork()
		return fmt.Errorf("%w: blk[%d]", ErrSyncRequired, block.Index)
	}

	// A block being mined on the same tip is now stale.
	if n.miner.IsMining() {
		done := n.miner.SignalCancelMining()
		defer done()
	}

	if err := n.state.AcceptBlock(block); err != nil {
		n.evHandler("node: ReceiveBlock: rejected: %s", err)
		return err
	}

	n.events.Emit(events.BlockReceived, block)

	return nil
}

// =============================================================================

// MineBlock signals the worker to produce a block from the pending pool.
func (n *Node) MineBlock() error {
	if n.state.PendingCount() == 0 {
		n.evHandler("node: MineBlock: no pending transactions to mine")
		return ErrNoTransactions
	}

	return n.miner.SignalStartMining()
}

// LatestBlock returns the tip of the chain.
func (n *Node) LatestBlock() database.Block {
	return n.state.LatestBlock()
}

// Chain returns a snapshot of the chain.
func (n *Node) Chain() []database.Block {
	return n.state.Chain()
}

// State returns the ledger the node operates on.
func (n *Node) State() *state.State {
	return n.state
}

// Subscribe registers a new event subscriber.
func (n *Node) Subscribe() (string, chan events.Event) {
	return n.events.Subscribe()
}

// Unsubscribe releases the subscriber.
func (n *Node) Unsubscribe(id string) error {
	return n.events.Release(id)
}

// =============================================================================

// signalMiningAtThreshold starts mining once enough transactions are pending.
func (n *Node) signalMiningAtThreshold() {
	count := n.state.PendingCount()
	if count < n.mineThreshold || n.miner.IsMining() {
		return
	}

	n.evHandler("node: signal mining: pending[%d]: threshold[%d]", count, n.mineThreshold)

	if err := n.miner.SignalStartMining(); err != nil && !errors.Is(err, worker.ErrAlreadyMining) {
		n.evHandler("node: signal mining: ERROR: %s", err)
	}
}

// broadcastTransaction asks for the transaction to be sent to every peer.
func (n *Node) broadcastTransaction(tx database.Transaction) {
	for _, p := range n.peers.Copy(n.host) {
		n.evHandler("node: broadcast: tx[%s]: peer[%s]", tx.ID, p.Host)
	}

	n.events.Emit(events.TransactionBroadcastRequested, tx)
}
