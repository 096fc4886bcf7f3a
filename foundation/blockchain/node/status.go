package node

import (
	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/peer"
)

// Status represents the network status of the node.
type Status struct {
	Host           string           `json:"host"`
	Producer       database.Address `json:"producer"`
	Peers          int              `json:"peers"`
	Blocks         int              `json:"blocks"`
	LatestHash     string           `json:"latest_hash"`
	Difficulty     uint             `json:"difficulty"`
	Reward         database.Amount  `json:"reward"`
	Pending        int              `json:"pending"`
	StakingEnabled bool             `json:"staking_enabled"`
	Mining         bool             `json:"mining"`
}

// Status returns the current network status of the node.
func (n *Node) Status() Status {
	return Status{
		Host:           n.host,
		Producer:       n.producer,
		Peers:          n.peers.Len(),
		Blocks:         n.state.Length(),
		LatestHash:     n.state.LatestBlock().Hash,
		Difficulty:     n.state.Difficulty(),
		Reward:         n.state.Reward(),
		Pending:        n.state.PendingCount(),
		StakingEnabled: n.state.StakingEnabled(),
		Mining:         n.miner.IsMining(),
	}
}

// PeerStatus returns the status shared with peers.
func (n *Node) PeerStatus() peer.PeerStatus {
	latest := n.state.LatestBlock()

	return peer.PeerStatus{
		LatestBlockHash:  latest.Hash,
		LatestBlockIndex: latest.Index,
		Length:           n.state.Length(),
		KnownPeers:       n.peers.Copy(n.host),
	}
}
