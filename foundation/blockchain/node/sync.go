package node

import (
	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/events"
)

// SyncResult is the data of a sync-completed event.
type SyncResult struct {
	Host     string `json:"host"`
	Replaced bool   `json:"replaced"`
	Length   int    `json:"length"`
	Error    string `json:"error,omitempty"`
}

// SyncWithPeer adopts the chain received from the peer when it is longer
// than the local chain and valid. A nil candidate only records the sync.
func (n *Node) SyncWithPeer(host string, candidate []database.Block) error {
	n.evHandler("node: SyncWithPeer: started: %s: candidate[%d]", host, len(candidate))
	defer n.evHandler("node: SyncWithPeer: completed: %s", host)

	n.events.Emit(events.SyncStarted, host)

	result := SyncResult{Host: host}

	var err error
	if candidate != nil {
		err = n.replaceChain(candidate)
		result.Replaced = err == nil
		if err != nil {
			result.Error = err.Error()
		}
	}

	result.Length = n.state.Length()
	n.events.Emit(events.SyncCompleted, result)

	return err
}

// SyncWithNetwork requests a sync from every connected peer.
func (n *Node) SyncWithNetwork() {
	n.evHandler("node: SyncWithNetwork: started")
	defer n.evHandler("node: SyncWithNetwork: completed")

	for _, p := range n.peers.Copy(n.host) {
		n.SyncWithPeer(p.Host, nil)
	}
}

// replaceChain stops any mining operation working on the old tip while the
// candidate replaces the chain.
func (n *Node) replaceChain(candidate []database.Block) error {
	if n.miner.IsMining() {
		done := n.miner.SignalCancelMining()
		defer done()
	}

	return n.state.ReplaceChain(candidate)
}
