package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aurumchain/aurum/foundation/blockchain/consensus"
	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/state"
	"github.com/aurumchain/aurum/foundation/events"
)

// ErrNotSelected is returned when proof of stake picked a different staker
// than this node's producer.
var ErrNotSelected = errors.New("producer was not selected to forge the block")

// Started is the data of a mining-started event.
type Started struct {
	Producer database.Address `json:"producer"`
	Mode     consensus.Mode   `json:"mode"`
	Pending  int              `json:"pending"`
}

// Completed is the data of a mining-completed event.
type Completed struct {
	Producer database.Address `json:"producer"`
	Mode     consensus.Mode   `json:"mode"`
	Produced bool             `json:"produced"`
	Block    *database.Block  `json:"block,omitempty"`
	Duration time.Duration    `json:"duration"`
	Error    string           `json:"error,omitempty"`
}

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation takes all the transactions from the mempool and writes a
// new block to the database.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	// The next signal is only accepted once this operation is fully done.
	defer w.busy.Store(false)

	// Make sure there are transactions in the mempool.
	length := w.state.PendingCount()
	if length == 0 {
		w.evHandler("worker: runMiningOperation: MINING: no transactions to mine: Txs[%d]", length)
		return
	}

	// If mining is signalled to be cancelled by the node, this G can't
	// terminate until it is told it can.
	var wait chan struct{}
	defer func() {
		if wait != nil {
			w.evHandler("worker: runMiningOperation: MINING: termination signal: waiting")
			<-wait
			w.evHandler("worker: runMiningOperation: MINING: termination signal: received")
		}
	}()

	// Drain the cancel mining channel before starting.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: drained cancel channel")
	default:
	}

	mode := w.selector(w.state.StakingEnabled())
	w.evHandler("worker: runMiningOperation: MINING: mode[%s]: Txs[%d]", mode, length)
	w.emit(events.MiningStarted, Started{Producer: w.producer, Mode: mode, Pending: length})

	var block database.Block
	var err error

	t := time.Now()
	switch mode {
	case consensus.ProofOfStake:
		block, err = w.forge()
	default:
		block, wait, err = w.mine()
	}
	duration := time.Since(t)

	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

	completed := Completed{
		Producer: w.producer,
		Mode:     mode,
		Duration: duration,
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrNotSelected):
			w.evHandler("worker: runMiningOperation: MINING: abstain: %s", err)
		case errors.Is(err, state.ErrChainChanged):
			w.evHandler("worker: runMiningOperation: MINING: WARNING: chain changed, block discarded")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete: %s", err)
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		}

		completed.Error = err.Error()
		w.emit(events.MiningCompleted, completed)
		return
	}

	completed.Produced = true
	completed.Block = &block
	w.emit(events.MiningCompleted, completed)

	// WOW, we mined a block. Ask for the block to be proposed to the network.
	w.evHandler("worker: runMiningOperation: MINING: broadcast: blk[%d]: hash[%s]", block.Index, block.Hash)
	w.emit(events.BlockBroadcastRequested, block)
}

// mine performs the proof of work with a context that can be cancelled by
// SignalCancelMining or the mining timeout. The returned channel is set when
// a cancel was requested.
func (w *Worker) mine() (block database.Block, wait chan struct{}, err error) {
	var ctx context.Context
	var cancel context.CancelFunc

	switch {
	case w.timeout > 0:
		ctx, cancel = context.WithTimeout(context.Background(), w.timeout)
	default:
		ctx, cancel = context.WithCancel(context.Background())
	}
	defer cancel()

	// Can't return from this function until these G's are complete.
	var wg sync.WaitGroup
	wg.Add(2)

	// This G exists to cancel the mining operation.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case wait = <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
		case <-ctx.Done():
		}
	}()

	// This G is performing the mining.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		block, err = w.state.MinePendingTransactions(ctx, w.producer)
	}()

	// Wait for both G's to terminate.
	wg.Wait()

	return block, wait, err
}

// forge produces a proof of stake block when this node's producer is the
// selected staker.
func (w *Worker) forge() (database.Block, error) {
	staker, ok := w.state.SelectNextStaker()
	if !ok {
		return database.Block{}, fmt.Errorf("%w: no stake registered", ErrNotSelected)
	}

	if staker != w.producer {
		return database.Block{}, fmt.Errorf("%w: selected[%s]", ErrNotSelected, staker)
	}

	return w.state.ForgePendingTransactions(w.producer)
}
