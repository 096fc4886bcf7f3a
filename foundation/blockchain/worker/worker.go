// Package worker implements the background block production for the
// blockchain. Only one mining operation can be in flight at a time.
package worker

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aurumchain/aurum/foundation/blockchain/consensus"
	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/state"
	"github.com/aurumchain/aurum/foundation/events"
)

// ErrAlreadyMining is returned when a mining operation is requested while
// another one is signaled or running.
var ErrAlreadyMining = errors.New("mining already in progress")

// Emitter receives the events produced by the worker.
type Emitter func(kind events.Kind, data any)

// Config represents the configuration required to start the worker.
type Config struct {
	State         *state.State
	Selector      consensus.Selector
	Producer      database.Address
	EvHandler     state.EventHandler
	Emit          Emitter
	MiningTimeout time.Duration
}

// =============================================================================

// Worker manages the block production workflow for the blockchain.
type Worker struct {
	state        *state.State
	selector     consensus.Selector
	producer     database.Address
	timeout      time.Duration
	wg           sync.WaitGroup
	shut         chan struct{}
	startMining  chan bool
	cancelMining chan chan struct{}
	busy         atomic.Bool
	evHandler    state.EventHandler
	emit         Emitter
}

// Run creates a worker and starts up the mining goroutine.
func Run(cfg Config) *Worker {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	emit := func(kind events.Kind, data any) {
		if cfg.Emit != nil {
			cfg.Emit(kind, data)
		}
	}

	if cfg.Selector == nil {
		cfg.Selector, _ = consensus.Retrieve(consensus.StrategyWork, nil)
	}

	w := Worker{
		state:        cfg.State,
		selector:     cfg.Selector,
		producer:     cfg.Producer,
		timeout:      cfg.MiningTimeout,
		shut:         make(chan struct{}),
		startMining:  make(chan bool, 1),
		cancelMining: make(chan chan struct{}, 1),
		evHandler:    ev,
		emit:         emit,
	}

	w.wg.Add(1)

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	go func() {
		defer w.wg.Done()
		hasStarted <- true
		w.miningOperations()
	}()

	<-hasStarted

	return &w
}

// Shutdown terminates the goroutine performing work. A mining operation in
// flight is cancelled first.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: signal cancel mining")
	done := w.SignalCancelMining()
	done()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. Requests are not queued, if
// an operation is already signaled or running ErrAlreadyMining is returned.
func (w *Worker) SignalStartMining() error {
	if w.isShutdown() {
		return errors.New("worker is shut down")
	}

	if !w.busy.CompareAndSwap(false, true) {
		w.evHandler("worker: SignalStartMining: mining already in progress")
		return ErrAlreadyMining
	}

	w.startMining <- true
	w.evHandler("worker: SignalStartMining: mining signaled")

	return nil
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately. That G will not return from the function until done
// is called. This allows the caller to complete any state changes before a
// new mining operation takes place.
func (w *Worker) SignalCancelMining() (done func()) {
	wait := make(chan struct{})

	select {
	case w.cancelMining <- wait:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")

	return func() { close(wait) }
}

// IsMining reports whether a mining operation is signaled or running.
func (w *Worker) IsMining() bool {
	return w.busy.Load()
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
