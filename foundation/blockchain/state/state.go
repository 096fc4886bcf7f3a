// Package state is the core API for the blockchain and implements all the
// business rules and processing: transaction admission, balances, block
// production, difficulty and reward schedules, stake and fork choice.
package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/aurumchain/aurum/foundation/blockchain/consensus"
	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/genesis"
	"github.com/aurumchain/aurum/foundation/blockchain/mempool"
	"github.com/aurumchain/aurum/foundation/blockchain/stake"
	lru "github.com/hashicorp/golang-lru"
)

// Set of error variables for ledger operations.
var (
	ErrMissingAddresses    = errors.New("transaction has neither a sender nor a recipient")
	ErrInvalidSignature    = errors.New("transaction signature is invalid")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyCommitted    = errors.New("transaction already committed")
	ErrChainChanged        = errors.New("chain tip changed while the block was produced")
	ErrChainTooShort       = errors.New("candidate chain is not longer than the current chain")
	ErrInvalidChain        = errors.New("candidate chain is invalid")
	ErrGenesisMismatch     = errors.New("genesis block does not match")
	ErrNotNextBlock        = errors.New("block does not extend the chain tip")
)

// defaultBalanceCacheSize is the number of balances kept when the config
// does not set one.
const defaultBalanceCacheSize = 1024

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the ledger.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis          genesis.Genesis
	Storage          database.Storage
	EvHandler        EventHandler
	Rand             stake.Source
	Now              func() time.Time
	BalanceCacheSize int
}

// State manages the blockchain database.
type State struct {
	mu sync.Mutex

	genesis      genesis.Genesis
	genesisBlock database.Block
	evHandler    EventHandler
	rand         stake.Source
	now          func() time.Time

	chain          []database.Block
	difficulty     uint
	reward         database.Amount
	stakingEnabled bool

	stakes    *stake.Registry
	staked    map[string]struct{}
	mempool   *mempool.Mempool
	storage   database.Storage
	addresses map[database.Address]*roaring.Bitmap
	committed map[string]uint64
	balances  *lru.Cache
}

// New constructs a new ledger. Blocks held by the storage are loaded and
// validated. An empty storage is initialized with the genesis block.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	if cfg.Rand == nil {
		cfg.Rand = consensus.NewSource(time.Now().UnixNano())
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.BalanceCacheSize <= 0 {
		cfg.BalanceCacheSize = defaultBalanceCacheSize
	}

	balances, err := lru.New(cfg.BalanceCacheSize)
	if err != nil {
		return nil, err
	}

	s := State{
		genesis:      cfg.Genesis,
		genesisBlock: database.GenesisBlock(cfg.Genesis),
		evHandler:    ev,
		rand:         cfg.Rand,
		now:          cfg.Now,
		stakes:       stake.New(),
		staked:       make(map[string]struct{}),
		mempool:      mempool.New(),
		storage:      cfg.Storage,
		balances:     balances,
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Shutdown cleanly releases the storage.
func (s *State) Shutdown() error {
	s.evHandler("state: Shutdown: started")
	defer s.evHandler("state: Shutdown: completed")

	return s.storage.Close()
}

// =============================================================================

// load reads all existing blocks from storage into memory for processing.
func (s *State) load() error {
	var blocks []database.Block

	iter := s.storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return fmt.Errorf("reading storage: %w", err)
		}
		blocks = append(blocks, block)
	}

	if len(blocks) == 0 {
		s.evHandler("state: load: empty storage, writing genesis block")

		if err := s.storage.Write(s.genesisBlock); err != nil {
			return fmt.Errorf("writing genesis: %w", err)
		}
		blocks = []database.Block{s.genesisBlock}
	}

	if err := s.validateChain(blocks); err != nil {
		return fmt.Errorf("stored chain: %w", err)
	}

	s.evHandler("state: load: blocks[%d]", len(blocks))

	s.setChain(blocks)

	return nil
}

// setChain installs the chain and rebuilds every structure derived from it.
// Stake recorded by earlier chains is kept since stake is never removed.
func (s *State) setChain(blocks []database.Block) {
	s.chain = blocks
	s.rebuildIndex()
	s.difficulty, s.reward = s.replaySchedule(blocks)

	for _, block := range blocks {
		s.registerStakes(block)
	}
}

// registerStakes records the transfers to the staking address held by the
// block that were not registered before.
func (s *State) registerStakes(block database.Block) {
	for _, tx := range block.Transactions {
		if tx.To != database.StakingAddress || tx.IsReward() {
			continue
		}

		if _, exists := s.staked[tx.ID]; exists {
			continue
		}

		s.staked[tx.ID] = struct{}{}
		s.stakes.Add(tx.From, tx.Amount)
	}
}
