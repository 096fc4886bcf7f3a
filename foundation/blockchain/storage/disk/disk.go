// Package disk implements the ability to read and write blocks to disk
// using a badger key/value store.
package disk

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/dgraph-io/badger/v2"
)

// blockPrefix namespaces the block keys. Keys sort by block index since the
// index is stored big endian.
var blockPrefix = []byte("block:")

// Disk represents the storage implementation for reading and storing blocks
// in a badger database. This implements the database.Storage interface.
type Disk struct {
	mu   sync.RWMutex
	db   *badger.DB
	next uint64
}

// New opens the badger database at the specified directory.
func New(dbPath string) (*Disk, error) {
	return open(badger.DefaultOptions(dbPath).WithLogger(nil))
}

func open(opts badger.Options) (*Disk, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}

	d := Disk{
		db: db,
	}

	// Count the stored blocks so writes continue where the chain ends.
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(blockPrefix); it.ValidForPrefix(blockPrefix); it.Next() {
			d.next++
		}

		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &d, nil
}

// Close releases the badger database.
func (d *Disk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.db.Close()
}

// Write takes the specified block and stores it under its index. Blocks
// must be written in index order starting with genesis.
func (d *Disk) Write(block database.Block) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if block.Index != d.next {
		return fmt.Errorf("%w: got %d, exp %d", database.ErrBlockOutOfOrder, block.Index, d.next)
	}

	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	err = d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(block.Index), data)
	})
	if err != nil {
		return err
	}

	d.next++

	return nil
}

// GetBlock searches the store to locate and return the contents of the
// specified block by index.
func (d *Disk) GetBlock(num uint64) (database.Block, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var block database.Block
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(num))
		if err != nil {
			return err
		}

		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		return json.Unmarshal(data, &block)
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return database.Block{}, errors.New("block does not exist")
	}

	return block, err
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (d *Disk) ForEach() database.Iterator {
	return &diskIterator{storage: d}
}

// Reset will clear out the blockchain on disk.
func (d *Disk) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var keys [][]byte
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(blockPrefix); it.ValidForPrefix(blockPrefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}

		return nil
	})
	if err != nil {
		return err
	}

	wb := d.db.NewWriteBatch()
	defer wb.Cancel()

	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return err
		}
	}

	if err := wb.Flush(); err != nil {
		return err
	}

	d.next = 0
	return nil
}

// =============================================================================

func key(index uint64) []byte {
	k := make([]byte, len(blockPrefix)+8)
	copy(k, blockPrefix)
	binary.BigEndian.PutUint64(k[len(blockPrefix):], index)
	return k
}

// diskIterator represents the iteration implementation for walking
// through and reading blocks on disk. This implements the database
// Iterator interface.
type diskIterator struct {
	storage *Disk  // Access to the storage API.
	current uint64 // Current block index being iterated over.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from disk. A block that fails to decode is
// reported and ends the iteration.
func (di *diskIterator) Next() (database.Block, error) {
	if di.eoc {
		return database.Block{}, database.ErrEndOfChain
	}

	di.storage.mu.RLock()
	last := di.storage.next
	di.storage.mu.RUnlock()

	if di.current >= last {
		di.eoc = true
		return database.Block{}, database.ErrEndOfChain
	}

	block, err := di.storage.GetBlock(di.current)
	if err != nil {
		return database.Block{}, err
	}

	di.current++

	return block, nil
}

// Done returns the end of chain value.
func (di *diskIterator) Done() bool {
	return di.eoc
}
