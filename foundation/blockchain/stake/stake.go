// Package stake maintains the registry of staked value used to pick the
// producer of proof of stake blocks.
package stake

import (
	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/shopspring/decimal"
)

// Source provides uniform random numbers in [0,1). A *rand.Rand from the
// math/rand package satisfies it.
type Source interface {
	Float64() float64
}

// Entry is one staker and the value it has locked.
type Entry struct {
	Address database.Address `json:"address"`
	Amount  database.Amount  `json:"amount"`
}

// Registry maps addresses to staked amounts. Iteration follows the order in
// which addresses first staked so selection is reproducible for a given
// random draw. The registry is not safe for concurrent use, the ledger
// guards it with its own lock.
type Registry struct {
	index   map[database.Address]int
	entries []Entry
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{
		index: make(map[database.Address]int),
	}
}

// Add records more stake for the address. Stake is never removed.
func (r *Registry) Add(addr database.Address, amount database.Amount) {
	if i, exists := r.index[addr]; exists {
		r.entries[i].Amount = r.entries[i].Amount.Add(amount)
		return
	}

	r.index[addr] = len(r.entries)
	r.entries = append(r.entries, Entry{Address: addr, Amount: amount})
}

// Of returns the amount staked by the address.
func (r *Registry) Of(addr database.Address) database.Amount {
	if i, exists := r.index[addr]; exists {
		return r.entries[i].Amount
	}

	return decimal.Zero
}

// Total returns the sum of every stake.
func (r *Registry) Total() database.Amount {
	total := decimal.Zero
	for _, e := range r.entries {
		total = total.Add(e.Amount)
	}

	return total
}

// Len returns the number of stakers.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the registry in insertion order.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Select draws a point uniformly in [0, total) and walks the registry
// accumulating stake, returning the first address whose cumulative stake
// meets or exceeds the draw. It reports false when nothing is staked.
func (r *Registry) Select(src Source) (database.Address, bool) {
	total := r.Total()
	if len(r.entries) == 0 || !total.IsPositive() {
		return "", false
	}

	draw := total.Mul(decimal.NewFromFloat(src.Float64()))

	cumulative := decimal.Zero
	for _, e := range r.entries {
		cumulative = cumulative.Add(e.Amount)
		if cumulative.GreaterThanOrEqual(draw) {
			return e.Address, true
		}
	}

	return r.entries[len(r.entries)-1].Address, true
}
