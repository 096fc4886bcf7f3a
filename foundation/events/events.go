// Package events allows for the registering and receiving of ledger events.
package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what happened on the node.
type Kind string

// Set of kinds a node can emit.
const (
	PeerConnected                 Kind = "peer-connected"
	PeerDisconnected              Kind = "peer-disconnected"
	TransactionReceived           Kind = "transaction-received"
	TransactionBroadcastRequested Kind = "transaction-broadcast-requested"
	BlockReceived                 Kind = "block-received"
	BlockBroadcastRequested       Kind = "block-broadcast-requested"
	MiningStarted                 Kind = "mining-started"
	MiningCompleted               Kind = "mining-completed"
	SyncStarted                   Kind = "sync-started"
	SyncCompleted                 Kind = "sync-completed"
)

// Event is a single notification delivered to subscribers.
type Event struct {
	Kind Kind      `json:"kind"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}

// NewEvent constructs an event stamped with the current time.
func NewEvent(kind Kind, data any) Event {
	return Event{
		Kind: kind,
		Time: time.Now().UTC(),
		Data: data,
	}
}

// =============================================================================

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	m  map[string]chan Event
	mu sync.RWMutex
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]chan Event),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used
// to receive events.
func (evt *Events) Acquire(id string) chan Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	// Since a message will be dropped if the websocket receiver is
	// not ready to receive, this arbitrary buffer should give the receiver
	// enough time to not lose a message. Websocket send could take long.
	const messageBuffer = 100

	evt.m[id] = make(chan Event, messageBuffer)
	return evt.m[id]
}

// Subscribe acquires a channel under a freshly generated id.
func (evt *Events) Subscribe() (string, chan Event) {
	id := uuid.NewString()
	return id, evt.Acquire(id)
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Len returns the number of registered subscribers.
func (evt *Events) Len() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send signals an event to every registered channel. Send will not block
// waiting for a receiver on any given channel.
func (evt *Events) Send(ev Event) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Emit stamps and sends an event of the specified kind.
func (evt *Events) Emit(kind Kind, data any) {
	evt.Send(NewEvent(kind, data))
}
