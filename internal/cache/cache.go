// Package cache defines the result cache contract: a flat key space mapping
// stringified Fibonacci indices to entries, plus the publish/subscribe channel
// used to notify compute workers of newly requested indices.
//
// The cache and the history store are independently writable and not
// transactionally linked: an index recorded in history whose cache entry is
// still pending is a normal intermediate state, not an error.
package cache

import (
	"context"
	"strconv"
	"time"
)

// DefaultTopic is the pub/sub topic carrying new-index notifications.
const DefaultTopic = "values.submitted"

// State identifies the lifecycle stage of a cache entry. A tagged state is
// used instead of a magic placeholder value so the pending marker can never
// collide with a legitimate computed value.
type State int

const (
	// StatePending marks an accepted request whose value is not yet computed.
	StatePending State = iota
	// StateComputed marks an entry holding the final Fibonacci value.
	StateComputed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateComputed:
		return "computed"
	default:
		return "unknown"
	}
}

// Entry is a single cache record. Value holds the decimal representation of
// the computed Fibonacci number and is empty while the entry is pending.
// UpdatedAt records the last write; the worker's reconciliation sweep uses it
// to find entries stuck in the pending state.
type Entry struct {
	State     State
	Value     string
	UpdatedAt time.Time
}

// Pending creates a placeholder entry stamped with the given time.
func Pending(now time.Time) Entry {
	return Entry{State: StatePending, UpdatedAt: now}
}

// Computed creates a completed entry holding the decimal value.
func Computed(value string, now time.Time) Entry {
	return Entry{State: StateComputed, Value: value, UpdatedAt: now}
}

// Notification is the ephemeral message signaling that an index needs
// processing. It is not persisted: delivery is at most once, to the workers
// subscribed at publish time.
type Notification struct {
	Index uint64
}

// Key returns the cache key for a Fibonacci index.
func Key(index uint64) string {
	return strconv.FormatUint(index, 10)
}

// ParseKey converts a cache key back to its Fibonacci index.
func ParseKey(key string) (uint64, error) {
	return strconv.ParseUint(key, 10, 64)
}

// Store is the result cache contract consumed by the gateway and the compute
// worker. Implementations must provide atomic single-key writes; no multi-key
// transactions are required. Methods taking a context may block on transport
// I/O and must honor cancellation.
type Store interface {
	// Get retrieves the entry for key. The boolean reports presence.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Set writes the entry for key, overwriting any existing entry.
	Set(ctx context.Context, key string, entry Entry) error

	// SetIfAbsent writes the entry only when no entry exists for key.
	// It reports whether the write happened. The gateway uses this to seed
	// pending placeholders without clobbering already-computed values.
	SetIfAbsent(ctx context.Context, key string, entry Entry) (bool, error)

	// All returns a snapshot of every entry keyed by stringified index.
	All(ctx context.Context) (map[string]Entry, error)

	// Publish sends a notification to the subscribers of topic that are
	// active at call time. Delivery is at most once; with no subscriber the
	// notification is lost.
	Publish(ctx context.Context, topic string, n Notification) error

	// Subscribe registers a subscriber on topic and returns its stream plus
	// a cancel function releasing the subscription. Each worker instance
	// holds one logical subscription.
	Subscribe(topic string, buffer int) (<-chan Notification, func())
}
