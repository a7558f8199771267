package cache

import (
	"context"
	"sync"
)

// MemoryStore implements Store with in-process storage and channel-based
// pub/sub fanout. All methods are safe for concurrent use.
//
// Publish never blocks: a subscriber whose buffer is full misses the
// notification (at-most-once delivery). The worker's reconciliation sweep
// covers entries whose notifications were dropped.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Entry

	subMu   sync.Mutex
	subs    map[string][]chan Notification
	dropped uint64
}

// NewMemoryStore creates an empty in-memory result cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]Entry),
		subs: make(map[string][]chan Notification),
	}
}

// Get retrieves the entry for key.
func (m *MemoryStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.data[key]
	return entry, ok, nil
}

// Set writes the entry for key, overwriting any existing entry.
func (m *MemoryStore) Set(ctx context.Context, key string, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = entry
	return nil
}

// SetIfAbsent writes the entry only when the key has no entry yet.
func (m *MemoryStore) SetIfAbsent(ctx context.Context, key string, entry Entry) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.data[key]; exists {
		return false, nil
	}
	m.data[key] = entry
	return true, nil
}

// All returns a snapshot copy of every entry.
func (m *MemoryStore) All(ctx context.Context) (map[string]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(map[string]Entry, len(m.data))
	for key, entry := range m.data {
		snapshot[key] = entry
	}
	return snapshot, nil
}

// Publish delivers the notification to every current subscriber of topic
// without blocking. Full subscriber buffers drop the notification.
func (m *MemoryStore) Publish(ctx context.Context, topic string, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for _, ch := range m.subs[topic] {
		select {
		case ch <- n:
		default:
			m.dropped++
		}
	}
	return nil
}

// Subscribe registers a buffered subscriber on topic. The returned cancel
// function removes the subscription and closes the stream.
func (m *MemoryStore) Subscribe(topic string, buffer int) (<-chan Notification, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Notification, buffer)

	m.subMu.Lock()
	m.subs[topic] = append(m.subs[topic], ch)
	m.subMu.Unlock()

	cancel := func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		channels := m.subs[topic]
		for i, sub := range channels {
			if sub == ch {
				m.subs[topic] = append(channels[:i], channels[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Stats reports a point-in-time summary of the cache contents.
type Stats struct {
	Keys     int    // total entries
	Pending  int    // entries awaiting computation
	Computed int    // entries holding a value
	Dropped  uint64 // notifications dropped for lack of buffer space
}

// Stats returns current cache statistics.
func (m *MemoryStore) Stats() Stats {
	m.mu.RLock()
	stats := Stats{Keys: len(m.data)}
	for _, entry := range m.data {
		if entry.State == StatePending {
			stats.Pending++
		} else {
			stats.Computed++
		}
	}
	m.mu.RUnlock()

	m.subMu.Lock()
	stats.Dropped = m.dropped
	m.subMu.Unlock()

	return stats
}

var _ Store = (*MemoryStore)(nil)
