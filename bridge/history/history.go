// Package history stores the running conversation state a legacy module
// keeps between calls.
package history

// Turn is one prompt/reply exchange.
type Turn struct {
	Prompt string
	Reply  string
}

// MemoryStore accumulates turns in memory. It is instance-owned mutable
// state: sharing one store across goroutines requires external
// synchronization, the store itself does none.
type MemoryStore struct {
	turns []Turn
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append records a completed exchange.
func (m *MemoryStore) Append(turn Turn) {
	m.turns = append(m.turns, turn)
}

// Turns returns a copy of the recorded exchanges in order.
func (m *MemoryStore) Turns() []Turn {
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len returns the number of recorded exchanges.
func (m *MemoryStore) Len() int {
	return len(m.turns)
}

// Reset discards all recorded exchanges.
func (m *MemoryStore) Reset() {
	m.turns = nil
}
