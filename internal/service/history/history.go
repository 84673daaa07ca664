package history

import (
	"sync"

	"github.com/zhouzirui/mood-story/backend/internal/model/story"
)

// History is an append-only log of records for one session.
// Append and Clear are the only mutations.
type History struct {
	mu      sync.RWMutex
	records []story.Record
}

// New returns an empty history.
func New() *History {
	return &History{records: make([]story.Record, 0, 8)}
}

// Append adds a record at the end.
func (h *History) Append(record story.Record) {
	h.mu.Lock()
	h.records = append(h.records, record)
	h.mu.Unlock()
}

// Clear drops every record.
func (h *History) Clear() {
	h.mu.Lock()
	h.records = make([]story.Record, 0, 8)
	h.mu.Unlock()
}

// All returns a copy of the records in insertion order.
func (h *History) All() []story.Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	copied := make([]story.Record, len(h.records))
	copy(copied, h.records)
	return copied
}

// Newest returns a copy of the records, most recent first.
func (h *History) Newest() []story.Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	reversed := make([]story.Record, len(h.records))
	for i, record := range h.records {
		reversed[len(h.records)-1-i] = record
	}
	return reversed
}

// Len returns the number of records.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}
