package livematch

import (
	"github.com/whalefeed/whalefeed/internal/feed"
	"github.com/whalefeed/whalefeed/internal/pkg/types"
)

// DefaultBufferCapacity bounds the pending buffer. Live arrivals beyond this
// evict the oldest pending entry.
const DefaultBufferCapacity = 50

// Buffer is a bounded, most-recent-first queue of live transactions that did
// not match the active filter predicate when they arrived. Entries are
// deduplicated by signature; when the buffer is full, inserting evicts the
// oldest entry.
//
// Buffer is not safe for concurrent use; the owning service serializes access.
type Buffer struct {
	capacity int
	entries  []feed.Transaction // index 0 is the most recent
	seen     types.Set[string]  // signatures currently buffered
}

// NewBuffer creates a Buffer bounded at the given capacity. A non-positive
// capacity falls back to DefaultBufferCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &Buffer{
		capacity: capacity,
		entries:  make([]feed.Transaction, 0, capacity),
		seen:     types.NewSet[string](),
	}
}

// Insert adds the transaction at the front of the buffer. It returns false
// without modifying the buffer when an entry with the same signature is
// already pending. When the buffer is at capacity the oldest entry is evicted.
func (b *Buffer) Insert(tx feed.Transaction) bool {
	if b.seen.Has(tx.Signature) {
		return false
	}

	if len(b.entries) >= b.capacity {
		oldest := b.entries[len(b.entries)-1]
		b.entries = b.entries[:len(b.entries)-1]
		b.seen.Delete(oldest.Signature)
	}

	b.entries = append([]feed.Transaction{tx}, b.entries...)
	b.seen.Add(tx.Signature)
	return true
}

// Retain keeps only the entries for which keep returns true, preserving
// order, and returns the removed entries in buffer order.
func (b *Buffer) Retain(keep func(feed.Transaction) bool) []feed.Transaction {
	var (
		kept    = b.entries[:0]
		removed []feed.Transaction
	)

	for _, tx := range b.entries {
		if keep(tx) {
			kept = append(kept, tx)
		} else {
			removed = append(removed, tx)
			b.seen.Delete(tx.Signature)
		}
	}

	b.entries = kept
	return removed
}

// Len returns the number of pending entries.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Items returns a copy of the pending entries, most recent first.
func (b *Buffer) Items() []feed.Transaction {
	items := make([]feed.Transaction, len(b.entries))
	copy(items, b.entries)
	return items
}

// Clear drops every pending entry.
func (b *Buffer) Clear() {
	b.entries = b.entries[:0]
	b.seen = types.NewSet[string]()
}
