package statscollector

import (
	"sort"
	"sync"

	"github.com/voluzi/rtst/pkg/sar"
)

// Buffer is a fixed-capacity ring of records ordered by time. When full, each
// append evicts the oldest record.
type Buffer struct {
	lock    sync.RWMutex
	records []*sar.Record
	head    int
	size    int
}

func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{records: make([]*sar.Record, capacity)}
}

// Append adds rec at the tail. Callers must append in non-decreasing time order.
func (b *Buffer) Append(rec *sar.Record) {
	b.lock.Lock()
	defer b.lock.Unlock()

	capacity := len(b.records)
	if b.size < capacity {
		b.records[(b.head+b.size)%capacity] = rec
		b.size++
		return
	}
	b.records[b.head] = rec
	b.head = (b.head + 1) % capacity
}

// Len returns the number of retained records.
func (b *Buffer) Len() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.size
}

// Since returns, oldest first, a snapshot of every record newer than cutoff.
func (b *Buffer) Since(cutoff int64) []*sar.Record {
	b.lock.RLock()
	defer b.lock.RUnlock()

	first := sort.Search(b.size, func(i int) bool {
		return b.at(i).Time > cutoff
	})

	result := make([]*sar.Record, 0, b.size-first)
	for i := first; i < b.size; i++ {
		result = append(result, b.at(i))
	}
	return result
}

// Latest returns the newest record, if any.
func (b *Buffer) Latest() (*sar.Record, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if b.size == 0 {
		return nil, false
	}
	return b.at(b.size - 1), true
}

// at returns the i-th oldest record. The caller must hold the lock.
func (b *Buffer) at(i int) *sar.Record {
	return b.records[(b.head+i)%len(b.records)]
}
