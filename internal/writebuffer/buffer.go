// Package writebuffer stages encoded records in memory before they are
// appended to the data log in a single write, and tracks the pending
// (key-hash, bucket) pairs that still need their index entries inserted.
// Batching writes this way turns many small appends into one larger one,
// and lets the index update pass (internal/engine's flushBufferLocked) apply
// every pending change to the mapped index region in one pass instead of
// one mmap write per key.
package writebuffer

import (
	"github.com/iamNilotpal/bucketkv/internal/datalog"
	"github.com/iamNilotpal/bucketkv/internal/format"
)

// Pending describes one buffered write still waiting for its index entry
// to be inserted.
type Pending struct {
	Hash      [format.KeyHashLen]byte
	Bucket    uint32
	Key       string
	RelOffset int // byte offset of this record within Buffer's pending data.
}

// Buffer accumulates encoded records up to a configured size before the
// caller flushes it to the data log.
type Buffer struct {
	maxSize int
	data    []byte
	pending []Pending
}

// New returns an empty Buffer that holds at most maxSize bytes of pending
// record data before Add reports it is full.
func New(maxSize int) *Buffer {
	return &Buffer{maxSize: maxSize, data: make([]byte, 0, maxSize)}
}

// Add encodes key/value per h and appends it to the buffer. It returns
// false without modifying the buffer if doing so would exceed maxSize and
// the buffer is non-empty; the caller is expected to flush and retry. A
// single record larger than maxSize is still accepted into an empty
// buffer so it isn't permanently unwritable.
func (b *Buffer) Add(h format.Header, key, value []byte, hash [format.KeyHashLen]byte, bucket uint32) bool {
	rec := datalog.Encode(h, key, value)
	if len(b.data) > 0 && len(b.data)+len(rec) > b.maxSize {
		return false
	}

	relOffset := len(b.data)
	b.data = append(b.data, rec...)
	b.pending = append(b.pending, Pending{Hash: hash, Bucket: bucket, Key: string(key), RelOffset: relOffset})
	return true
}

// Bytes returns the buffered record bytes, ready to append to the data log
// starting at the current data_end_pos.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Pending returns the buffered (hash, bucket) pairs awaiting index
// insertion, in write order.
func (b *Buffer) Pending() []Pending {
	return b.pending
}

// Empty reports whether the buffer holds no pending writes.
func (b *Buffer) Empty() bool {
	return len(b.pending) == 0
}

// Size returns the number of bytes currently buffered.
func (b *Buffer) Size() int {
	return len(b.data)
}

// Reset clears the buffer for reuse.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.pending = b.pending[:0]
}
