package engine

import (
	"github.com/iamNilotpal/bucketkv/internal/datalog"
	"github.com/iamNilotpal/bucketkv/internal/format"
	"github.com/iamNilotpal/bucketkv/internal/prune"
	"github.com/iamNilotpal/bucketkv/internal/reindex"
	pkgerrors "github.com/iamNilotpal/bucketkv/pkg/errors"
)

// Get returns the value stored under key, checking the pending write
// buffer before falling back to the on-disk index and data log.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := format.HashKey(key)
	bucket := format.BucketFor(hash, s.header.NBuckets)

	if v, ok := s.lookupPendingLocked(hash, key); ok {
		return v, true, nil
	}

	offset, ok := s.idx.Lookup(hash, bucket)
	if !ok {
		return nil, false, nil
	}

	rec, err := s.dlog.ReadRecord(s.header, offset)
	if err != nil {
		return nil, false, pkgerrors.NewStoreError(err, pkgerrors.ErrorCodePayloadReadFailure, "failed to read record").WithPath(s.path).WithOffset(offset)
	}
	if !rec.Live {
		return nil, false, nil
	}
	return cloneBytes(rec.Value), true, nil
}

// lookupPendingLocked scans the not-yet-flushed write buffer for key,
// most recent write first, so a Get immediately following a Set observes
// it without forcing a flush.
func (s *Store) lookupPendingLocked(hash [format.KeyHashLen]byte, key []byte) ([]byte, bool) {
	pending := s.buf.Pending()
	for i := len(pending) - 1; i >= 0; i-- {
		p := pending[i]
		if p.Hash != hash || p.Key != string(key) {
			continue
		}
		rec, ok := datalog.Decode(s.header, s.buf.Bytes()[p.RelOffset:])
		if !ok {
			continue
		}
		return cloneBytes(rec.Value), true
	}
	return nil, false
}

// Contains reports whether key has a live entry. It is built on Get, so the
// value is read (and discarded) as well.
func (s *Store) Contains(key []byte) (bool, error) {
	_, ok, err := s.Get(key)
	return ok, err
}

// Set stores value under key, buffering the write until the buffer fills
// or Sync/Close is called. For a fixed-value-length store, len(value)
// must equal the configured value length.
func (s *Store) Set(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return pkgerrors.NewReadOnlyError("Set")
	}
	if s.header.Layout == format.LayoutFixed && uint32(len(value)) != s.header.ValueLen {
		return pkgerrors.NewFieldRangeError("value", len(value), s.header.ValueLen, s.header.ValueLen)
	}

	hash := format.HashKey(key)
	bucket := format.BucketFor(hash, s.header.NBuckets)

	if !s.buf.Add(s.header, key, value, hash, bucket) {
		if err := s.flushBufferLocked(); err != nil {
			return err
		}
		if !s.buf.Add(s.header, key, value, hash, bucket) {
			return pkgerrors.NewStoreError(nil, pkgerrors.ErrorCodeInternal, "record does not fit in an empty write buffer").WithPath(s.path)
		}
	}
	return nil
}

// Delete removes key from the store. It forces a Sync first so any
// buffered write to the same key is accounted for before the tombstone is
// applied.
func (s *Store) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return pkgerrors.NewReadOnlyError("Delete")
	}
	if err := s.syncLocked(); err != nil {
		return err
	}

	hash := format.HashKey(key)
	bucket := format.BucketFor(hash, s.header.NBuckets)

	offset, ok := s.idx.Lookup(hash, bucket)
	if !ok {
		return pkgerrors.NewKeyNotFoundError(string(key), bucket)
	}
	if err := s.dlog.Tombstone(offset); err != nil {
		return pkgerrors.ClassifySyncError(err, s.path, offset)
	}
	s.idx.Tombstone(hash, bucket)
	s.header.NDeletes++
	s.liveCnt--

	return s.writeHeaderLocked()
}

// flushBufferLocked appends every buffered record to the data log in one
// write, tombstones any entry each buffered key superseded, and inserts
// the new index entries. Callers must hold s.mu.
func (s *Store) flushBufferLocked() error {
	if s.buf.Empty() {
		return nil
	}

	base := s.header.DataEndPos
	data := s.buf.Bytes()
	if err := s.dlog.Append(base, data); err != nil {
		return pkgerrors.ClassifySyncError(err, s.path, base)
	}

	for _, p := range s.buf.Pending() {
		if prev, found := s.idx.Lookup(p.Hash, p.Bucket); found {
			if err := s.dlog.Tombstone(prev); err != nil {
				return pkgerrors.ClassifySyncError(err, s.path, prev)
			}
			s.idx.Tombstone(p.Hash, p.Bucket)
			s.header.NDeletes++
		} else {
			s.liveCnt++
		}

		newOffset := base + int64(p.RelOffset)
		if err := s.idx.Insert(p.Hash, p.Bucket, newOffset); err != nil {
			return err
		}
	}

	s.header.DataEndPos = base + int64(len(data))
	s.buf.Reset()
	return nil
}

// Sync flushes the pending write buffer to the data log, grows the bucket
// index if the load factor warrants it, and persists the updated header.
// It is a no-op (beyond persisting the header) on a store with nothing
// buffered.
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked()
}

func (s *Store) syncLocked() error {
	if s.readOnly {
		return nil
	}
	if err := s.flushBufferLocked(); err != nil {
		return err
	}

	if reindex.ShouldGrow(s.liveCnt, s.idx.NBuckets()) {
		result, err := reindex.Grow(s.idx)
		if err != nil {
			return err
		}
		if result.Grew {
			s.header.NBuckets = result.NewBuckets
			s.header.NDeletes = 0
			s.log.Infow("reindexed", "path", s.path, "oldBuckets", result.OldBuckets, "newBuckets", result.NewBuckets, "entries", result.EntryCount)
		}
	}

	if err := s.writeHeaderLocked(); err != nil {
		return err
	}
	if err := s.file.Sync(); err != nil {
		return pkgerrors.ClassifySyncError(err, s.path, 0)
	}
	if err := s.idx.Sync(); err != nil {
		return pkgerrors.ClassifySyncError(err, s.auxPath, 0)
	}
	return nil
}

// Prune compacts the data log, squeezing out every tombstoned record and
// repointing surviving index entries at their new offsets. It forces a
// Sync first so the compaction walk covers every buffered write.
func (s *Store) Prune() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return pkgerrors.NewReadOnlyError("Prune")
	}
	if err := s.syncLocked(); err != nil {
		return err
	}

	result, err := prune.Compact(s.file, s.header, s.header.DataEndPos, s.idx)
	if err != nil {
		return err
	}
	if err := s.file.Truncate(result.NewDataEndPos); err != nil {
		return pkgerrors.ClassifySyncError(err, s.path, result.NewDataEndPos)
	}

	s.header.DataEndPos = result.NewDataEndPos
	s.log.Infow("pruned", "path", s.path, "reclaimedBytes", result.ReclaimedBytes, "recordsMoved", result.RecordsMoved)
	return s.writeHeaderLocked()
}

// Clear discards every record and resets the store to its just-created
// state: an empty data log and a fresh, minimum-size bucket index.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return pkgerrors.NewReadOnlyError("Clear")
	}

	s.buf.Reset()
	if err := s.file.Truncate(format.HeaderSize); err != nil {
		return pkgerrors.ClassifySyncError(err, s.path, format.HeaderSize)
	}
	if err := s.idx.Reinit(format.InitialBucketCount); err != nil {
		return err
	}

	s.header.DataEndPos = format.HeaderSize
	s.header.NDeletes = 0
	s.header.NBuckets = format.InitialBucketCount
	s.liveCnt = 0

	return s.writeHeaderLocked()
}

// Len returns the number of live entries currently in the store,
// including any not-yet-flushed writes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Buffered writes count once per key hash, and only when the index has
	// no live entry for that hash yet - the same rule flushBufferLocked uses
	// when it bumps liveCnt.
	n := s.liveCnt
	seen := make(map[[format.KeyHashLen]byte]struct{})
	for _, p := range s.buf.Pending() {
		if _, dup := seen[p.Hash]; dup {
			continue
		}
		seen[p.Hash] = struct{}{}
		if _, found := s.idx.Lookup(p.Hash, p.Bucket); !found {
			n++
		}
	}
	return n
}

// Each calls fn for every live key/value pair in the store. It flushes
// the write buffer first (on a writable store) so the walk sees a
// consistent, fully on-disk view. Iteration stops and returns fn's error
// as soon as fn returns one.
func (s *Store) Each(fn func(key, value []byte) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.readOnly {
		if err := s.syncLocked(); err != nil {
			return err
		}
	}

	// Walk the data log itself in file order rather than the bucket
	// index, matching the glossary's definition of iteration order; the
	// index only tells us which offsets are live, not a visiting order.
	pos := int64(format.HeaderSize)
	for pos < s.header.DataEndPos {
		rec, err := s.dlog.ReadRecord(s.header, pos)
		if err != nil {
			return pkgerrors.NewStoreError(err, pkgerrors.ErrorCodePayloadReadFailure, "failed to read record during iteration").WithPath(s.path).WithOffset(pos)
		}
		if rec.Live {
			if err := fn(cloneBytes(rec.Key), cloneBytes(rec.Value)); err != nil {
				return err
			}
		}
		pos += int64(rec.Size)
	}
	return nil
}

// Keys returns every live key in the store.
func (s *Store) Keys() ([][]byte, error) {
	var keys [][]byte
	err := s.Each(func(key, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	return keys, err
}

// Values returns every live value in the store.
func (s *Store) Values() ([][]byte, error) {
	var values [][]byte
	err := s.Each(func(_, value []byte) error {
		values = append(values, value)
		return nil
	})
	return values, err
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
