// Package reindex grows a store's bucket-offset table along the fixed
// bucket-growth schedule once the ratio of live entries to buckets gets
// too high for linear probing within a bucket to stay cheap.
//
// Growth rebuilds the index region rather than shifting it incrementally:
// every live entry is collected, the region is reshaped to a pristine
// table sized for the new bucket count, and each entry is reinserted into
// its (possibly different) bucket under the larger table. This trades a
// full index rewrite - proportional to the number of live entries, not
// the number of buckets - for a much simpler and more obviously correct
// implementation than redistributing the old layout in place.
package reindex

import (
	"github.com/iamNilotpal/bucketkv/internal/bucketindex"
	"github.com/iamNilotpal/bucketkv/internal/format"
)

// Result reports what a Grow call did.
type Result struct {
	Grew        bool
	OldBuckets  uint32
	NewBuckets  uint32
	EntryCount  int
}

// ShouldGrow reports whether liveCount live entries over nBuckets buckets
// has crossed the load factor that warrants a reindex.
func ShouldGrow(liveCount int, nBuckets uint32) bool {
	return uint64(liveCount) > uint64(nBuckets)*format.ReindexLoadFactor
}

// Grow advances idx to the next bucket count in the growth schedule,
// redistributing every live entry. If idx has already reached the
// schedule's cap, Grow is a no-op and returns Result{Grew: false}.
//
// The new position each entry lands at within the rebuilt index is purely
// a function of its hash and the new bucket count; nothing about a prior
// session's reindex call is carried forward, matching the design decision
// that a reindex's resulting data-log positions are never consulted by
// callers (entries only ever carry data-log offsets, never index
// positions).
func Grow(idx *bucketindex.Index) (Result, error) {
	oldBuckets := idx.NBuckets()
	newBuckets, ok := format.NextBucketCount(oldBuckets)
	if !ok {
		return Result{Grew: false, OldBuckets: oldBuckets, NewBuckets: oldBuckets}, nil
	}

	type liveEntry struct {
		hash   [format.KeyHashLen]byte
		offset int64
	}
	var live []liveEntry
	if err := idx.Iterate(func(hash [format.KeyHashLen]byte, offset int64) error {
		live = append(live, liveEntry{hash: hash, offset: offset})
		return nil
	}); err != nil {
		return Result{}, err
	}

	if err := idx.Reinit(newBuckets); err != nil {
		return Result{}, err
	}

	for _, e := range live {
		bucket := format.BucketFor(e.hash, newBuckets)
		if err := idx.Insert(e.hash, bucket, e.offset); err != nil {
			return Result{}, err
		}
	}

	return Result{Grew: true, OldBuckets: oldBuckets, NewBuckets: newBuckets, EntryCount: len(live)}, nil
}
