// Package prune implements in-place compaction of the data log: dead
// (tombstoned) records are squeezed out by sliding every live record
// leftward over the gaps they leave, and each moved record's index entry
// is repointed at its new offset. Compaction never touches the index's
// bucket layout - only the offsets stored within it - so it can run
// independently of internal/reindex.
package prune

import (
	"github.com/iamNilotpal/bucketkv/internal/bucketindex"
	"github.com/iamNilotpal/bucketkv/internal/datalog"
	"github.com/iamNilotpal/bucketkv/internal/format"
)

// Result reports what a Compact call did.
type Result struct {
	OldDataEndPos int64
	NewDataEndPos int64
	ReclaimedBytes int64
	RecordsMoved  int
}

// Compact walks the data log of file between format.HeaderSize and
// dataEndPos, dropping dead records and sliding live ones down to close
// the gaps. idx is updated in place so every surviving record's index
// entry points at its (possibly new) offset.
//
// Compact assumes exclusive access to both file and idx for its duration;
// it is the caller's responsibility (internal/engine) to hold whatever
// lock that requires, and to truncate file to Result.NewDataEndPos and
// persist the new data_end_pos afterward.
func Compact(file datalog.File, h format.Header, dataEndPos int64, idx *bucketindex.Index) (Result, error) {
	log := datalog.New(file)

	readPos := int64(format.HeaderSize)
	writePos := readPos
	moved := 0

	for readPos < dataEndPos {
		rec, err := log.ReadRecord(h, readPos)
		if err != nil {
			return Result{}, err
		}

		if rec.Live {
			if writePos != readPos {
				buf := datalog.Encode(h, rec.Key, rec.Value)
				if err := log.Append(writePos, buf); err != nil {
					return Result{}, err
				}

				hash := format.HashKey(rec.Key)
				bucket := format.BucketFor(hash, idx.NBuckets())
				idx.UpdateOffset(hash, bucket, readPos, writePos)
				moved++
			}
			writePos += int64(rec.Size)
		}

		readPos += int64(rec.Size)
	}

	return Result{
		OldDataEndPos:  dataEndPos,
		NewDataEndPos:  writePos,
		ReclaimedBytes: dataEndPos - writePos,
		RecordsMoved:   moved,
	}, nil
}
