// Package bucketindex implements the on-disk bucket hash index: a table of
// bucket offsets followed by, for each bucket, a packed run of
// (key-hash, data-log-offset) entries. Lookups hash the key, select a
// bucket, then linearly scan that bucket's packed entries comparing only
// the stored hash - no raw key ever round-trips through the index.
//
// The region is backed by a growable mmap so inserts (which shift every
// byte after the insertion point to open a gap) and reindex (which
// redistributes every entry into a larger bucket-offset table) operate on
// a byte slice rather than a sequence of seeks.
package bucketindex

import (
	"encoding/binary"
	"os"

	"github.com/iamNilotpal/bucketkv/internal/format"
	"github.com/iamNilotpal/bucketkv/internal/mmapfile"
	pkgerrors "github.com/iamNilotpal/bucketkv/pkg/errors"
	"golang.org/x/sys/unix"
)

// EntrySize is the byte width of one packed index entry: a truncated key
// hash followed by an encoded data-log offset.
const EntrySize = format.KeyHashLen + offsetWidth

// offsetWidth is the byte width of an encoded data-log offset within an
// index entry.
const offsetWidth = 6

// Index is a bucket hash table mapped over a region of an open file.
// Callers are responsible for keeping the mapped region in sync with the
// file's actual size (via Grow) and for holding whatever lock coordinates
// concurrent access - Index itself is not safe for concurrent use.
type Index struct {
	file        *os.File
	mm          *mmapfile.File
	regionStart int64 // absolute file offset where the index region begins.
	alignedAt   int64 // absolute file offset the mapping actually starts at (<= regionStart).
	viewOffset  int   // regionStart - alignedAt: bytes of padding before the region within the mapping.
	nBuckets    uint32
}

// Open maps the index region of file, which spans [regionStart, regionStart+regionSize).
// mmap requires its offset argument to be a multiple of the system's
// allocation granularity; regionStart itself rarely is, since it sits right
// after a variable-length data log. Open instead maps from the nearest
// preceding aligned offset and keeps the small byte delta (viewOffset) as
// padding at the front of the mapping, invisible to every other method.
func Open(file *os.File, regionStart int64, regionSize int, nBuckets uint32, readOnly bool) (*Index, error) {
	pageSize := int64(unix.Getpagesize())
	alignedAt := regionStart - (regionStart % pageSize)
	viewOffset := int(regionStart - alignedAt)

	mm, err := mmapfile.Map(file, alignedAt, viewOffset+regionSize, readOnly)
	if err != nil {
		return nil, err
	}

	return &Index{
		file:        file,
		mm:          mm,
		regionStart: regionStart,
		alignedAt:   alignedAt,
		viewOffset:  viewOffset,
		nBuckets:    nBuckets,
	}, nil
}

// view returns the mapped bytes starting at the logical region, skipping
// any alignment padding Open introduced in front of it.
func (idx *Index) view() []byte {
	return idx.mm.Bytes()[idx.viewOffset:]
}

// NewRegionSize returns the byte size of a pristine (no entries) index
// region for a table of nBuckets buckets: the bucket-offset table alone,
// every bucket starting and ending at the same position.
func NewRegionSize(nBuckets uint32) int {
	return int(nBuckets+1) * format.NBytesIndex
}

// Init writes a pristine bucket-offset table (every bucket empty) into buf,
// which must be at least NewRegionSize(nBuckets) bytes.
func Init(buf []byte, nBuckets uint32) {
	tableLen := int(nBuckets+1) * format.NBytesIndex
	for i := 0; i <= int(nBuckets); i++ {
		binary.LittleEndian.PutUint32(buf[i*format.NBytesIndex:], uint32(tableLen))
	}
}

// Close flushes and unmaps the index region without affecting the file's size.
func (idx *Index) Close() error {
	return idx.mm.Close()
}

// Sync flushes pending writes to the mapped region.
func (idx *Index) Sync() error {
	return idx.mm.Sync()
}

// NBuckets returns the current bucket count.
func (idx *Index) NBuckets() uint32 {
	return idx.nBuckets
}

// Len returns the total byte length of the index region.
func (idx *Index) Len() int {
	return idx.mm.Len() - idx.viewOffset
}

func (idx *Index) tableOffset(bucket uint32) int {
	return int(bucket) * format.NBytesIndex
}

func (idx *Index) bucketOffsetTable(bucket uint32) (start, end int) {
	data := idx.view()
	start = int(binary.LittleEndian.Uint32(data[idx.tableOffset(bucket):]))
	end = int(binary.LittleEndian.Uint32(data[idx.tableOffset(bucket+1):]))
	return
}

func encodeOffset(abs int64) uint64 {
	if abs == 0 {
		return 0
	}
	return uint64(1 + (abs - format.HeaderSize))
}

func decodeOffset(raw uint64) (abs int64, tombstoned bool) {
	if raw == 0 {
		return 0, true
	}
	return format.HeaderSize + int64(raw-1), false
}

// Lookup scans bucket's packed entries for one whose hash matches. It
// returns the data-log offset of the most recently inserted matching
// entry and true, or false if none is live.
func (idx *Index) Lookup(hash [format.KeyHashLen]byte, bucket uint32) (int64, bool) {
	start, end := idx.bucketOffsetTable(bucket)
	data := idx.view()

	// Scan back to front: inserts append to the end of a bucket's region,
	// so the most recent entry for a hash (the one that superseded an
	// earlier tombstoned slot) is the last match.
	for pos := end - EntrySize; pos >= start; pos -= EntrySize {
		if matchesHash(data[pos:pos+format.KeyHashLen], hash) {
			raw := readOffsetField(data[pos+format.KeyHashLen : pos+EntrySize])
			if abs, tomb := decodeOffset(raw); !tomb {
				return abs, true
			}
		}
	}
	return 0, false
}

// Tombstone zeroes the offset field of the live entry matching hash in
// bucket, if one exists. It reports whether an entry was found.
func (idx *Index) Tombstone(hash [format.KeyHashLen]byte, bucket uint32) bool {
	start, end := idx.bucketOffsetTable(bucket)
	data := idx.view()

	for pos := end - EntrySize; pos >= start; pos -= EntrySize {
		if matchesHash(data[pos:pos+format.KeyHashLen], hash) {
			raw := readOffsetField(data[pos+format.KeyHashLen : pos+EntrySize])
			if _, tomb := decodeOffset(raw); !tomb {
				writeOffsetField(data[pos+format.KeyHashLen:pos+EntrySize], 0)
				return true
			}
		}
	}
	return false
}

// UpdateOffset overwrites the offset field of the live entry matching hash
// and oldOffset in bucket with newOffset, in place (no region resize). It
// reports whether a matching entry was found. Pruning uses this to repoint
// an entry at a record's new position after compaction moves it.
func (idx *Index) UpdateOffset(hash [format.KeyHashLen]byte, bucket uint32, oldOffset, newOffset int64) bool {
	start, end := idx.bucketOffsetTable(bucket)
	data := idx.view()

	for pos := start; pos < end; pos += EntrySize {
		if !matchesHash(data[pos:pos+format.KeyHashLen], hash) {
			continue
		}
		raw := readOffsetField(data[pos+format.KeyHashLen : pos+EntrySize])
		abs, tomb := decodeOffset(raw)
		if !tomb && abs == oldOffset {
			writeOffsetField(data[pos+format.KeyHashLen:pos+EntrySize], encodeOffset(newOffset))
			return true
		}
	}
	return false
}

// Insert appends a new packed entry (hash, offset) to bucket's region,
// growing the mapped file by EntrySize and shifting every byte belonging
// to later buckets to make room. Any existing live entry for hash in
// bucket is left in place (callers tombstone it themselves first via
// Tombstone, then insert) - Insert never deduplicates on its own.
func (idx *Index) Insert(hash [format.KeyHashLen]byte, bucket uint32, offset int64) error {
	_, end := idx.bucketOffsetTable(bucket)
	if err := idx.growAt(end, EntrySize); err != nil {
		return err
	}

	data := idx.view()
	copy(data[end:end+format.KeyHashLen], hash[:])
	writeOffsetField(data[end+format.KeyHashLen:end+EntrySize], encodeOffset(offset))

	// Every bucket-offset-table entry past this bucket now starts
	// EntrySize bytes later.
	for b := bucket + 1; b <= idx.nBuckets; b++ {
		off := idx.tableOffset(b)
		cur := binary.LittleEndian.Uint32(data[off:])
		binary.LittleEndian.PutUint32(data[off:], cur+uint32(EntrySize))
	}

	return nil
}

// growAt grows the mapped region by delta bytes, shifting everything from
// insertAt onward to the right by delta to open a gap at insertAt.
func (idx *Index) growAt(insertAt, delta int) error {
	oldLen := idx.Len()
	newLen := oldLen + delta

	if err := idx.file.Truncate(idx.regionStart + int64(newLen)); err != nil {
		return err
	}
	if err := idx.mm.Remap(idx.alignedAt, idx.viewOffset+newLen); err != nil {
		return err
	}

	data := idx.view()
	copy(data[insertAt+delta:newLen], data[insertAt:oldLen])
	return nil
}

// Iterate calls fn for every live entry across every bucket, in
// bucket-then-insertion order. fn receives the packed entry's hash and
// decoded data-log offset.
func (idx *Index) Iterate(fn func(hash [format.KeyHashLen]byte, offset int64) error) error {
	data := idx.view()
	tableLen := int(idx.nBuckets+1) * format.NBytesIndex
	entriesStart := tableLen
	entriesEnd := idx.Len()

	for pos := entriesStart; pos+EntrySize <= entriesEnd; pos += EntrySize {
		raw := readOffsetField(data[pos+format.KeyHashLen : pos+EntrySize])
		abs, tomb := decodeOffset(raw)
		if tomb {
			continue
		}
		var hash [format.KeyHashLen]byte
		copy(hash[:], data[pos:pos+format.KeyHashLen])
		if err := fn(hash, abs); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of entries (live and tombstoned) physically
// present across every bucket's packed region.
func (idx *Index) Count() int {
	tableLen := int(idx.nBuckets+1) * format.NBytesIndex
	return (idx.Len() - tableLen) / EntrySize
}

func matchesHash(stored []byte, hash [format.KeyHashLen]byte) bool {
	for i := range hash {
		if stored[i] != hash[i] {
			return false
		}
	}
	return true
}

func readOffsetField(b []byte) uint64 {
	var v uint64
	for i := 0; i < offsetWidth; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func writeOffsetField(b []byte, v uint64) {
	for i := 0; i < offsetWidth; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// newCorruptErr wraps a structural problem detected while walking the index,
// such as a bucket-offset-table entry that doesn't land on an EntrySize
// boundary relative to its bucket's start.
func newCorruptErr(bucket, nBuckets uint32, cause error) error {
	return pkgerrors.NewIndexCorruptionError("Validate", nBuckets, cause).WithBucket(bucket)
}

// Validate checks that every bucket's region length is a whole multiple of
// EntrySize, the structural invariant a well-formed index must uphold.
func (idx *Index) Validate() error {
	for b := uint32(0); b < idx.nBuckets; b++ {
		start, end := idx.bucketOffsetTable(b)
		if end < start || (end-start)%EntrySize != 0 {
			return newCorruptErr(b, idx.nBuckets, nil)
		}
	}
	return nil
}

// Reinit discards every entry and reshapes the region into a pristine
// bucket-offset table for newNBuckets buckets. Callers that need to
// preserve live entries (reindex, prune) must collect them before calling
// Reinit and reinsert them afterward.
func (idx *Index) Reinit(newNBuckets uint32) error {
	newSize := NewRegionSize(newNBuckets)
	if err := idx.file.Truncate(idx.regionStart + int64(newSize)); err != nil {
		return err
	}
	if err := idx.mm.Remap(idx.alignedAt, idx.viewOffset+newSize); err != nil {
		return err
	}
	Init(idx.view(), newNBuckets)
	idx.nBuckets = newNBuckets
	return nil
}
