// Package format defines the on-disk layout of a bucketkv store file: the
// fixed-size header, the little-endian codec used throughout, and the key
// hashing scheme that seeds bucket selection and index-entry identity.
//
// A store file is a single append-only file divided into three regions
// laid out back to back:
//
//	[0, HeaderSize)                    fixed-size header
//	[HeaderSize, dataEndPos)           append-only data log
//	[dataEndPos, EOF)                  bucket index region
//
// The index region may instead live in a sibling auxiliary file while the
// store is open for writing; see internal/engine for the split/merge
// protocol. format only describes the byte shapes, not file ownership.
package format

import "github.com/google/uuid"

// HeaderSize is the fixed number of bytes reserved for the header at the
// start of every store file, regardless of value layout.
const HeaderSize = 200

// KeyHashLen is the number of bytes a key hashes to. Index entries store
// this hash instead of the raw key, trading a theoretical (and in practice
// negligible, at 2^104 possible hashes) collision risk for a fixed, compact
// entry size.
const KeyHashLen = 13

// NBytesIndex is the byte width of a bucket-offset-table entry. It is
// always 4: bucket offsets address positions within the index region,
// which is itself bounded well under 4 GiB in practice.
const NBytesIndex = 4

// Version is the on-disk format version written by this build. Stored as a
// 2-byte field, matching the original's version_bytes = version.to_bytes(2).
const Version uint16 = 3

// MinSupportedVersion is the oldest on-disk version this build can read.
const MinSupportedVersion uint16 = 3

// Layout distinguishes the two record/header shapes a store can use.
type Layout uint8

const (
	// LayoutVariable stores a per-record value length; values may differ
	// in size from one record to the next.
	LayoutVariable Layout = iota
	// LayoutFixed stores one value length in the header; every value in
	// the store must be exactly that many bytes.
	LayoutFixed
)

// magicVariable and magicFixed are the 16-byte identifiers distinguishing
// the two store layouts, checked byte-for-byte on open to reject a file of
// the wrong kind (or a file that isn't a bucketkv store at all).
var (
	magicVariable = uuid.MustParse("4f7e8a3f-e75c-4750-ad43-0a728fe31cfe")
	magicFixed    = uuid.MustParse("04d3b294-f210-4162-958d-0400738c9e0a")
)

// MagicFor returns the magic identifier for the given layout.
func MagicFor(layout Layout) uuid.UUID {
	if layout == LayoutFixed {
		return magicFixed
	}
	return magicVariable
}

// LayoutOf returns the layout matching the given magic identifier and
// whether one was found.
func LayoutOf(magic uuid.UUID) (Layout, bool) {
	switch magic {
	case magicVariable:
		return LayoutVariable, true
	case magicFixed:
		return LayoutFixed, true
	default:
		return 0, false
	}
}

// InitialBucketCount is the number of buckets a freshly created store
// starts with.
const InitialBucketCount uint32 = 12007

// bucketGrowthSchedule maps a bucket count to the next larger count a
// reindex should grow to. A count with no entry (the schedule's terminal
// value) means growth has reached its cap; reindex.Grow becomes a no-op.
var bucketGrowthSchedule = map[uint32]uint32{
	12007:    144013,
	144013:   1728017,
	1728017:  20736017,
	20736017: 0, // 0 marks the cap: no further growth defined.
}

// NextBucketCount returns the bucket count a reindex should grow to from
// current, and whether growth is possible. Growth stops once current has
// reached the schedule's terminal value or isn't a recognized step (in
// which case the caller already grew past anything this schedule models).
func NextBucketCount(current uint32) (uint32, bool) {
	next, ok := bucketGrowthSchedule[current]
	if !ok || next == 0 {
		return current, false
	}
	return next, true
}

// ReindexLoadFactor is the ratio of live entries to buckets that triggers
// a reindex: once len(store) exceeds nBuckets*ReindexLoadFactor, the next
// Sync grows the bucket table.
const ReindexLoadFactor = 10

// Default write-buffer sizes. The low-level store defaults to 4 MiB,
// matching the original constructor's 2**22 default; the convenience
// wrapper in pkg/bucketkv defaults to 5,000,000 bytes, matching the
// original's module-level open() default. The two are intentionally
// different constants, not one reused value.
const (
	DefaultWriteBufferSize       = 4 * 1024 * 1024
	DefaultAPIWriteBufferSize    = 5_000_000
	MinWriteBufferSize           = 1024
)

// Serializer codes stored in the header. Code 0 means "user-supplied and
// not tracked by the format" (the registry is consulted at the API layer,
// not here). Stored as 2-byte fields, matching the original's
// int_to_bytes(code, 2).
const (
	SerializerCodeNone       uint16 = 0
	SerializerCodeBytes      uint16 = 1
	SerializerCodeJSON       uint16 = 2
	SerializerCodeCompressed uint16 = 3
)

// OpenFlag enumerates the four ways a store can be opened, matching the
// Python original's single-character flags.
type OpenFlag byte

const (
	// FlagRead opens an existing store read-only. Missing file is an error.
	FlagRead OpenFlag = 'r'
	// FlagWrite opens an existing store read-write. Missing file is an error.
	FlagWrite OpenFlag = 'w'
	// FlagCreate opens for read-write, creating the store if it doesn't exist.
	FlagCreate OpenFlag = 'c'
	// FlagNew always creates a fresh store, truncating any existing file.
	FlagNew OpenFlag = 'n'
)

// ValidFlag reports whether flag is one of the four recognized open flags.
func ValidFlag(flag OpenFlag) bool {
	switch flag {
	case FlagRead, FlagWrite, FlagCreate, FlagNew:
		return true
	default:
		return false
	}
}
