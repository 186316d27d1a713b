package format

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2s"
)

// HashKey reduces an arbitrary key to a fixed KeyHashLen-byte digest using
// BLAKE2s. Index entries store this hash instead of the raw key: lookups
// never re-read or compare the original key bytes, trading a vanishingly
// small collision probability (one in 2^104) for an index entry whose size
// doesn't depend on key length.
func HashKey(key []byte) [KeyHashLen]byte {
	full := blake2s.Sum256(key)
	var truncated [KeyHashLen]byte
	copy(truncated[:], full[:KeyHashLen])
	return truncated
}

// BucketFor maps a key hash to a bucket index in a table of nBuckets
// buckets. The hash is interpreted as a little-endian unsigned integer
// over its first 8 bytes (more than enough entropy for any realistic
// bucket count) before reducing modulo nBuckets.
func BucketFor(hash [KeyHashLen]byte, nBuckets uint32) uint32 {
	v := binary.LittleEndian.Uint64(hash[:8])
	return uint32(v % uint64(nBuckets))
}
