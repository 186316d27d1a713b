package format

import "encoding/binary"

// Codec encodes and decodes the little-endian integer widths used
// throughout a store file: length prefixes in the data log, and
// bucket-offset-table / packed-entry fields in the index region. Go's
// fixed-width uint16/uint32 types cover every width a store actually
// needs (key lengths, value lengths, bucket offsets); PutUint24 and
// Uint24 exist only because NBytesFile historically allowed a 3-byte
// data-log offset width and some stores on disk still carry one.
type Codec struct{}

// PutUint16 writes v as 2 little-endian bytes into b.
func (Codec) PutUint16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }

// Uint16 reads 2 little-endian bytes from b.
func (Codec) Uint16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

// PutUint32 writes v as 4 little-endian bytes into b.
func (Codec) PutUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

// Uint32 reads 4 little-endian bytes from b.
func (Codec) Uint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// PutUint24 writes the low 24 bits of v as 3 little-endian bytes into b.
func (Codec) PutUint24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// Uint24 reads 3 little-endian bytes from b into the low 24 bits of a uint32.
func (Codec) Uint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

// PutUint48 writes v as 6 little-endian bytes into b.
func (Codec) PutUint48(b []byte, v int64) { putUint48(b, v) }

// Uint48 reads 6 little-endian bytes from b.
func (Codec) Uint48(b []byte) int64 { return getUint48(b) }
