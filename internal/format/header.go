package format

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// Byte offsets within the header. Two sets exist because the fixed-value
// layout trades the 1-byte NBytesValue field for a 4-byte ValueLen field,
// shifting NBuckets, NBytesIndex and the key-serializer code by 3 bytes.
// The fixed layout has no 2-byte value-serializer code, so NDeletes and
// DataEndPos sit only 1 byte later than in the variable layout. Version and the serializer
// codes are each 2 bytes wide, matching the original's
// version.to_bytes(2, ...) / int_to_bytes(code, 2) on-disk widths.
const (
	offMagic     = 0
	offVersion   = 16
	offNBytesVal = 18 // nBytesFile, variable layout start

	// Variable layout.
	offVarNBytesKey   = 19
	offVarNBytesValue = 20
	offVarNBuckets    = 21
	offVarNBytesIndex = 25
	offVarKeySerCode  = 29
	offVarValSerCode  = 31
	offVarNDeletes    = 33
	offVarDataEndPos  = 37

	// Fixed layout.
	offFixedNBytesKey  = 19
	offFixedValueLen   = 20
	offFixedNBuckets   = 24
	offFixedNBytesIdx  = 28
	offFixedKeySerCode = 32
	offFixedNDeletes   = 34
	offFixedDataEndPos = 38
)

// dataEndPosWidth is the byte width of the data_end_pos field: a 48-bit
// (6 byte) little-endian unsigned integer, wide enough for a 256 TiB file
// without wasting the two high bytes of a full uint64.
const dataEndPosWidth = 6

// Header holds the decoded contents of a store file's fixed-size header
// region. Not every field is meaningful for every Layout: ValueLen is only
// set for LayoutFixed, NBytesValue only for LayoutVariable.
type Header struct {
	Layout              Layout
	Version             uint16
	NBytesFile          uint8  // byte width used historically for file offsets; retained for format compatibility, always 6 in practice.
	NBytesKey           uint8  // byte width of a record's key-length prefix.
	NBytesValue         uint8  // byte width of a record's value-length prefix (LayoutVariable only).
	ValueLen            uint32 // fixed value length in bytes (LayoutFixed only).
	NBuckets            uint32
	NBytesIndex         uint32
	KeySerializerCode   uint16
	ValueSerializerCode uint16 // LayoutVariable only; fixed layout has no value serializer slot (raw bytes only).
	NDeletes            uint32
	DataEndPos          int64
}

// DefaultHeader returns the header for a freshly created store of the
// given layout, with a pristine (empty) data log directly following it.
func DefaultHeader(layout Layout) Header {
	h := Header{
		Layout:      layout,
		Version:     Version,
		NBytesFile:  6,
		NBytesKey:   2,
		NBuckets:    InitialBucketCount,
		NBytesIndex: NBytesIndex,
		DataEndPos:  HeaderSize,
	}
	if layout == LayoutVariable {
		h.NBytesValue = 4
	} else {
		h.ValueLen = 0
	}
	return h
}

// Encode writes h into a HeaderSize-byte buffer ready to be written at the
// start of the store file.
func (h Header) Encode() [HeaderSize]byte {
	var buf [HeaderSize]byte

	magic := MagicFor(h.Layout)
	copy(buf[offMagic:offMagic+16], magic[:])
	binary.LittleEndian.PutUint16(buf[offVersion:], h.Version)

	if h.Layout == LayoutVariable {
		buf[offNBytesVal] = h.NBytesFile
		buf[offVarNBytesKey] = h.NBytesKey
		buf[offVarNBytesValue] = h.NBytesValue
		binary.LittleEndian.PutUint32(buf[offVarNBuckets:], h.NBuckets)
		binary.LittleEndian.PutUint32(buf[offVarNBytesIndex:], h.NBytesIndex)
		binary.LittleEndian.PutUint16(buf[offVarKeySerCode:], h.KeySerializerCode)
		binary.LittleEndian.PutUint16(buf[offVarValSerCode:], h.ValueSerializerCode)
		binary.LittleEndian.PutUint32(buf[offVarNDeletes:], h.NDeletes)
		putUint48(buf[offVarDataEndPos:], h.DataEndPos)
	} else {
		buf[offNBytesVal] = h.NBytesFile
		buf[offFixedNBytesKey] = h.NBytesKey
		binary.LittleEndian.PutUint32(buf[offFixedValueLen:], h.ValueLen)
		binary.LittleEndian.PutUint32(buf[offFixedNBuckets:], h.NBuckets)
		binary.LittleEndian.PutUint32(buf[offFixedNBytesIdx:], h.NBytesIndex)
		binary.LittleEndian.PutUint16(buf[offFixedKeySerCode:], h.KeySerializerCode)
		binary.LittleEndian.PutUint32(buf[offFixedNDeletes:], h.NDeletes)
		putUint48(buf[offFixedDataEndPos:], h.DataEndPos)
	}

	return buf
}

// DecodeHeader parses a HeaderSize-byte buffer into a Header. The magic
// identifier determines the layout; callers that already know the expected
// layout should compare h.Layout against it themselves to raise
// WrongFileType.
func DecodeHeader(buf []byte) (Header, bool) {
	if len(buf) < HeaderSize {
		return Header{}, false
	}

	magic, err := uuid.FromBytes(buf[offMagic : offMagic+16])
	if err != nil {
		return Header{}, false
	}
	layout, ok := LayoutOf(magic)
	if !ok {
		return Header{}, false
	}

	h := Header{Layout: layout, Version: binary.LittleEndian.Uint16(buf[offVersion:])}

	if layout == LayoutVariable {
		h.NBytesFile = buf[offNBytesVal]
		h.NBytesKey = buf[offVarNBytesKey]
		h.NBytesValue = buf[offVarNBytesValue]
		h.NBuckets = binary.LittleEndian.Uint32(buf[offVarNBuckets:])
		h.NBytesIndex = binary.LittleEndian.Uint32(buf[offVarNBytesIndex:])
		h.KeySerializerCode = binary.LittleEndian.Uint16(buf[offVarKeySerCode:])
		h.ValueSerializerCode = binary.LittleEndian.Uint16(buf[offVarValSerCode:])
		h.NDeletes = binary.LittleEndian.Uint32(buf[offVarNDeletes:])
		h.DataEndPos = getUint48(buf[offVarDataEndPos:])
	} else {
		h.NBytesFile = buf[offNBytesVal]
		h.NBytesKey = buf[offFixedNBytesKey]
		h.ValueLen = binary.LittleEndian.Uint32(buf[offFixedValueLen:])
		h.NBuckets = binary.LittleEndian.Uint32(buf[offFixedNBuckets:])
		h.NBytesIndex = binary.LittleEndian.Uint32(buf[offFixedNBytesIdx:])
		h.KeySerializerCode = binary.LittleEndian.Uint16(buf[offFixedKeySerCode:])
		h.NDeletes = binary.LittleEndian.Uint32(buf[offFixedNDeletes:])
		h.DataEndPos = getUint48(buf[offFixedDataEndPos:])
	}

	return h, true
}

// DataEndPosOffset returns the byte offset, within the header, of the
// data_end_pos field for the given layout. Callers that only need to patch
// this one field in place (the common case when flushing) use it to avoid
// re-encoding the whole header.
func DataEndPosOffset(layout Layout) int {
	if layout == LayoutFixed {
		return offFixedDataEndPos
	}
	return offVarDataEndPos
}

// NDeletesOffset returns the byte offset, within the header, of the
// n_deletes field for the given layout.
func NDeletesOffset(layout Layout) int {
	if layout == LayoutFixed {
		return offFixedNDeletes
	}
	return offVarNDeletes
}

// NBucketsOffset returns the byte offset, within the header, of the
// n_buckets field for the given layout.
func NBucketsOffset(layout Layout) int {
	if layout == LayoutFixed {
		return offFixedNBuckets
	}
	return offVarNBuckets
}

func putUint48(b []byte, v int64) {
	u := uint64(v)
	for i := 0; i < dataEndPosWidth; i++ {
		b[i] = byte(u >> (8 * i))
	}
}

func getUint48(b []byte) int64 {
	var u uint64
	for i := 0; i < dataEndPosWidth; i++ {
		u |= uint64(b[i]) << (8 * i)
	}
	return int64(u)
}
