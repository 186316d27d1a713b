package datalog

import (
	"io"

	"github.com/iamNilotpal/bucketkv/internal/format"
)

// File is the subset of *os.File the data log needs: positional
// read/write plus a durability barrier. Defined as an interface so tests
// can exercise Log against an in-memory fake.
type File interface {
	io.ReaderAt
	io.WriterAt
	Sync() error
}

// Log is a thin wrapper around the store file's data-log region: the byte
// range [format.HeaderSize, dataEndPos). It never holds the authoritative
// end-of-log position itself - the caller (internal/engine) tracks that in
// the header - it only performs the positional reads/writes the rest of
// the store needs.
type Log struct {
	f File
}

// New wraps f. f must already be open for read (and, for mutating calls,
// write) access.
func New(f File) *Log {
	return &Log{f: f}
}

// Append writes buf at the given absolute file offset, which the caller
// must have already reserved (typically the current data_end_pos).
func (l *Log) Append(offset int64, buf []byte) error {
	_, err := l.f.WriteAt(buf, offset)
	return err
}

// ReadRecord decodes a single record starting at the given absolute file
// offset, under header h's layout.
func (l *Log) ReadRecord(h format.Header, offset int64) (Record, error) {
	// A record's fixed-width prefix (tombstone byte plus length fields)
	// tells us the exact size of the variable-length portion that
	// follows; read the prefix first, then size a single exact read for
	// the whole record rather than guessing and possibly under-reading a
	// large value.
	prefixLen := HeaderLen(h)

	prefix := make([]byte, prefixLen)
	n, err := l.f.ReadAt(prefix, offset)
	if err != nil && err != io.EOF {
		return Record{}, err
	}
	if n < prefixLen {
		return Record{}, io.ErrUnexpectedEOF
	}

	keyLen := getUint(prefix[1:], h.NBytesKey)
	var valueLen uint64
	if h.Layout == format.LayoutFixed {
		valueLen = uint64(h.ValueLen)
	} else {
		valueLen = getUint(prefix[1+int(h.NBytesKey):], h.NBytesValue)
	}

	total := prefixLen + int(keyLen) + int(valueLen)
	full := make([]byte, total)
	n, err = l.f.ReadAt(full, offset)
	if err != nil && err != io.EOF {
		return Record{}, err
	}
	full = full[:n]

	rec, ok := Decode(h, full)
	if !ok {
		return Record{}, io.ErrUnexpectedEOF
	}
	return rec, nil
}

// Tombstone flips the tombstone byte of the record at offset to Dead.
func (l *Log) Tombstone(offset int64) error {
	_, err := l.f.WriteAt([]byte{Dead}, offset)
	return err
}

// IsLive reports whether the record at offset is currently live, by
// reading only its tombstone byte.
func (l *Log) IsLive(offset int64) (bool, error) {
	var b [1]byte
	if _, err := l.f.ReadAt(b[:], offset); err != nil {
		return false, err
	}
	return b[0] == Live, nil
}

// Sync flushes the underlying file to durable storage.
func (l *Log) Sync() error {
	return l.f.Sync()
}
