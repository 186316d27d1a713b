// Package compress provides optional compression for serialized values,
// adapted from a time-series payload compressor to wrap any
// serializer.Serializer's output. Compression is an extra stage a
// Serializer can be wrapped in (serializer.Compressed); the wrapper
// records its own serializer code on disk, not the inner serializer's.
package compress

import "fmt"

// Algorithm identifies a compression scheme.
type Algorithm uint8

const (
	None Algorithm = iota
	S2
	Zstd
	LZ4
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case S2:
		return "s2"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// Compressor compresses a byte slice.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses a byte slice produced by the matching Compressor.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

// New returns the Codec for the given algorithm.
func New(algorithm Algorithm) (Codec, error) {
	switch algorithm {
	case None:
		return noop{}, nil
	case S2:
		return newS2(), nil
	case Zstd:
		return newZstd()
	case LZ4:
		return newLZ4(), nil
	default:
		return nil, fmt.Errorf("compress: unknown algorithm %d", algorithm)
	}
}
