package compress

import "github.com/klauspost/compress/s2"

// s2Codec wraps klauspost/compress's S2, a Snappy-compatible algorithm
// favoring speed over ratio - a good default for values written on every
// Set call.
type s2Codec struct{}

func newS2() s2Codec { return s2Codec{} }

func (s2Codec) Compress(data []byte) ([]byte, error) {
	return s2.Encode(nil, data), nil
}

func (s2Codec) Decompress(data []byte) ([]byte, error) {
	return s2.Decode(nil, data)
}
