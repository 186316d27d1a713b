package compress

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// lz4Codec wraps pierrec/lz4, a middle ground between S2's speed and
// zstd's ratio.
type lz4Codec struct{}

func newLZ4() lz4Codec { return lz4Codec{} }

func (lz4Codec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lz4Codec) Decompress(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	return io.ReadAll(r)
}
