package serializer

import (
	"github.com/iamNilotpal/bucketkv/internal/format"
	"github.com/iamNilotpal/bucketkv/pkg/serializer/compress"
)

// Compressed wraps another Serializer's Dumps/Loads output through a
// compress.Codec. Its Code is always SerializerCodeCompressed regardless
// of which algorithm or inner serializer it wraps, and it is not added to
// the registry. Neither the algorithm nor the inner serializer is recorded
// in the header or per value, so reopening such a store requires passing
// an equivalent Compressed serializer explicitly.
type Compressed struct {
	inner Serializer
	codec compress.Codec
}

// NewCompressed wraps inner with the given compression algorithm.
func NewCompressed(inner Serializer, algorithm compress.Algorithm) (*Compressed, error) {
	codec, err := compress.New(algorithm)
	if err != nil {
		return nil, err
	}
	return &Compressed{inner: inner, codec: codec}, nil
}

func (c *Compressed) Dumps(v any) ([]byte, error) {
	raw, err := c.inner.Dumps(v)
	if err != nil {
		return nil, err
	}
	return c.codec.Compress(raw)
}

func (c *Compressed) Loads(data []byte) (any, error) {
	raw, err := c.codec.Decompress(data)
	if err != nil {
		return nil, err
	}
	return c.inner.Loads(raw)
}

func (c *Compressed) Code() uint16 { return format.SerializerCodeCompressed }
