package compress

import "github.com/klauspost/compress/zstd"

// zstdCodec wraps klauspost/compress's pure-Go zstd implementation,
// favoring ratio over speed for values that are written once and read
// many times.
type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newZstd() (Codec, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &zstdCodec{enc: enc, dec: dec}, nil
}

func (z *zstdCodec) Compress(data []byte) ([]byte, error) {
	return z.enc.EncodeAll(data, nil), nil
}

func (z *zstdCodec) Decompress(data []byte) ([]byte, error) {
	return z.dec.DecodeAll(data, nil)
}
