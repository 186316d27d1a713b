package compress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTripAllAlgorithms(t *testing.T) {
	algorithms := []Algorithm{None, S2, Zstd, LZ4}
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated for compressibility. " +
		"the quick brown fox jumps over the lazy dog, repeated for compressibility.")

	for _, algo := range algorithms {
		t.Run(algo.String(), func(t *testing.T) {
			codec, err := New(algo)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, decompressed)
		})
	}
}

func TestNewUnknownAlgorithm(t *testing.T) {
	_, err := New(Algorithm(99))
	assert.Error(t, err)
}

func TestAlgorithmString(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "s2", S2.String())
	assert.Equal(t, "zstd", Zstd.String())
	assert.Equal(t, "lz4", LZ4.String())
	assert.Equal(t, "unknown", Algorithm(99).String())
}
