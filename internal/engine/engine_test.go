package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/bucketkv/internal/format"
	pkgerrors "github.com/iamNilotpal/bucketkv/pkg/errors"
	"github.com/iamNilotpal/bucketkv/pkg/options"
)

func storePath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "store.bkv")
}

func TestOpenCreatesFreshStoreAndSetGet(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, options.WithFlag(format.FlagCreate))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set([]byte("hello"), []byte("world")))

	v, ok, err := s.Get([]byte("hello"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("world"), v)

	_, ok, err = s.Get([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetObservesUnflushedBufferedWrite(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, options.WithFlag(format.FlagCreate), options.WithWriteBufferSize(4<<20))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set([]byte("buffered"), []byte("value")))
	v, ok, err := s.Get([]byte("buffered"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("value"), v)
}

func TestSetOverwriteReplacesValue(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, options.WithFlag(format.FlagCreate))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set([]byte("k"), []byte("v1")))
	require.NoError(t, s.Sync())
	require.NoError(t, s.Set([]byte("k"), []byte("v2")))
	require.NoError(t, s.Sync())

	v, ok, err := s.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), v)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, uint32(1), s.Header().NDeletes, "overwriting a key tombstones its prior record")
}

func TestDeleteRemovesKey(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, options.WithFlag(format.FlagCreate))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set([]byte("k"), []byte("v")))
	require.NoError(t, s.Delete([]byte("k")))

	_, ok, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestDeleteMissingKeyErrors(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, options.WithFlag(format.FlagCreate))
	require.NoError(t, err)
	defer s.Close()

	err = s.Delete([]byte("nope"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ErrorCodeIndexKeyNotFound, pkgerrors.GetErrorCode(err))
}

func TestFixedLayoutRejectsWrongValueLength(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, options.WithFlag(format.FlagCreate), options.WithFixedLayout(4))
	require.NoError(t, err)
	defer s.Close()

	err = s.Set([]byte("k"), []byte("too-long-value"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidationError(err))

	require.NoError(t, s.Set([]byte("k"), []byte("exac")))
}

func TestReopenPersistsData(t *testing.T) {
	path := storePath(t)

	s, err := Open(path, options.WithFlag(format.FlagCreate))
	require.NoError(t, err)
	require.NoError(t, s.Set([]byte("persist"), []byte("me")))
	require.NoError(t, s.Close())

	reopened, err := Open(path, options.WithFlag(format.FlagWrite))
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get([]byte("persist"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("me"), v)
	assert.Equal(t, 1, reopened.Len())
}

func TestReadOnlyOpenRejectsWrites(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, options.WithFlag(format.FlagCreate))
	require.NoError(t, err)
	require.NoError(t, s.Set([]byte("k"), []byte("v")))
	require.NoError(t, s.Close())

	ro, err := Open(path, options.WithFlag(format.FlagRead))
	require.NoError(t, err)
	defer ro.Close()

	err = ro.Set([]byte("k2"), []byte("v2"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ErrorCodeReadOnly, pkgerrors.GetErrorCode(err))

	v, ok, err := ro.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestOpenReadMissingFileErrors(t *testing.T) {
	path := storePath(t)
	_, err := Open(path, options.WithFlag(format.FlagRead))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ErrorCodeFileNotFound, pkgerrors.GetErrorCode(err))
}

func TestOpenInvalidFlagErrors(t *testing.T) {
	path := storePath(t)
	_, err := Open(path, options.WithFlag(format.OpenFlag('z')))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ErrorCodeInvalidFlag, pkgerrors.GetErrorCode(err))
}

func TestPruneReclaimsTombstonedSpace(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, options.WithFlag(format.FlagCreate))
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Set([]byte{byte(i)}, []byte("value-to-be-pruned")))
	}
	require.NoError(t, s.Sync())
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Delete([]byte{byte(i)}))
	}

	before := s.Header().DataEndPos
	require.NoError(t, s.Prune())
	after := s.Header().DataEndPos
	assert.Less(t, after, before)
	assert.Equal(t, 5, s.Len())

	for i := 5; i < 10; i++ {
		v, ok, err := s.Get([]byte{byte(i)})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("value-to-be-pruned"), v)
	}
}

func TestClearResetsStore(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, options.WithFlag(format.FlagCreate))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set([]byte("k"), []byte("v")))
	require.NoError(t, s.Clear())

	assert.Equal(t, 0, s.Len())
	_, ok, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, format.InitialBucketCount, s.Header().NBuckets)
}

func TestEachVisitsEveryLiveEntry(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, options.WithFlag(format.FlagCreate))
	require.NoError(t, err)
	defer s.Close()

	want := map[string]string{"a": "1", "b": "2", "c": "3"}
	for k, v := range want {
		require.NoError(t, s.Set([]byte(k), []byte(v)))
	}
	require.NoError(t, s.Delete([]byte("b")))
	delete(want, "b")

	got := map[string]string{}
	err = s.Each(func(key, value []byte) error {
		got[string(key)] = string(value)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEachVisitsInDataLogFileOrder(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, options.WithFlag(format.FlagCreate))
	require.NoError(t, err)
	defer s.Close()

	order := []string{"third", "first", "second"}
	for _, k := range order {
		require.NoError(t, s.Set([]byte(k), []byte(k)))
		require.NoError(t, s.Sync())
	}

	var got []string
	err = s.Each(func(key, _ []byte) error {
		got = append(got, string(key))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, order, got, "Each walks the data log in append order, not bucket order")
}

func TestReindexTriggersOnLoadFactor(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, options.WithFlag(format.FlagCreate))
	require.NoError(t, err)
	defer s.Close()

	threshold := int(format.InitialBucketCount)*format.ReindexLoadFactor + 1
	for i := 0; i < threshold; i++ {
		key := []byte{byte(i), byte(i >> 8), byte(i >> 16)}
		require.NoError(t, s.Set(key, []byte("v")))
	}
	require.NoError(t, s.Sync())

	assert.Greater(t, s.Header().NBuckets, format.InitialBucketCount)
}

func TestReindexResetsNDeletes(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, options.WithFlag(format.FlagCreate))
	require.NoError(t, err)
	defer s.Close()

	const warmup = 1000
	keys := make([][]byte, warmup)
	for i := 0; i < warmup; i++ {
		keys[i] = []byte{byte(i), byte(i >> 8), byte(i >> 16), byte(i >> 24)}
		require.NoError(t, s.Set(keys[i], []byte("v")))
	}
	require.NoError(t, s.Sync())

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Delete(keys[i]))
	}
	require.Equal(t, uint32(5), s.Header().NDeletes, "precondition: deletes recorded before the grow")

	threshold := int(format.InitialBucketCount)*format.ReindexLoadFactor + 1
	for i := warmup; i < threshold+5; i++ {
		key := make([]byte, 4)
		key[0] = byte(i)
		key[1] = byte(i >> 8)
		key[2] = byte(i >> 16)
		key[3] = byte(i >> 24)
		require.NoError(t, s.Set(key, []byte("v")))
	}
	require.NoError(t, s.Sync())

	require.Greater(t, s.Header().NBuckets, format.InitialBucketCount, "precondition: reindex must have fired")
	assert.Equal(t, uint32(0), s.Header().NDeletes, "a successful reindex resets the delete counter")
}

func TestCloseIsIdempotent(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, options.WithFlag(format.FlagCreate))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestCloseMergesAuxIndexBackAndRemovesIt(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, options.WithFlag(format.FlagCreate))
	require.NoError(t, err)
	require.NoError(t, s.Set([]byte("k"), []byte("v")))

	auxPath := auxPathFor(path)
	_, err = os.Stat(auxPath)
	assert.NoError(t, err, "a writable store splits its index into an aux file")

	require.NoError(t, s.Close())

	_, err = os.Stat(auxPath)
	assert.True(t, os.IsNotExist(err), "Close merges the aux file back and removes it")
}
