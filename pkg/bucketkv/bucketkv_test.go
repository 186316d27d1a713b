package bucketkv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/bucketkv/internal/format"
	"github.com/iamNilotpal/bucketkv/pkg/options"
	"github.com/iamNilotpal/bucketkv/pkg/serializer"
)

func storePath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "store.bkv")
}

func lookupTestSerializer(t *testing.T) (serializer.Serializer, error) {
	t.Helper()
	return serializer.Lookup(format.SerializerCodeJSON)
}

func TestSetGetRoundTripWithDefaultSerializer(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	s, err := Open(ctx, "test-service", path)
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Set(ctx, []byte("k"), []byte("v")))

	v, ok, err := s.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestSetGetWithJSONValueSerializer(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	jsonSer, err := lookupTestSerializer(t)
	require.NoError(t, err)

	s, err := Open(ctx, "test-service", path, options.WithValueSerializer(jsonSer))
	require.NoError(t, err)
	defer s.Close(ctx)

	payload := map[string]any{"name": "alice", "age": 30.0}
	require.NoError(t, s.Set(ctx, []byte("user:1"), payload))

	got, ok, err := s.Get(ctx, []byte("user:1"))
	require.NoError(t, err)
	require.True(t, ok)

	m, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", m["name"])
}

func TestFixedLayoutRequiresRawBytesValue(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	s, err := Open(ctx, "test-service", path, options.WithFixedLayout(4))
	require.NoError(t, err)
	defer s.Close(ctx)

	err = s.Set(ctx, []byte("k"), "not bytes")
	assert.Error(t, err, "a fixed-layout store has no value serializer and rejects non-[]byte values")

	require.NoError(t, s.Set(ctx, []byte("k"), []byte("abcd")))
}

func TestDeleteContainsLen(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	s, err := Open(ctx, "test-service", path)
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Set(ctx, []byte("k"), []byte("v")))
	has, err := s.Contains(ctx, []byte("k"))
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, []byte("k")))
	has, err = s.Contains(ctx, []byte("k"))
	require.NoError(t, err)
	assert.False(t, has)
	assert.Equal(t, 0, s.Len())
}

func TestKeysAndValuesDecodeThroughSerializers(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	s, err := Open(ctx, "test-service", path)
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Set(ctx, []byte("a"), []byte("1")))
	require.NoError(t, s.Set(ctx, []byte("b"), []byte("2")))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	values, err := s.Values(ctx)
	require.NoError(t, err)
	assert.Len(t, values, 2)
}

func TestEachCallbackReceivesDecodedPairs(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	s, err := Open(ctx, "test-service", path)
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Set(ctx, []byte("a"), []byte("1")))

	seen := map[string]string{}
	err = s.Each(ctx, func(key, value any) error {
		seen[string(key.([]byte))] = string(value.([]byte))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1"}, seen)
}

func TestContextCancellationShortCircuits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, "test-service", storePath(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSyncPruneClear(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	s, err := Open(ctx, "test-service", path)
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Set(ctx, []byte("k"), []byte("v")))
	require.NoError(t, s.Sync(ctx))
	require.NoError(t, s.Delete(ctx, []byte("k")))
	require.NoError(t, s.Prune(ctx))
	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, s.Len())
}

func TestReopenResolvesSerializerFromHeader(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	jsonSer, err := lookupTestSerializer(t)
	require.NoError(t, err)

	s, err := Open(ctx, "test-service", path, options.WithValueSerializer(jsonSer))
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, []byte("k"), map[string]any{"ok": true}))
	require.NoError(t, s.Close(ctx))

	reopened, err := Open(ctx, "test-service", path)
	require.NoError(t, err)
	defer reopened.Close(ctx)

	got, ok, err := reopened.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	m, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, m["ok"])
}
