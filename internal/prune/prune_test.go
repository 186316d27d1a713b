package prune

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/bucketkv/internal/bucketindex"
	"github.com/iamNilotpal/bucketkv/internal/datalog"
	"github.com/iamNilotpal/bucketkv/internal/format"
)

// memFile satisfies datalog.File over an in-memory slice, mirroring
// internal/datalog's own test fake.
type memFile struct{ data []byte }

func (m *memFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *memFile) WriteAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[off:], p)
	return len(p), nil
}

func (m *memFile) Sync() error { return nil }

func newTestIndex(t *testing.T, nBuckets uint32) *bucketindex.Index {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prune.dat")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	require.NoError(t, f.Truncate(format.HeaderSize))
	regionSize := bucketindex.NewRegionSize(nBuckets)
	pristine := make([]byte, regionSize)
	bucketindex.Init(pristine, nBuckets)
	require.NoError(t, f.Truncate(format.HeaderSize+int64(regionSize)))
	_, err = f.WriteAt(pristine, format.HeaderSize)
	require.NoError(t, err)

	idx, err := bucketindex.Open(f, format.HeaderSize, regionSize, nBuckets, false)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestCompactDropsTombstonesAndRepointsIndex(t *testing.T) {
	h := format.DefaultHeader(format.LayoutVariable)
	h.NBytesKey = 2
	h.NBytesValue = 4

	file := &memFile{}
	log := datalog.New(file)
	idx := newTestIndex(t, 101)

	type entry struct {
		key   string
		value string
		dead  bool
	}
	entries := []entry{
		{"keep1", "v1", false},
		{"drop1", "v2", true},
		{"keep2", "v3", false},
		{"drop2", "v4", true},
		{"keep3", "v5", false},
	}

	pos := int64(format.HeaderSize)
	for _, e := range entries {
		buf := datalog.Encode(h, []byte(e.key), []byte(e.value))
		require.NoError(t, log.Append(pos, buf))
		if !e.dead {
			hash := format.HashKey([]byte(e.key))
			bucket := format.BucketFor(hash, idx.NBuckets())
			require.NoError(t, idx.Insert(hash, bucket, pos))
		} else {
			require.NoError(t, log.Tombstone(pos))
		}
		pos += int64(len(buf))
	}
	dataEndPos := pos

	result, err := Compact(file, h, dataEndPos, idx)
	require.NoError(t, err)
	require.Equal(t, 2, result.RecordsMoved)
	require.Less(t, result.NewDataEndPos, result.OldDataEndPos)
	require.Equal(t, dataEndPos-result.NewDataEndPos, result.ReclaimedBytes)

	for _, e := range entries {
		if e.dead {
			continue
		}
		hash := format.HashKey([]byte(e.key))
		bucket := format.BucketFor(hash, idx.NBuckets())
		offset, ok := idx.Lookup(hash, bucket)
		require.True(t, ok)
		require.Less(t, offset, result.NewDataEndPos)

		rec, err := log.ReadRecord(h, offset)
		require.NoError(t, err)
		require.True(t, rec.Live)
		require.Equal(t, e.value, string(rec.Value))
	}
}

func TestCompactNoTombstonesIsIdentity(t *testing.T) {
	h := format.DefaultHeader(format.LayoutVariable)
	h.NBytesKey = 2
	h.NBytesValue = 4

	file := &memFile{}
	log := datalog.New(file)
	idx := newTestIndex(t, 11)

	buf := datalog.Encode(h, []byte("k"), []byte("v"))
	require.NoError(t, log.Append(format.HeaderSize, buf))
	hash := format.HashKey([]byte("k"))
	bucket := format.BucketFor(hash, idx.NBuckets())
	require.NoError(t, idx.Insert(hash, bucket, format.HeaderSize))

	dataEndPos := format.HeaderSize + int64(len(buf))
	result, err := Compact(file, h, dataEndPos, idx)
	require.NoError(t, err)
	require.Equal(t, 0, result.RecordsMoved)
	require.Equal(t, dataEndPos, result.NewDataEndPos)
}
