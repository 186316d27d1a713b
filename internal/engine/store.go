// Package engine ties the lower-level packages - format, lockfile,
// mmapfile, datalog, bucketindex, writebuffer, reindex, prune - into a
// single open store file, handling the lifecycle a caller actually sees:
// Open validates the flag, creates or inspects the file, and sets up the
// data log and bucket index; Close flushes, merges the index back in, and
// releases the lock.
//
// Store works at the byte level: keys and values in, keys and values out.
// Serialization of richer Go values is a pkg/bucketkv concern layered on
// top - Store only persists which serializer codes a caller declared at
// creation time, for that layer to look back up on a later open.
package engine

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/iamNilotpal/bucketkv/internal/bucketindex"
	"github.com/iamNilotpal/bucketkv/internal/datalog"
	"github.com/iamNilotpal/bucketkv/internal/format"
	"github.com/iamNilotpal/bucketkv/internal/lockfile"
	"github.com/iamNilotpal/bucketkv/internal/writebuffer"
	pkgerrors "github.com/iamNilotpal/bucketkv/pkg/errors"
	"github.com/iamNilotpal/bucketkv/pkg/filesys"
	pkglogger "github.com/iamNilotpal/bucketkv/pkg/logger"
	"github.com/iamNilotpal/bucketkv/pkg/options"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// copyChunkSize bounds how much memory the aux-index split/merge fallback
// copy uses per iteration when copy_file_range(2) isn't available.
const copyChunkSize = 4 << 20

// Store is a single open bucketkv store file.
type Store struct {
	mu sync.Mutex

	path    string
	auxPath string

	file    *os.File
	auxFile *os.File
	flock   *lockfile.Lock

	header   format.Header
	idx      *bucketindex.Index
	dlog     *datalog.Log
	buf      *writebuffer.Buffer
	opts     options.Options
	readOnly bool
	closed   bool
	liveCnt  int

	log *zap.SugaredLogger
}

// Open opens (or creates, per the flag) the store file at path.
func Open(path string, optFuncs ...options.OptionFunc) (*Store, error) {
	cfg := options.NewDefaultOptions()
	for _, f := range optFuncs {
		f(&cfg)
	}

	log := cfg.Logger
	if log == nil {
		log = pkglogger.Nop()
	}

	if !format.ValidFlag(cfg.Flag) {
		return nil, pkgerrors.NewInvalidFlagError(path, string(cfg.Flag))
	}

	exists, err := filesys.Exists(path)
	if err != nil {
		return nil, pkgerrors.ClassifyFileOpenError(err, path)
	}
	if (cfg.Flag == format.FlagRead || cfg.Flag == format.FlagWrite) && !exists {
		return nil, pkgerrors.NewFileNotFoundError(path, string(cfg.Flag))
	}

	file, err := openFile(path, cfg.Flag)
	if err != nil {
		return nil, pkgerrors.ClassifyFileOpenError(err, path)
	}

	readOnly := cfg.Flag == format.FlagRead
	flock := lockfile.New(int(file.Fd()))
	if readOnly {
		err = flock.RLockWithTimeout(cfg.LockTimeout)
	} else {
		err = flock.LockWithTimeout(cfg.LockTimeout)
	}
	if err != nil {
		file.Close()
		if err == lockfile.ErrWouldBlock {
			return nil, pkgerrors.NewLockedError(path, !readOnly)
		}
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		flock.Unlock()
		file.Close()
		return nil, pkgerrors.ClassifyFileOpenError(err, path)
	}
	fresh := info.Size() == 0

	s := &Store{
		path:     path,
		file:     file,
		flock:    flock,
		opts:     cfg,
		readOnly: readOnly,
		log:      log,
	}

	if fresh {
		if readOnly {
			flock.Unlock()
			file.Close()
			return nil, pkgerrors.NewFileNotFoundError(path, string(cfg.Flag))
		}
		if err := s.initFresh(); err != nil {
			flock.Unlock()
			file.Close()
			return nil, err
		}
	} else {
		if err := s.openExisting(); err != nil {
			flock.Unlock()
			file.Close()
			return nil, err
		}
	}

	s.dlog = datalog.New(s.file)
	s.buf = writebuffer.New(cfg.WriteBufferSize)

	liveCnt, err := countLive(s.idx)
	if err != nil {
		s.idx.Close()
		flock.Unlock()
		file.Close()
		return nil, err
	}
	s.liveCnt = liveCnt

	log.Infow("store opened", "path", path, "flag", string(cfg.Flag), "fresh", fresh, "liveEntries", liveCnt)
	return s, nil
}

func openFile(path string, flag format.OpenFlag) (*os.File, error) {
	switch flag {
	case format.FlagRead:
		return os.OpenFile(path, os.O_RDONLY, 0o644)
	case format.FlagWrite:
		return os.OpenFile(path, os.O_RDWR, 0o644)
	case format.FlagCreate:
		return os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	default: // FlagNew
		return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	}
}

// initFresh lays out a brand-new store: header, empty data log, and a
// pristine index region split immediately into its own auxiliary file
// (fresh stores are always opened for writing, never "r").
func (s *Store) initFresh() error {
	h := format.DefaultHeader(s.opts.Layout)
	if s.opts.Layout == format.LayoutFixed {
		h.ValueLen = s.opts.FixedValueLen
	}
	h.KeySerializerCode = serializerCode(s.opts.KeySerializer, format.SerializerCodeBytes)
	if s.opts.Layout == format.LayoutVariable {
		h.ValueSerializerCode = serializerCode(s.opts.ValueSerializer, format.SerializerCodeBytes)
	}
	s.header = h

	buf := h.Encode()
	if _, err := s.file.WriteAt(buf[:], 0); err != nil {
		return pkgerrors.ClassifyFileOpenError(err, s.path)
	}
	if err := s.file.Truncate(format.HeaderSize); err != nil {
		return pkgerrors.ClassifyFileOpenError(err, s.path)
	}

	s.auxPath = auxPathFor(s.path)
	auxFile, err := os.OpenFile(s.auxPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return pkgerrors.ClassifyFileOpenError(err, s.auxPath)
	}
	s.auxFile = auxFile

	regionSize := bucketindex.NewRegionSize(h.NBuckets)
	pristine := make([]byte, regionSize)
	bucketindex.Init(pristine, h.NBuckets)
	if _, err := auxFile.WriteAt(pristine, 0); err != nil {
		return pkgerrors.ClassifyFileOpenError(err, s.auxPath)
	}

	idx, err := bucketindex.Open(auxFile, 0, regionSize, h.NBuckets, false)
	if err != nil {
		return err
	}
	s.idx = idx
	return nil
}

// openExisting reads an existing store's header and maps its index
// region: split into an aux file when opening for writing, mapped
// directly in place (with alignment padding) when opening read-only.
func (s *Store) openExisting() error {
	var hdrBuf [format.HeaderSize]byte
	if _, err := s.file.ReadAt(hdrBuf[:], 0); err != nil {
		return pkgerrors.NewStoreError(err, pkgerrors.ErrorCodeHeaderReadFailure, "failed to read store header").WithPath(s.path)
	}
	h, ok := format.DecodeHeader(hdrBuf[:])
	if !ok {
		return pkgerrors.NewWrongFileTypeError(s.path)
	}
	if h.Version < format.MinSupportedVersion {
		return pkgerrors.NewVersionTooOldError(s.path, h.Version, format.MinSupportedVersion)
	}
	if h.DataEndPos < format.HeaderSize {
		return pkgerrors.NewCorruptIndexError(s.path, h.DataEndPos)
	}
	s.header = h

	info, err := s.file.Stat()
	if err != nil {
		return pkgerrors.ClassifyFileOpenError(err, s.path)
	}
	regionSize := int(info.Size() - h.DataEndPos)

	if s.readOnly {
		idx, err := bucketindex.Open(s.file, h.DataEndPos, regionSize, h.NBuckets, true)
		if err != nil {
			return err
		}
		s.idx = idx
		return nil
	}

	s.auxPath = auxPathFor(s.path)
	auxFile, err := os.OpenFile(s.auxPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return pkgerrors.ClassifyFileOpenError(err, s.auxPath)
	}
	s.auxFile = auxFile

	if regionSize > 0 {
		if _, err := filesys.CopyFileRange(auxFile, s.file, 0, h.DataEndPos, regionSize, copyChunkSize); err != nil {
			return pkgerrors.NewStoreError(err, pkgerrors.ErrorCodeIO, "failed to split index region into auxiliary file").WithPath(s.auxPath)
		}
	}
	if err := s.file.Truncate(h.DataEndPos); err != nil {
		return pkgerrors.ClassifyFileOpenError(err, s.path)
	}

	idx, err := bucketindex.Open(auxFile, 0, regionSize, h.NBuckets, false)
	if err != nil {
		return err
	}
	s.idx = idx
	return nil
}

// auxPathFor returns the fixed, predictable sibling path a store splits
// its index region into while open for writing.
func auxPathFor(path string) string {
	return filepath.Clean(path) + ".idx"
}

func serializerCode(s interface{ Code() uint16 }, fallback uint16) uint16 {
	if s == nil {
		return fallback
	}
	return s.Code()
}

func countLive(idx *bucketindex.Index) (int, error) {
	n := 0
	err := idx.Iterate(func(_ [format.KeyHashLen]byte, _ int64) error {
		n++
		return nil
	})
	return n, err
}

// Path returns the path the store was opened at.
func (s *Store) Path() string {
	return s.path
}

// ReadOnly reports whether the store was opened with flag "r".
func (s *Store) ReadOnly() bool {
	return s.readOnly
}

// Header returns a copy of the store's current header.
func (s *Store) Header() format.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header
}

func (s *Store) writeHeaderLocked() error {
	buf := s.header.Encode()
	if _, err := s.file.WriteAt(buf[:], 0); err != nil {
		return pkgerrors.ClassifySyncError(err, s.path, 0)
	}
	return nil
}

// Close flushes any pending writes, merges the auxiliary index file back
// into the primary store file, and releases the advisory lock. Close is
// idempotent; calling it more than once is a no-op after the first.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	var errs error

	if !s.readOnly {
		if err := s.syncLocked(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	idxLen := s.idx.Len()
	if err := s.idx.Sync(); err != nil {
		errs = multierr.Append(errs, pkgerrors.ClassifySyncError(err, s.auxPath, 0))
	}
	if err := s.idx.Close(); err != nil {
		errs = multierr.Append(errs, err)
	}

	if s.auxFile != nil {
		if idxLen > 0 {
			if _, err := filesys.CopyFileRange(s.file, s.auxFile, s.header.DataEndPos, 0, idxLen, copyChunkSize); err != nil {
				errs = multierr.Append(errs, pkgerrors.NewStoreError(err, pkgerrors.ErrorCodeIO, "failed to merge auxiliary index file back into store").WithPath(s.path))
			}
		}
		if err := s.auxFile.Close(); err != nil {
			errs = multierr.Append(errs, err)
		}
		if err := os.Remove(s.auxPath); err != nil && !os.IsNotExist(err) {
			errs = multierr.Append(errs, err)
		}
	}

	if !s.readOnly {
		if err := s.writeHeaderLocked(); err != nil {
			errs = multierr.Append(errs, err)
		}
		if err := s.file.Sync(); err != nil {
			errs = multierr.Append(errs, pkgerrors.ClassifySyncError(err, s.path, 0))
		}
	}

	if err := s.flock.Unlock(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := s.file.Close(); err != nil {
		errs = multierr.Append(errs, err)
	}

	s.closed = true
	s.log.Infow("store closed", "path", s.path)
	return errs
}
