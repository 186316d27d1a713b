package options

import (
	"time"

	"github.com/iamNilotpal/bucketkv/internal/format"
)

const (
	// DefaultFlag opens for read-write, creating the store if it doesn't
	// already exist - the least surprising default for a first Open call.
	DefaultFlag = format.FlagCreate

	// DefaultWriteBufferSize is the low-level store's write-buffer size:
	// 4 MiB, matching the original constructor's default. See
	// format.DefaultAPIWriteBufferSize (applied by pkg/bucketkv) for the
	// public wrapper's distinct, larger default.
	DefaultWriteBufferSize = format.DefaultWriteBufferSize

	// MinWriteBufferSize is the smallest write-buffer size accepted by
	// WithWriteBufferSize; smaller values would make every write flush
	// the buffer, defeating its purpose.
	MinWriteBufferSize = format.MinWriteBufferSize

	// DefaultLockTimeout bounds how long Open waits to acquire the
	// advisory file lock before giving up.
	DefaultLockTimeout = 5 * time.Second
)

// defaultOptions holds the baseline configuration applied before any
// caller-supplied OptionFunc runs.
var defaultOptions = Options{
	Flag:            DefaultFlag,
	Layout:          format.LayoutVariable,
	WriteBufferSize: DefaultWriteBufferSize,
	LockTimeout:     DefaultLockTimeout,
}

// NewDefaultOptions returns a fresh copy of the baseline configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
