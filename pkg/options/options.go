// Package options provides data structures and functions for configuring a
// bucketkv store. It defines the parameters that control how a store is
// opened and how it behaves once open: value layout, open flag, write
// buffering, lock acquisition, serialization, and logging.
package options

import (
	"time"

	"github.com/iamNilotpal/bucketkv/internal/format"
	"github.com/iamNilotpal/bucketkv/pkg/serializer"
	"go.uber.org/zap"
)

// Options holds the full configuration for opening and operating a store.
type Options struct {
	// Flag selects how the store file is opened: read-only ("r"),
	// read-write against an existing file ("w"), read-write creating if
	// absent ("c"), or always-fresh ("n").
	Flag format.OpenFlag

	// Layout chooses between per-record value lengths (LayoutVariable)
	// and one fixed value length for every record (LayoutFixed).
	Layout format.Layout

	// FixedValueLen is the value length every record must have when
	// Layout is LayoutFixed. Ignored for LayoutVariable.
	FixedValueLen uint32

	// WriteBufferSize bounds how many bytes of pending writes accumulate
	// before they are flushed to the data log in one append.
	WriteBufferSize int

	// LockTimeout bounds how long Open waits to acquire the store's
	// advisory file lock.
	LockTimeout time.Duration

	// KeySerializer and ValueSerializer convert keys/values to and from
	// their on-disk byte representation. Nil selects the raw-bytes
	// serializer for a newly created store; pkg/bucketkv resolves a nil
	// serializer on an existing store from the code stored in its header.
	// LayoutFixed stores ignore ValueSerializer: fixed-length
	// values are always raw bytes.
	KeySerializer   serializer.Serializer
	ValueSerializer serializer.Serializer

	// Logger receives structured logs of store lifecycle and maintenance
	// events. A nil Logger falls back to a no-op logger in internal/engine;
	// pkg/bucketkv.Open replaces a nil Logger with a production logger
	// tagged with its service name.
	Logger *zap.SugaredLogger
}

// OptionFunc is a function type that modifies a store's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions applies the baseline configuration. Later options in
// the same Open call override individual fields it sets.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithFlag sets the open flag. Invalid flags are left for Open itself to
// reject with an InvalidFlag error, so that validation happens at the
// single point that actually knows the file's state.
func WithFlag(flag format.OpenFlag) OptionFunc {
	return func(o *Options) {
		o.Flag = flag
	}
}

// WithFixedLayout configures the store for fixed-length values of
// valueLen bytes each.
func WithFixedLayout(valueLen uint32) OptionFunc {
	return func(o *Options) {
		o.Layout = format.LayoutFixed
		o.FixedValueLen = valueLen
	}
}

// WithWriteBufferSize sets the write-buffer size. Values below
// MinWriteBufferSize are ignored, keeping the configured default in place
// rather than silently producing a pathologically small buffer.
func WithWriteBufferSize(size int) OptionFunc {
	return func(o *Options) {
		if size >= MinWriteBufferSize {
			o.WriteBufferSize = size
		}
	}
}

// WithLockTimeout sets how long Open waits to acquire the store's
// advisory lock before giving up.
func WithLockTimeout(timeout time.Duration) OptionFunc {
	return func(o *Options) {
		if timeout > 0 {
			o.LockTimeout = timeout
		}
	}
}

// WithKeySerializer sets the serializer applied to keys before hashing and
// storage.
func WithKeySerializer(s serializer.Serializer) OptionFunc {
	return func(o *Options) {
		o.KeySerializer = s
	}
}

// WithValueSerializer sets the serializer applied to values. Has no effect
// on a store opened with WithFixedLayout.
func WithValueSerializer(s serializer.Serializer) OptionFunc {
	return func(o *Options) {
		o.ValueSerializer = s
	}
}

// WithLogger injects a structured logger for lifecycle and maintenance events.
func WithLogger(log *zap.SugaredLogger) OptionFunc {
	return func(o *Options) {
		o.Logger = log
	}
}
