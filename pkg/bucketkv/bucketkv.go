// Package bucketkv is the public, serializer-aware entry point to a
// bucketkv store. It wraps internal/engine's byte-level Store with the
// key/value serialization the engine itself stays agnostic to, and
// applies the convenience write-buffer default the original module-level
// open() function used, distinct from the engine's own lower default.
package bucketkv

import (
	"context"

	"github.com/iamNilotpal/bucketkv/internal/engine"
	"github.com/iamNilotpal/bucketkv/internal/format"
	pkgerrors "github.com/iamNilotpal/bucketkv/pkg/errors"
	"github.com/iamNilotpal/bucketkv/pkg/logger"
	"github.com/iamNilotpal/bucketkv/pkg/options"
	"github.com/iamNilotpal/bucketkv/pkg/serializer"
)

// Store is a serializer-aware handle on an open bucketkv store file.
type Store struct {
	engine *engine.Store
	keySer serializer.Serializer
	valSer serializer.Serializer // nil for a fixed-value-length store.
}

// Open opens (or creates) the store file at path, tagging its logger
// with service. opts override the package defaults in order.
func Open(ctx context.Context, service string, path string, opts ...options.OptionFunc) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := options.NewDefaultOptions()
	cfg.WriteBufferSize = format.DefaultAPIWriteBufferSize
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.New(service)
	}

	eng, err := engine.Open(path, func(o *options.Options) { *o = cfg })
	if err != nil {
		return nil, err
	}

	h := eng.Header()

	keySer := cfg.KeySerializer
	if keySer == nil {
		keySer, err = serializer.Lookup(h.KeySerializerCode)
		if err != nil {
			eng.Close()
			return nil, pkgerrors.NewSerializerMissingError(h.KeySerializerCode, "key")
		}
	}

	var valSer serializer.Serializer
	if h.Layout == format.LayoutVariable {
		valSer = cfg.ValueSerializer
		if valSer == nil {
			valSer, err = serializer.Lookup(h.ValueSerializerCode)
			if err != nil {
				eng.Close()
				return nil, pkgerrors.NewSerializerMissingError(h.ValueSerializerCode, "value")
			}
		}
	}

	return &Store{engine: eng, keySer: keySer, valSer: valSer}, nil
}

// Path returns the path the store was opened at.
func (s *Store) Path() string {
	return s.engine.Path()
}

// Set stores value under key, running both through their configured
// serializers. For a store opened with WithFixedLayout, value must be a
// []byte of exactly the configured length.
func (s *Store) Set(ctx context.Context, key, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	kb, err := s.keySer.Dumps(key)
	if err != nil {
		return err
	}

	vb, err := s.encodeValue(value)
	if err != nil {
		return err
	}

	return s.engine.Set(kb, vb)
}

func (s *Store) encodeValue(value any) ([]byte, error) {
	if s.valSer != nil {
		return s.valSer.Dumps(value)
	}
	raw, ok := value.([]byte)
	if !ok {
		return nil, pkgerrors.NewFieldFormatError("value", value, "[]byte (fixed-length store)")
	}
	return raw, nil
}

// Get retrieves the value stored under key, decoding it through the
// configured value serializer. The second return reports whether key had
// a live entry.
func (s *Store) Get(ctx context.Context, key any) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	kb, err := s.keySer.Dumps(key)
	if err != nil {
		return nil, false, err
	}

	raw, found, err := s.engine.Get(kb)
	if err != nil || !found {
		return nil, found, err
	}
	if s.valSer == nil {
		return raw, true, nil
	}

	v, err := s.valSer.Loads(raw)
	if err != nil {
		return nil, true, err
	}
	return v, true, nil
}

// Contains reports whether key has a live entry.
func (s *Store) Contains(ctx context.Context, key any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	kb, err := s.keySer.Dumps(key)
	if err != nil {
		return false, err
	}
	return s.engine.Contains(kb)
}

// Delete removes key from the store.
func (s *Store) Delete(ctx context.Context, key any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kb, err := s.keySer.Dumps(key)
	if err != nil {
		return err
	}
	return s.engine.Delete(kb)
}

// Len returns the number of live entries in the store.
func (s *Store) Len() int {
	return s.engine.Len()
}

// Keys returns every live key in the store, decoded through the key
// serializer.
func (s *Store) Keys(ctx context.Context) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.engine.Keys()
	if err != nil {
		return nil, err
	}
	keys := make([]any, len(raw))
	for i, kb := range raw {
		k, err := s.keySer.Loads(kb)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}

// Values returns every live value in the store, decoded through the value
// serializer.
func (s *Store) Values(ctx context.Context) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.engine.Values()
	if err != nil {
		return nil, err
	}
	if s.valSer == nil {
		values := make([]any, len(raw))
		for i, v := range raw {
			values[i] = v
		}
		return values, nil
	}
	values := make([]any, len(raw))
	for i, vb := range raw {
		v, err := s.valSer.Loads(vb)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// Each calls fn for every live key/value pair, decoded through the
// configured serializers.
func (s *Store) Each(ctx context.Context, fn func(key, value any) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.engine.Each(func(kb, vb []byte) error {
		k, err := s.keySer.Loads(kb)
		if err != nil {
			return err
		}
		if s.valSer == nil {
			return fn(k, vb)
		}
		v, err := s.valSer.Loads(vb)
		if err != nil {
			return err
		}
		return fn(k, v)
	})
}

// Sync flushes any buffered writes and persists the header.
func (s *Store) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.engine.Sync()
}

// Prune compacts the data log, reclaiming space held by tombstoned records.
func (s *Store) Prune(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.engine.Prune()
}

// Clear discards every record in the store.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.engine.Clear()
}

// Close flushes pending writes, merges the auxiliary index file back into
// the store, and releases the store's advisory lock.
func (s *Store) Close(ctx context.Context) error {
	return s.engine.Close()
}
