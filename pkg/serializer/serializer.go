// Package serializer defines the dumps/loads contract a store's keys and
// values pass through before hitting the data log, plus a small registry
// of ready-made implementations. The store itself only ever sees raw
// bytes; serialization is a concern of the public API layer (pkg/bucketkv)
// that wraps it, matching the collaborator boundary the store's own
// on-disk format doesn't need to know about.
package serializer

import (
	"fmt"
	"sync"
)

// Serializer converts values to and from their on-disk byte representation.
type Serializer interface {
	// Dumps encodes v into bytes suitable for the data log.
	Dumps(v any) ([]byte, error)
	// Loads decodes bytes produced by Dumps back into a value.
	Loads(data []byte) (any, error)
	// Code is the numeric identifier persisted in the store header so a
	// later open can look the serializer back up in the registry.
	Code() uint16
}

// ErrSerializerMissing is returned by Lookup when no serializer is
// registered under the requested code.
type ErrSerializerMissing struct{ Code uint16 }

func (e *ErrSerializerMissing) Error() string {
	return fmt.Sprintf("serializer: no serializer registered for code %d", e.Code)
}

var (
	registryMu sync.RWMutex
	registry   = map[uint16]Serializer{}
)

// Register adds s to the process-wide registry, keyed by its Code. It
// panics if another serializer is already registered under the same code,
// since that would make an on-disk code ambiguous - this is meant to be
// called from package init(), not at runtime on user input.
func Register(s Serializer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if existing, ok := registry[s.Code()]; ok {
		panic(fmt.Sprintf("serializer: code %d already registered to %T", s.Code(), existing))
	}
	registry[s.Code()] = s
}

// Lookup returns the serializer registered under code.
func Lookup(code uint16) (Serializer, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[code]
	if !ok {
		return nil, &ErrSerializerMissing{Code: code}
	}
	return s, nil
}

func init() {
	Register(bytesSerializer{})
	Register(jsonSerializer{})
}
