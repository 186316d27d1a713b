package serializer

import (
	"fmt"

	"github.com/iamNilotpal/bucketkv/internal/format"
)

// bytesSerializer passes []byte values through unchanged. It is the
// default for stores that don't register anything else. Fixed-layout
// stores keep a key-serializer code in their header but have no
// value-serializer slot; their values bypass serializers entirely.
type bytesSerializer struct{}

func (bytesSerializer) Dumps(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("serializer: bytes serializer requires []byte, got %T", v)
	}
	return b, nil
}

func (bytesSerializer) Loads(data []byte) (any, error) {
	return data, nil
}

func (bytesSerializer) Code() uint16 { return format.SerializerCodeBytes }
