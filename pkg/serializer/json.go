package serializer

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/iamNilotpal/bucketkv/internal/format"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonSerializer marshals values with json-iterator, a drop-in faster
// replacement for encoding/json that keeps identical wire output. Loads
// decodes into a generic any (typically map[string]any / []any for
// structured payloads); callers needing a concrete type re-decode the
// returned value themselves.
type jsonSerializer struct{}

func (jsonSerializer) Dumps(v any) ([]byte, error) {
	return jsonAPI.Marshal(v)
}

func (jsonSerializer) Loads(data []byte) (any, error) {
	var v any
	if err := jsonAPI.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (jsonSerializer) Code() uint16 { return format.SerializerCodeJSON }
