package persist

import "encoding/json"

// Serializer encodes the persistable value produced by the transform and
// decodes a stored entry back into per-model slices for hydration.
type Serializer interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte) (map[string]any, error)
}

// JSONSerializer is the default Serializer. Decoded slices carry JSON's
// generic Go types (map[string]any, []any, float64, string, bool); models
// that hydrate from persisted state should declare slices in those shapes.
type JSONSerializer struct{}

var _ Serializer = JSONSerializer{}

func (JSONSerializer) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONSerializer) Decode(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
