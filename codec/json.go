package codec

import "encoding/json"

// JSON is the default codec. Ids, numbers and timestamps come back in their
// canonical JSON forms, which is what the mirror contract is written against.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
