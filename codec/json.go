package codec

import "encoding/json"

// JSON is a Codec backed by encoding/json. The zero value is ready to use.
// A non-empty Indent pretty-prints (backups meant to be read by people).
type JSON[V any] struct {
	Indent string
}

var _ Codec[struct{}] = JSON[struct{}]{}

func (c JSON[V]) Encode(v V) ([]byte, error) {
	if c.Indent != "" {
		return json.MarshalIndent(v, "", c.Indent)
	}
	return json.Marshal(v)
}

func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
