package datalist

import "encoding/json"

// Codec encodes a single record to bytes and back.
type Codec[T any] interface {
	Marshal(item T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}

// JSONCodec stores records as standalone JSON documents.
type JSONCodec[T any] struct{}

// Marshal encodes item as JSON.
func (JSONCodec[T]) Marshal(item T) ([]byte, error) {
	return json.Marshal(item)
}

// Unmarshal decodes a JSON document into a new T.
func (JSONCodec[T]) Unmarshal(data []byte) (T, error) {
	var item T
	err := json.Unmarshal(data, &item)
	return item, err
}
