package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/huangsam/tiercache/internal/contract"
)

// ListCodec serializes list records. An empty or missing list is an
// authoritative "nothing here".
type ListCodec[E any] struct{}

var _ contract.Codec[[]int] = ListCodec[int]{} // Compile-time check

// Encode writes nil lists as [] so empty answers round-trip as lists.
func (ListCodec[E]) Encode(value []E) ([]byte, error) {
	if value == nil {
		value = []E{}
	}
	return json.Marshal(value)
}

// Decode treats missing and null payloads as an empty list.
func (ListCodec[E]) Decode(data []byte) ([]E, error) {
	if isNullPayload(data) {
		return []E{}, nil
	}
	var value []E
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("failed to decode list payload: %w", err)
	}
	if value == nil {
		value = []E{}
	}
	return value, nil
}

// IsEmpty implements the Codec interface.
func (ListCodec[E]) IsEmpty(value []E) bool {
	return len(value) == 0
}

// ObjectCodec serializes single-object records. A nil object is an
// authoritative "nothing here".
type ObjectCodec[T any] struct{}

var _ contract.Codec[*int] = ObjectCodec[int]{} // Compile-time check

// Encode implements the Codec interface.
func (ObjectCodec[T]) Encode(value *T) ([]byte, error) {
	if value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(value)
}

// Decode treats missing and null payloads as a nil object.
func (ObjectCodec[T]) Decode(data []byte) (*T, error) {
	if isNullPayload(data) {
		return nil, nil
	}
	value := new(T)
	if err := json.Unmarshal(data, value); err != nil {
		return nil, fmt.Errorf("failed to decode object payload: %w", err)
	}
	return value, nil
}

// IsEmpty implements the Codec interface.
func (ObjectCodec[T]) IsEmpty(value *T) bool {
	return value == nil
}

func isNullPayload(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
