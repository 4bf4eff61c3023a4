// Package optional provides a field wrapper for partial updates: a JSON key
// that is omitted or sent as null carries no value, anything else does.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value holds an optional T.
type Value[T any] struct {
	value T
	ok    bool
}

// Some returns a present value.
func Some[T any](v T) Value[T] {
	return Value[T]{value: v, ok: true}
}

// Get returns the wrapped value and true when one was supplied.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.ok
}

// UnmarshalJSON is only invoked by encoding/json when the key exists.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	var zero T
	v.value, v.ok = zero, false
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, &v.value); err != nil {
		return err
	}
	v.ok = true
	return nil
}
