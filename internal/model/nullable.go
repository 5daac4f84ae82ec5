package model

import (
	"bytes"
	"encoding/json"
)

// Nullable is an optional field of a partial update. It tells an absent key
// (Set false, leave unchanged) from an explicit null (Set true, Value nil,
// clear) and a value.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// NullableOf returns a set field holding v.
func NullableOf[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null returns a set field holding null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// UnmarshalJSON is only called when the key is present, null included.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	n.Value = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// MarshalJSON writes the value, or null when unset or cleared.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// applyTo overwrites *dst with a copy of the value when the field is set.
func (n Nullable[T]) applyTo(dst **T) {
	if !n.Set {
		return
	}
	if n.Value == nil {
		*dst = nil
		return
	}
	v := *n.Value
	*dst = &v
}
