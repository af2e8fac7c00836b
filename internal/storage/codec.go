package storage

import (
	"encoding/json"
	"errors"
)

// Codec serializes documents for persistence.
type Codec[T any] interface {
	Encode(value T) ([]byte, error)
	Decode(data []byte, into *T) error
}

// JSONCodec is the default codec: pretty-printed JSON with two-space indent.
// encoding/json sorts map keys, so identical logical content always produces
// identical bytes regardless of in-memory insertion order.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(value T) ([]byte, error) {
	return json.MarshalIndent(value, "", "  ")
}

func (JSONCodec[T]) Decode(data []byte, into *T) error {
	return json.Unmarshal(data, into)
}

// IsJSONDataError reports whether err indicates malformed or mistyped JSON
// content, the recoverable class of decode failures. Anything else coming out
// of a decoder signals a programming error and is not recoverable.
func IsJSONDataError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
