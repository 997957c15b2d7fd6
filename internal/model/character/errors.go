package character

import "errors"

// Error kinds returned by Store implementations. They are wrapped with
// context, so test them with errors.Is.
var (
	ErrNotFound = errors.New("character not found")
	ErrIO       = errors.New("character store unavailable")
	ErrParse    = errors.New("character store is malformed")

	ErrIDExhausted = errors.New("no character id left above the current max")
)
