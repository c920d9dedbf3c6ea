package recognition

import "errors"

var (
	// ErrUnusableResponse indicates the model returned output that could not
	// be parsed into the response contract.
	ErrUnusableResponse = errors.New("recognition service returned unusable output")
	// ErrEmptyImage indicates no image bytes were provided.
	ErrEmptyImage = errors.New("image data required")
	// ErrNoFields indicates no field keys were requested.
	ErrNoFields = errors.New("at least one field key required")
)
