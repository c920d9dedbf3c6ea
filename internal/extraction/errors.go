package extraction

import "errors"

var (
	ErrExtractionFailed = errors.New("extraction failed")
	ErrMissingFields    = errors.New("required fields not found on image")
	ErrNoFields         = errors.New("at least one field key required")
	ErrNoImages         = errors.New("at least one image required")
)
