package verification

import (
	"errors"
	"net/http"
)

// Domain errors for verification operations.
var (
	ErrNotFound     = errors.New("certificate not found")
	ErrInvalidQuery = errors.New("invalid verification query")
)

// MapHTTPStatus maps verification domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidQuery):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
