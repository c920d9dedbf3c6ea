package certificates

import (
	"errors"
	"net/http"

	"github.com/veristamp/veristamp/internal/extraction"
	"github.com/veristamp/veristamp/internal/templates"
)

// Domain errors for certificate operations.
var (
	ErrNotFound            = errors.New("certificate not found")
	ErrDuplicate           = errors.New("certificate already registered")
	ErrMissingIdentifiable = errors.New("identifiable field values required")
	ErrInvalidCertificate  = errors.New("invalid certificate")
	ErrInvalidFile         = errors.New("invalid file")
	ErrFileTooLarge        = errors.New("file exceeds maximum upload size")
)

// MapHTTPStatus maps certificate domain errors, and template errors
// surfaced through certificate operations, to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrMissingIdentifiable),
		errors.Is(err, ErrInvalidCertificate),
		errors.Is(err, ErrInvalidFile):
		return http.StatusBadRequest
	case errors.Is(err, extraction.ErrMissingFields),
		errors.Is(err, extraction.ErrNoFields),
		errors.Is(err, extraction.ErrNoImages):
		return http.StatusUnprocessableEntity
	case errors.Is(err, extraction.ErrExtractionFailed):
		return http.StatusBadGateway
	case errors.Is(err, templates.ErrNotFound),
		errors.Is(err, templates.ErrForbidden):
		return templates.MapHTTPStatus(err)
	}
	return http.StatusInternalServerError
}
