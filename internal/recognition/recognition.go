// Package recognition defines the port to the external vision-model
// recognition service and its Gemini implementation. All parsing of the
// model's best-effort JSON output is isolated here; callers receive either
// a typed Response or an error, never raw model text.
package recognition

import (
	"context"
)

// Image carries the raw bytes of a scanned certificate and their MIME type.
type Image struct {
	Data        []byte
	ContentType string
}

// Region is a bounding box in image coordinates.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// FieldLocation pairs a field key with the region the model found it in.
type FieldLocation struct {
	Key      string `json:"key"`
	Location Region `json:"location"`
}

// Response is the typed contract for a recognition call. ExtractedData may
// omit requested keys or include unrequested ones; reconciliation against
// the template schema is the orchestrator's concern.
type Response struct {
	ExtractedData map[string]string `json:"extractedData"`
	OCRText       string            `json:"ocrText"`
	Locations     []FieldLocation   `json:"ocrLocations"`
}

// Client is the recognition capability consumed by the extraction
// orchestrator. Implementations must honor context cancellation and return
// an error rather than a partial response on unusable model output.
type Client interface {
	Recognize(ctx context.Context, img Image, fieldKeys []string) (*Response, error)
}
