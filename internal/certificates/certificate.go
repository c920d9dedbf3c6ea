// Package certificates implements the certificate registry for VeriStamp.
// Issuers upload scans for extraction, review the extracted values, and
// confirm them into the registry, where each certificate is deduplicated
// by a canonical fingerprint over its identifiable field values.
package certificates

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veristamp/veristamp/internal/extraction"
)

// DataMap is a JSONB-backed map of field keys to confirmed values.
type DataMap map[string]string

// Value implements driver.Valuer for JSONB storage.
func (d DataMap) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (d *DataMap) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported data column type %T", src)
	}
}

// Certificate is a confirmed certificate record. Fingerprint is the
// canonical hash over the identifiable field values; the database enforces
// its uniqueness.
type Certificate struct {
	ID                uuid.UUID  `json:"id"`
	TemplateID        uuid.UUID  `json:"template_id"`
	IssuerID          uuid.UUID  `json:"issuer_id"`
	Data              DataMap    `json:"data"`
	Fingerprint       string     `json:"fingerprint"`
	QRCodeData        string     `json:"qr_code_data,omitempty"`
	OCRText           string     `json:"ocr_text,omitempty"`
	ImageKey          string     `json:"image_key,omitempty"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	VerificationCount int        `json:"verification_count"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// UploadCommand carries one scan to extract. Data holds the raw file bytes.
type UploadCommand struct {
	Data        []byte
	Filename    string
	ContentType string
}

// UploadResult pairs the stored scan with its extraction outcome. The
// caller reviews ExtractedData and submits a ConfirmCommand to register
// the certificate.
type UploadResult struct {
	TemplateID uuid.UUID          `json:"template_id"`
	StorageKey string             `json:"storage_key"`
	PageCount  *int               `json:"page_count,omitempty"`
	Extraction *extraction.Result `json:"extraction"`
}

// UploadBatchItem reports the outcome of a single file in a batch upload,
// at its original position.
type UploadBatchItem struct {
	Index    int           `json:"index"`
	Filename string        `json:"filename"`
	Result   *UploadResult `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// UploadBatchResult aggregates a batch upload. Items preserve input order.
type UploadBatchResult struct {
	Items        []UploadBatchItem `json:"items"`
	SuccessCount int               `json:"successCount"`
	ErrorCount   int               `json:"errorCount"`
}

// ConfirmCommand registers reviewed extraction data as a certificate.
// StorageKey references the scan stored during upload and may be empty
// when no scan is retained.
type ConfirmCommand struct {
	TemplateID uuid.UUID         `json:"template_id"`
	Data       map[string]string `json:"data"`
	OCRText    string            `json:"ocr_text,omitempty"`
	StorageKey string            `json:"storage_key,omitempty"`
	ExpiryDate *time.Time        `json:"expiry_date,omitempty"`
}

// ConfirmBatchItem reports the outcome of a single command in a batch
// confirmation, at its original position.
type ConfirmBatchItem struct {
	Index       int          `json:"index"`
	Certificate *Certificate `json:"certificate,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// ConfirmBatchResult aggregates a batch confirmation. Items preserve input
// order; each command succeeds or fails independently.
type ConfirmBatchResult struct {
	Items        []ConfirmBatchItem `json:"items"`
	SuccessCount int                `json:"successCount"`
	ErrorCount   int                `json:"errorCount"`
}
