// Package templates implements the certificate template domain for
// VeriStamp. A template is an issuer-owned extraction schema: a reference
// image plus the set of fields printed on certificates of that design,
// including which fields identify a certificate uniquely.
package templates

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veristamp/veristamp/pkg/middleware"
)

// Field types supported by template schemas.
const (
	FieldString = "string"
	FieldNumber = "number"
	FieldDate   = "date"
	FieldQR     = "qr"
)

// Location is a bounding box on the template image where a field is
// expected to appear, in pixels from the top left.
type Location struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Field describes one printed field on a certificate design. Identifiable
// fields participate in fingerprint generation. OtherNames lists alternate
// labels the field may be printed under.
type Field struct {
	Key              string    `json:"key"`
	Type             string    `json:"type"`
	Identifiable     bool      `json:"identifiable"`
	Length           int       `json:"length,omitempty"`
	FixedLength      bool      `json:"fixedLength,omitempty"`
	OtherNames       []string  `json:"otherNames,omitempty"`
	ExpectedLocation *Location `json:"expectedLocation,omitempty"`
}

// FieldList is a JSONB-backed field schema column.
type FieldList []Field

// StringList is a JSONB-backed string array column.
type StringList []string

// Value implements driver.Valuer for JSONB storage.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported string list column type %T", src)
	}
}

// Value implements driver.Valuer for JSONB storage.
func (f FieldList) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (f *FieldList) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("unsupported fields column type %T", src)
	}
}

// Keys returns every field key in schema order.
func (f FieldList) Keys() []string {
	keys := make([]string, 0, len(f))
	for _, field := range f {
		keys = append(keys, field.Key)
	}
	return keys
}

// IdentifiableKeys returns the keys of identifiable fields in schema order.
func (f FieldList) IdentifiableKeys() []string {
	var keys []string
	for _, field := range f {
		if field.Identifiable {
			keys = append(keys, field.Key)
		}
	}
	return keys
}

// QRKey returns the key of the first qr-typed field, if any.
func (f FieldList) QRKey() (string, bool) {
	for _, field := range f {
		if field.Type == FieldQR {
			return field.Key, true
		}
	}
	return "", false
}

// Validate checks structural constraints on the schema: at least one field,
// non-empty unique keys, known types, and at least one identifiable field.
func (f FieldList) Validate() error {
	if len(f) == 0 {
		return ErrNoFields
	}

	seen := make(map[string]struct{}, len(f))
	identifiable := false

	for _, field := range f {
		if field.Key == "" {
			return fmt.Errorf("%w: empty key", ErrInvalidField)
		}
		if _, ok := seen[field.Key]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateFieldKey, field.Key)
		}
		seen[field.Key] = struct{}{}

		switch field.Type {
		case FieldString, FieldNumber, FieldDate, FieldQR:
		default:
			return fmt.Errorf("%w: %q has unknown type %q", ErrInvalidField, field.Key, field.Type)
		}

		if field.Length < 0 {
			return fmt.Errorf("%w: %q has negative length", ErrInvalidField, field.Key)
		}
		if field.Identifiable {
			identifiable = true
		}
	}

	if !identifiable {
		return ErrNoIdentifiableFields
	}

	return nil
}

// Template is an issuer-owned certificate design: a reference image and an
// optional branding logo in blob storage, the extraction field schema, and
// the common field values printed on every certificate of the design.
type Template struct {
	ID           uuid.UUID  `json:"id"`
	IssuerID     uuid.UUID  `json:"issuer_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	ImageKey     string     `json:"image_key"`
	LogoKey      string     `json:"logo_key,omitempty"`
	Fields       FieldList  `json:"fields"`
	CommonFields StringList `json:"common_fields"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ListItem pairs a template with the number of certificates registered
// against it, for the owner listing.
type ListItem struct {
	Template
	CertificateCount int `json:"certificate_count"`
}

// CreateCommand carries the data for a new template. ImageData holds the
// raw reference image bytes and is required on create; LogoData is an
// optional branding logo.
type CreateCommand struct {
	Name            string
	Description     string
	Fields          FieldList
	CommonFields    StringList
	ImageData       []byte
	ImageName       string
	ContentType     string
	LogoData        []byte
	LogoName        string
	LogoContentType string
}

// UpdateCommand carries a template update. A nil Fields or CommonFields
// leaves the corresponding schema unchanged; empty ImageData or LogoData
// leaves the stored blob unchanged.
type UpdateCommand struct {
	Name            string
	Description     string
	Fields          FieldList
	CommonFields    StringList
	ImageData       []byte
	ImageName       string
	ContentType     string
	LogoData        []byte
	LogoName        string
	LogoContentType string
}

// PublicField is the externally visible subset of a field definition.
// Only identifiable fields are published.
type PublicField struct {
	Key        string   `json:"key"`
	Type       string   `json:"type"`
	OtherNames []string `json:"otherNames,omitempty"`
}

// AccessibleBy reports whether the actor may operate on the template.
// Admins bypass the ownership check.
func (t *Template) AccessibleBy(actor middleware.Principal) bool {
	return t.IssuerID == actor.ID || actor.IsAdmin()
}

// PublicView is the unauthenticated projection of a template: name,
// description, common field values, and the reference image, with only the
// identifiable fields of the schema.
type PublicView struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	CommonFields StringList    `json:"common_fields"`
	ImageKey     string        `json:"image_key"`
	Fields       []PublicField `json:"fields"`
}

// Public returns the unauthenticated projection, exposing only
// identifiable fields of the schema.
func (t *Template) Public() PublicView {
	view := PublicView{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		CommonFields: t.CommonFields,
		ImageKey:     t.ImageKey,
	}
	for _, field := range t.Fields {
		if !field.Identifiable {
			continue
		}
		view.Fields = append(view.Fields, PublicField{
			Key:        field.Key,
			Type:       field.Type,
			OtherNames: field.OtherNames,
		})
	}
	return view
}
