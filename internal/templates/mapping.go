package templates

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/veristamp/veristamp/pkg/query"
	"github.com/veristamp/veristamp/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "templates", "t").
	Project("id", "ID").
	Project("issuer_id", "IssuerID").
	Project("name", "Name").
	Project("description", "Description").
	Project("image_key", "ImageKey").
	Project("logo_key", "LogoKey").
	Project("fields", "Fields").
	Project("common_fields", "CommonFields").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for template queries.
// Nil fields are ignored. Name uses case-insensitive contains matching.
type Filters struct {
	IssuerID *uuid.UUID `json:"issuer_id,omitempty"`
	Name     *string    `json:"name,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("IssuerID", f.IssuerID).
		WhereContains("Name", f.Name)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	return f
}

func scanTemplate(s repository.Scanner) (Template, error) {
	var t Template
	err := s.Scan(
		&t.ID,
		&t.IssuerID,
		&t.Name,
		&t.Description,
		&t.ImageKey,
		&t.LogoKey,
		&t.Fields,
		&t.CommonFields,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}
