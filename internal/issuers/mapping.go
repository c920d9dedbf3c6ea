package issuers

import (
	"net/url"

	"github.com/veristamp/veristamp/pkg/query"
	"github.com/veristamp/veristamp/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "issuers", "i").
	Project("id", "ID").
	Project("name", "Name").
	Project("email", "Email").
	Project("password_hash", "PasswordHash").
	Project("state", "State").
	Project("district", "District").
	Project("institute_type", "InstituteType").
	Project("registration_id", "RegistrationID").
	Project("year_of_registration", "YearOfRegistration").
	Project("phone_number", "PhoneNumber").
	Project("representative_name", "RepresentativeName").
	Project("representative_designation", "RepresentativeDesignation").
	Project("issuer_code", "IssuerCode").
	Project("role", "Role").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field: "Name",
}

// PublicFilters contains the public directory search criteria. All
// non-nil filters are combined with AND; each uses case-insensitive
// contains matching.
type PublicFilters struct {
	Name          *string `json:"name,omitempty"`
	State         *string `json:"state,omitempty"`
	District      *string `json:"district,omitempty"`
	InstituteType *string `json:"institute_type,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f PublicFilters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Name", f.Name).
		WhereContains("State", f.State).
		WhereContains("District", f.District).
		WhereContains("InstituteType", f.InstituteType)
}

// PublicFiltersFromQuery extracts filter values from URL query parameters.
func PublicFiltersFromQuery(values url.Values) PublicFilters {
	var f PublicFilters

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}
	if s := values.Get("state"); s != "" {
		f.State = &s
	}
	if d := values.Get("district"); d != "" {
		f.District = &d
	}
	if it := values.Get("institute_type"); it != "" {
		f.InstituteType = &it
	}

	return f
}

func scanIssuer(s repository.Scanner) (Issuer, error) {
	var i Issuer
	err := s.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.PasswordHash,
		&i.State,
		&i.District,
		&i.InstituteType,
		&i.RegistrationID,
		&i.YearOfRegistration,
		&i.PhoneNumber,
		&i.RepresentativeName,
		&i.RepresentativeDesignation,
		&i.IssuerCode,
		&i.Role,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
