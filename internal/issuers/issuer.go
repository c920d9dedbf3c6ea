// Package issuers implements the issuer account domain for VeriStamp:
// registration, credential verification, token issuance, and the public
// issuer directory used by verifiers to locate certificate templates.
package issuers

import (
	"time"

	"github.com/google/uuid"
)

// Roles assignable to issuer accounts.
const (
	RoleIssuer = "issuer"
	RoleAdmin  = "admin"
)

// Issuer is a registered certificate-issuing organization. PasswordHash is
// never serialized.
type Issuer struct {
	ID                        uuid.UUID `json:"id"`
	Name                      string    `json:"name"`
	Email                     string    `json:"email"`
	PasswordHash              string    `json:"-"`
	State                     string    `json:"state"`
	District                  string    `json:"district"`
	InstituteType             string    `json:"institute_type"`
	RegistrationID            string    `json:"registration_id"`
	YearOfRegistration        int       `json:"year_of_registration"`
	PhoneNumber               string    `json:"phone_number"`
	RepresentativeName        string    `json:"representative_name"`
	RepresentativeDesignation string    `json:"representative_designation"`
	IssuerCode                string    `json:"issuer_code"`
	Role                      string    `json:"role"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// RegisterCommand carries the data for a new issuer account.
type RegisterCommand struct {
	Name                      string `json:"name"`
	Email                     string `json:"email"`
	Password                  string `json:"password"`
	State                     string `json:"state"`
	District                  string `json:"district"`
	InstituteType             string `json:"institute_type"`
	RegistrationID            string `json:"registration_id"`
	YearOfRegistration        int    `json:"year_of_registration"`
	PhoneNumber               string `json:"phone_number"`
	RepresentativeName        string `json:"representative_name"`
	RepresentativeDesignation string `json:"representative_designation"`
}

// PublicView is the unauthenticated projection of an issuer, exposed
// through the public directory.
type PublicView struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	State              string    `json:"state"`
	District           string    `json:"district"`
	InstituteType      string    `json:"institute_type"`
	RegistrationID     string    `json:"registration_id"`
	YearOfRegistration int       `json:"year_of_registration"`
	IssuerCode         string    `json:"issuer_code"`
}

// Public returns the unauthenticated projection.
func (i *Issuer) Public() PublicView {
	return PublicView{
		ID:                 i.ID,
		Name:               i.Name,
		State:              i.State,
		District:           i.District,
		InstituteType:      i.InstituteType,
		RegistrationID:     i.RegistrationID,
		YearOfRegistration: i.YearOfRegistration,
		IssuerCode:         i.IssuerCode,
	}
}
