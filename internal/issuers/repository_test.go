package issuers

import (
	"errors"
	"strings"
	"testing"
)

func registration() RegisterCommand {
	return RegisterCommand{
		Name:                      "State Technical Board",
		Email:                     "registrar@board.example",
		Password:                  "secret",
		State:                     "Kerala",
		District:                  "Ernakulam",
		InstituteType:             "university",
		RegistrationID:            "REG-4471",
		YearOfRegistration:        1998,
		PhoneNumber:               "9847012345",
		RepresentativeName:        "N. Pillai",
		RepresentativeDesignation: "Registrar",
	}
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RegisterCommand)
		wantErr string
	}{
		{
			name:   "valid registration",
			mutate: func(*RegisterCommand) {},
		},
		{
			name:    "missing name",
			mutate:  func(cmd *RegisterCommand) { cmd.Name = "" },
			wantErr: "name required",
		},
		{
			name:    "invalid email",
			mutate:  func(cmd *RegisterCommand) { cmd.Email = "not-an-address" },
			wantErr: "invalid email",
		},
		{
			name:    "short password",
			mutate:  func(cmd *RegisterCommand) { cmd.Password = "abc12" },
			wantErr: "at least 6 characters",
		},
		{
			name:    "missing registration id",
			mutate:  func(cmd *RegisterCommand) { cmd.RegistrationID = "" },
			wantErr: "registration id required",
		},
		{
			name:    "missing year of registration",
			mutate:  func(cmd *RegisterCommand) { cmd.YearOfRegistration = 0 },
			wantErr: "year of registration required",
		},
		{
			name:    "short phone number",
			mutate:  func(cmd *RegisterCommand) { cmd.PhoneNumber = "98470" },
			wantErr: "phone number must be 10 digits",
		},
		{
			name:    "non-numeric phone number",
			mutate:  func(cmd *RegisterCommand) { cmd.PhoneNumber = "98470x2345" },
			wantErr: "phone number must be 10 digits",
		},
		{
			name:    "missing representative name",
			mutate:  func(cmd *RegisterCommand) { cmd.RepresentativeName = "" },
			wantErr: "representative name required",
		},
		{
			name:    "missing representative designation",
			mutate:  func(cmd *RegisterCommand) { cmd.RepresentativeDesignation = "" },
			wantErr: "representative designation required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := registration()
			tt.mutate(&cmd)

			err := validateRegistration(cmd)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidRegistration) {
				t.Errorf("error = %v, want ErrInvalidRegistration", err)
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestPasswordMinimumLengthIsSix(t *testing.T) {
	cmd := registration()
	cmd.Password = "abc123"

	if err := validateRegistration(cmd); err != nil {
		t.Errorf("six character password rejected: %v", err)
	}
}

func TestIssuerPublicExposesRegistrationDetails(t *testing.T) {
	issuer := Issuer{
		Name:               "State Technical Board",
		Email:              "registrar@board.example",
		PasswordHash:       "secret",
		State:              "Kerala",
		RegistrationID:     "REG-4471",
		YearOfRegistration: 1998,
		IssuerCode:         "ISS-2026-00001",
	}

	view := issuer.Public()
	if view.RegistrationID != "REG-4471" {
		t.Errorf("RegistrationID = %q", view.RegistrationID)
	}
	if view.YearOfRegistration != 1998 {
		t.Errorf("YearOfRegistration = %d", view.YearOfRegistration)
	}
	if view.IssuerCode != "ISS-2026-00001" {
		t.Errorf("IssuerCode = %q", view.IssuerCode)
	}
}
