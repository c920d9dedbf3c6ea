package verification

import (
	"testing"
	"time"

	"github.com/veristamp/veristamp/internal/certificates"
	"github.com/veristamp/veristamp/internal/issuers"
	"github.com/veristamp/veristamp/internal/templates"
)

func TestStatusExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		expiry *time.Time
		want   string
	}{
		{"no expiry", nil, StatusValid},
		{"future expiry", ptr(now.Add(24 * time.Hour)), StatusValid},
		{"expires this instant", ptr(now), StatusValid},
		{"expired one second ago", ptr(now.Add(-time.Second)), StatusExpired},
		{"expired long ago", ptr(now.AddDate(-1, 0, 0)), StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status(tt.expiry, now); got != tt.want {
				t.Errorf("status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildViewExposesFullFieldData(t *testing.T) {
	tmpl := &templates.Template{
		Name: "Degree Certificate",
		Fields: templates.FieldList{
			{Key: "name", Type: templates.FieldString, Identifiable: true},
			{Key: "rollNumber", Type: templates.FieldString, Identifiable: true},
			{Key: "course", Type: templates.FieldString},
			{Key: "grade", Type: templates.FieldString},
		},
	}

	cert := &certificates.Certificate{
		Data: certificates.DataMap{
			"name":       "Asha Verma",
			"rollNumber": "R-2041",
			"course":     "Civil Engineering",
			"grade":      "A",
		},
		Fingerprint:       "deadbeef",
		VerificationCount: 3,
	}

	issuer := &issuers.Issuer{
		Name:         "State Technical Board",
		Email:        "registrar@board.example",
		PasswordHash: "secret",
	}

	view := buildView(cert, tmpl, issuer)

	if len(view.Data) != 4 {
		t.Fatalf("Data = %v, want all 4 fields", view.Data)
	}
	if view.Data["course"] != "Civil Engineering" || view.Data["grade"] != "A" {
		t.Errorf("non-identifiable printed values missing from view: %v", view.Data)
	}
	if view.Data["name"] != "Asha Verma" || view.Data["rollNumber"] != "R-2041" {
		t.Errorf("Data = %v", view.Data)
	}
	for _, value := range view.Data {
		if value == cert.Fingerprint {
			t.Error("fingerprint leaked through view data")
		}
	}
	if view.VerificationCount != 3 {
		t.Errorf("VerificationCount = %d, want 3", view.VerificationCount)
	}
	if view.Issuer.Name != "State Technical Board" {
		t.Errorf("Issuer.Name = %q", view.Issuer.Name)
	}
	if view.Status != StatusValid {
		t.Errorf("Status = %q, want valid", view.Status)
	}
}

func ptr(t time.Time) *time.Time { return &t }
