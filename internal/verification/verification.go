// Package verification implements the public verification surface for
// VeriStamp. Anyone holding a certificate id, its printed fingerprint, or
// its identifiable field values can check the registry; every successful
// check atomically increments the certificate's verification counter.
// Responses carry the certificate's field data but never its fingerprint.
package verification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/veristamp/veristamp/internal/issuers"
	"github.com/veristamp/veristamp/internal/templates"
	"github.com/veristamp/veristamp/pkg/pagination"
)

// Verification statuses.
const (
	StatusValid   = "valid"
	StatusExpired = "expired"
)

// View is the public verification result.
type View struct {
	CertificateID     uuid.UUID          `json:"certificate_id"`
	Status            string             `json:"status"`
	Data              map[string]string  `json:"data"`
	QRCodeData        string             `json:"qr_code_data,omitempty"`
	TemplateID        uuid.UUID          `json:"template_id"`
	TemplateName      string             `json:"template_name"`
	Issuer            issuers.PublicView `json:"issuer"`
	ExpiryDate        *time.Time         `json:"expiry_date,omitempty"`
	VerificationCount int                `json:"verification_count"`
	VerifiedAt        time.Time          `json:"verified_at"`
}

// FingerprintQuery carries the identifiable field values to verify against
// one template's certificates.
type FingerprintQuery struct {
	TemplateID uuid.UUID         `json:"template_id"`
	Data       map[string]string `json:"data"`
}

// System defines the public contract for verification operations.
type System interface {
	Handler() *Handler

	VerifyByID(ctx context.Context, id uuid.UUID) (*View, error)
	VerifyByHash(ctx context.Context, fingerprint string) (*View, error)
	VerifyByFingerprint(ctx context.Context, q FingerprintQuery) (*View, error)

	SearchIssuers(
		ctx context.Context,
		page pagination.PageRequest,
		filters issuers.PublicFilters,
	) (*pagination.PageResult[issuers.PublicView], error)

	ListIssuerTemplates(ctx context.Context, issuerID uuid.UUID) ([]templates.PublicView, error)
}
