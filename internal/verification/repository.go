package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/veristamp/veristamp/internal/certificates"
	"github.com/veristamp/veristamp/internal/issuers"
	"github.com/veristamp/veristamp/internal/templates"
	"github.com/veristamp/veristamp/pkg/fingerprint"
	"github.com/veristamp/veristamp/pkg/pagination"
	"github.com/veristamp/veristamp/pkg/repository"
)

type repo struct {
	db         *sql.DB
	templates  templates.System
	issuers    issuers.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a verification repository implementing the System interface.
func New(
	db *sql.DB,
	tmpl templates.System,
	iss issuers.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		templates:  tmpl,
		issuers:    iss,
		logger:     logger.With("system", "verification"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) VerifyByID(ctx context.Context, id uuid.UUID) (*View, error) {
	return r.verify(ctx, "id = $1", id)
}

// VerifyByHash looks up a certificate by its printed fingerprint.
func (r *repo) VerifyByHash(ctx context.Context, fp string) (*View, error) {
	if fp == "" {
		return nil, fmt.Errorf("%w: fingerprint required", ErrInvalidQuery)
	}
	return r.verify(ctx, "fingerprint = $1", fp)
}

// VerifyByFingerprint regenerates the canonical fingerprint from the
// submitted identifiable values and looks it up in the registry. All of
// the template's identifiable fields must be present and non-empty.
func (r *repo) VerifyByFingerprint(ctx context.Context, q FingerprintQuery) (*View, error) {
	tmpl, err := r.templates.Find(ctx, q.TemplateID)
	if err != nil {
		if errors.Is(err, templates.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown template", ErrInvalidQuery)
		}
		return nil, err
	}

	subset := make(map[string]string)
	for _, key := range tmpl.Fields.IdentifiableKeys() {
		value := q.Data[key]
		if value == "" {
			return nil, fmt.Errorf("%w: %q required", ErrInvalidQuery, key)
		}
		subset[key] = value
	}

	fp, err := fingerprint.Generate(subset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	return r.verify(ctx, "fingerprint = $1", fp)
}

func (r *repo) SearchIssuers(
	ctx context.Context,
	page pagination.PageRequest,
	filters issuers.PublicFilters,
) (*pagination.PageResult[issuers.PublicView], error) {
	return r.issuers.SearchPublic(ctx, page, filters)
}

func (r *repo) ListIssuerTemplates(ctx context.Context, issuerID uuid.UUID) ([]templates.PublicView, error) {
	if _, err := r.issuers.Find(ctx, issuerID); err != nil {
		return nil, err
	}
	return r.templates.ListPublic(ctx, issuerID)
}

// verify increments the match's verification counter atomically and builds
// the public view from the updated row.
func (r *repo) verify(ctx context.Context, where string, arg any) (*View, error) {
	q := fmt.Sprintf(`
		UPDATE certificates
		SET verification_count = verification_count + 1, updated_at = now()
		WHERE %s
		RETURNING id, template_id, issuer_id, data, fingerprint, qr_code_data, ocr_text, image_key, expiry_date, verification_count, created_at, updated_at`,
		where,
	)

	cert, err := repository.QueryOne(ctx, r.db, q, []any{arg}, scanCertificate)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}

	tmpl, err := r.templates.Find(ctx, cert.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("resolve template: %w", err)
	}

	issuer, err := r.issuers.Find(ctx, cert.IssuerID)
	if err != nil {
		return nil, fmt.Errorf("resolve issuer: %w", err)
	}

	view := buildView(&cert, tmpl, issuer)

	r.logger.Info("certificate verified",
		"id", cert.ID,
		"status", view.Status,
		"verification_count", cert.VerificationCount,
	)

	return view, nil
}

// buildView exposes the certificate's full field data; the fingerprint
// itself stays out of the response.
func buildView(cert *certificates.Certificate, tmpl *templates.Template, issuer *issuers.Issuer) *View {
	data := make(map[string]string, len(cert.Data))
	for key, value := range cert.Data {
		data[key] = value
	}

	return &View{
		CertificateID:     cert.ID,
		Status:            status(cert.ExpiryDate, time.Now()),
		Data:              data,
		QRCodeData:        cert.QRCodeData,
		TemplateID:        tmpl.ID,
		TemplateName:      tmpl.Name,
		Issuer:            issuer.Public(),
		ExpiryDate:        cert.ExpiryDate,
		VerificationCount: cert.VerificationCount,
		VerifiedAt:        time.Now(),
	}
}

// status reports expired only when the expiry date lies strictly in the
// past; a certificate expiring at the verification instant is still valid.
func status(expiry *time.Time, now time.Time) string {
	if expiry != nil && expiry.Before(now) {
		return StatusExpired
	}
	return StatusValid
}

func scanCertificate(s repository.Scanner) (certificates.Certificate, error) {
	var c certificates.Certificate
	err := s.Scan(
		&c.ID,
		&c.TemplateID,
		&c.IssuerID,
		&c.Data,
		&c.Fingerprint,
		&c.QRCodeData,
		&c.OCRText,
		&c.ImageKey,
		&c.ExpiryDate,
		&c.VerificationCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}
