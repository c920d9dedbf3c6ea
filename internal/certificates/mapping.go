package certificates

import (
	"github.com/veristamp/veristamp/pkg/query"
	"github.com/veristamp/veristamp/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "certificates", "c").
	Project("id", "ID").
	Project("template_id", "TemplateID").
	Project("issuer_id", "IssuerID").
	Project("data", "Data").
	Project("fingerprint", "Fingerprint").
	Project("qr_code_data", "QRCodeData").
	Project("ocr_text", "OCRText").
	Project("image_key", "ImageKey").
	Project("expiry_date", "ExpiryDate").
	Project("verification_count", "VerificationCount").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

func scanCertificate(s repository.Scanner) (Certificate, error) {
	var c Certificate
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
