package certificates

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/veristamp/veristamp/internal/extraction"
	"github.com/veristamp/veristamp/internal/recognition"
	"github.com/veristamp/veristamp/internal/templates"
	"github.com/veristamp/veristamp/pkg/fingerprint"
	"github.com/veristamp/veristamp/pkg/middleware"
	"github.com/veristamp/veristamp/pkg/pagination"
	"github.com/veristamp/veristamp/pkg/query"
	"github.com/veristamp/veristamp/pkg/repository"
	"github.com/veristamp/veristamp/pkg/storage"
)

type repo struct {
	db           *sql.DB
	storage      storage.System
	templates    templates.System
	orchestrator *extraction.Orchestrator
	logger       *slog.Logger
	pagination   pagination.Config
}

// New creates a certificate repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	tmpl templates.System,
	orchestrator *extraction.Orchestrator,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:           db,
		storage:      store,
		templates:    tmpl,
		orchestrator: orchestrator,
		logger:       logger.With("system", "certificates"),
		pagination:   pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

// Upload stores the scan, extracts it against the template schema, and
// returns the reviewable result. The blob is removed again when extraction
// fails, so unconfirmed uploads never leak storage.
func (r *repo) Upload(ctx context.Context, actor middleware.Principal, templateID uuid.UUID, cmd UploadCommand) (*UploadResult, error) {
	tmpl, err := r.templates.FindOwned(ctx, templateID, actor)
	if err != nil {
		return nil, err
	}

	if len(cmd.Data) == 0 {
		return nil, ErrInvalidFile
	}

	key := buildScanKey(uuid.New(), sanitizeFilename(cmd.Filename))
	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload scan blob: %w", err)
	}

	result, err := r.orchestrator.Extract(
		ctx,
		recognition.Image{Data: cmd.Data, ContentType: cmd.ContentType},
		tmpl.Fields.Keys(),
	)
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating scan delete failed", "key", key, "error", delErr)
		}
		return nil, err
	}

	r.logger.Info("scan extracted", "template_id", templateID, "storage_key", key)

	return &UploadResult{
		TemplateID: templateID,
		StorageKey: key,
		PageCount:  pdfPageCount(r.logger, cmd.Data, cmd.ContentType),
		Extraction: result,
	}, nil
}

// UploadBatch stores every scan, extracts them concurrently, and reports
// per-file outcomes in input order. Scans whose extraction failed are
// removed from storage.
func (r *repo) UploadBatch(ctx context.Context, actor middleware.Principal, templateID uuid.UUID, cmds []UploadCommand) (*UploadBatchResult, error) {
	tmpl, err := r.templates.FindOwned(ctx, templateID, actor)
	if err != nil {
		return nil, err
	}

	if len(cmds) == 0 {
		return nil, ErrInvalidFile
	}

	items := make([]UploadBatchItem, len(cmds))
	keys := make([]string, len(cmds))

	// pending holds the original indices of scans that made it into
	// storage; only those are sent for extraction.
	pending := make([]int, 0, len(cmds))
	images := make([]recognition.Image, 0, len(cmds))

	for i, cmd := range cmds {
		items[i] = UploadBatchItem{Index: i, Filename: cmd.Filename}

		if len(cmd.Data) == 0 {
			items[i].Error = ErrInvalidFile.Error()
			continue
		}

		key := buildScanKey(uuid.New(), sanitizeFilename(cmd.Filename))
		if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
			items[i].Error = fmt.Sprintf("upload scan blob: %v", err)
			continue
		}

		keys[i] = key
		pending = append(pending, i)
		images = append(images, recognition.Image{Data: cmd.Data, ContentType: cmd.ContentType})
	}

	if len(pending) > 0 {
		batch, err := r.orchestrator.ExtractBatch(ctx, images, tmpl.Fields.Keys())
		if err != nil {
			r.cleanupScans(ctx, keys)
			return nil, err
		}

		for j, i := range pending {
			item := batch.Items[j]
			if item.Error != "" {
				items[i].Error = item.Error
				continue
			}
			items[i].Result = &UploadResult{
				TemplateID: templateID,
				StorageKey: keys[i],
				PageCount:  pdfPageCount(r.logger, cmds[i].Data, cmds[i].ContentType),
				Extraction: item.Result,
			}
		}
	}

	result := &UploadBatchResult{Items: items}
	for i := range items {
		if items[i].Error != "" {
			if keys[i] != "" {
				r.cleanupScans(ctx, []string{keys[i]})
				keys[i] = ""
			}
			result.ErrorCount++
		} else {
			result.SuccessCount++
		}
	}

	r.logger.Info("batch extracted",
		"template_id", templateID,
		"success", result.SuccessCount,
		"errors", result.ErrorCount,
	)

	return result, nil
}

// Confirm registers reviewed data as a certificate. The identifiable field
// subset is hashed into the fingerprint; a registry hit on the hash, either
// in the pre-check or through the unique index at insert, yields
// ErrDuplicate.
func (r *repo) Confirm(ctx context.Context, actor middleware.Principal, cmd ConfirmCommand) (*Certificate, error) {
	tmpl, err := r.templates.FindOwned(ctx, cmd.TemplateID, actor)
	if err != nil {
		return nil, err
	}

	data, subset, err := reconcileData(tmpl, cmd.Data)
	if err != nil {
		return nil, err
	}

	fp, err := fingerprint.Generate(subset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingIdentifiable, err)
	}

	if _, err := r.findByFingerprint(ctx, fp); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var qrData string
	if qrKey, ok := tmpl.Fields.QRKey(); ok {
		qrData = data[qrKey]
	}

	q := `
		INSERT INTO certificates(id, template_id, issuer_id, data, fingerprint, qr_code_data, ocr_text, image_key, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, template_id, issuer_id, data, fingerprint, qr_code_data, ocr_text, image_key, expiry_date, verification_count, created_at, updated_at`

	insertArgs := []any{
		uuid.New(),
		cmd.TemplateID,
		actor.ID,
		DataMap(data),
		fp,
		qrData,
		cmd.OCRText,
		cmd.StorageKey,
		cmd.ExpiryDate,
	}

	cert, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Certificate, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanCertificate)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("certificate confirmed", "id", cert.ID, "template_id", cert.TemplateID)
	return &cert, nil
}

// ConfirmBatch confirms each command independently and reports per-item
// outcomes in input order. A duplicate or invalid item never blocks the
// rest of the batch.
func (r *repo) ConfirmBatch(ctx context.Context, actor middleware.Principal, cmds []ConfirmCommand) (*ConfirmBatchResult, error) {
	if len(cmds) == 0 {
		return nil, ErrInvalidCertificate
	}

	result := &ConfirmBatchResult{Items: make([]ConfirmBatchItem, len(cmds))}

	for i, cmd := range cmds {
		result.Items[i] = ConfirmBatchItem{Index: i}

		cert, err := r.Confirm(ctx, actor, cmd)
		if err != nil {
			result.Items[i].Error = err.Error()
			result.ErrorCount++
			continue
		}

		result.Items[i].Certificate = cert
		result.SuccessCount++
	}

	r.logger.Info("batch confirmed",
		"success", result.SuccessCount,
		"errors", result.ErrorCount,
	)

	return result, nil
}

func (r *repo) ListByTemplate(
	ctx context.Context,
	actor middleware.Principal,
	templateID uuid.UUID,
	page pagination.PageRequest,
) (*pagination.PageResult[Certificate], error) {
	if _, err := r.templates.FindOwned(ctx, templateID, actor); err != nil {
		return nil, err
	}

	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	qb.WhereEquals("TemplateID", &templateID)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count certificates: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	certs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanCertificate)
	if err != nil {
		return nil, fmt.Errorf("query certificates: %w", err)
	}

	result := pagination.NewPageResult(certs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID, actor middleware.Principal) (*Certificate, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	cert, err := repository.QueryOne(ctx, r.db, q, args, scanCertificate)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	if cert.IssuerID != actor.ID && !actor.IsAdmin() {
		return nil, templates.ErrForbidden
	}
	return &cert, nil
}

func (r *repo) findByFingerprint(ctx context.Context, fp string) (*Certificate, error) {
	q, args := query.NewBuilder(projection).BuildSingle("Fingerprint", fp)

	cert, err := repository.QueryOne(ctx, r.db, q, args, scanCertificate)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &cert, nil
}

func (r *repo) cleanupScans(ctx context.Context, keys []string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := r.storage.Delete(ctx, key); err != nil {
			r.logger.Warn("compensating scan delete failed", "key", key, "error", err)
		}
	}
}

// reconcileData trims the submitted values to the template schema and
// extracts the identifiable subset. Every identifiable field must carry a
// non-empty value.
func reconcileData(tmpl *templates.Template, submitted map[string]string) (map[string]string, map[string]string, error) {
	data := make(map[string]string, len(tmpl.Fields))
	subset := make(map[string]string)

	for _, field := range tmpl.Fields {
		value := submitted[field.Key]
		data[field.Key] = value

		if field.Identifiable {
			if value == "" {
				return nil, nil, fmt.Errorf("%w: %q", ErrMissingIdentifiable, field.Key)
			}
			subset[field.Key] = value
		}
	}

	return data, subset, nil
}

func pdfPageCount(logger *slog.Logger, data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}

	return &count
}

func buildScanKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("scans/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "scan"
	}
	return url.PathEscape(name)
}
