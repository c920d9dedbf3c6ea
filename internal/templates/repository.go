package templates

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/veristamp/veristamp/pkg/middleware"
	"github.com/veristamp/veristamp/pkg/pagination"
	"github.com/veristamp/veristamp/pkg/query"
	"github.com/veristamp/veristamp/pkg/repository"
	"github.com/veristamp/veristamp/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a template repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "templates"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[ListItem], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count templates: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	ts, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanTemplate)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}

	counts, err := r.certificateCounts(ctx, ts)
	if err != nil {
		return nil, err
	}

	result := pagination.NewPageResult(attachCounts(ts, counts), total, page.Page, page.PageSize)
	return &result, nil
}

// certificateCounts returns the number of registered certificates per
// template for the given page of templates.
func (r *repo) certificateCounts(ctx context.Context, ts []Template) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(ts))
	if len(ts) == 0 {
		return counts, nil
	}

	placeholders := make([]string, len(ts))
	args := make([]any, len(ts))
	for i := range ts {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = ts[i].ID
	}

	q := fmt.Sprintf(
		"SELECT template_id, COUNT(*) FROM certificates WHERE template_id IN (%s) GROUP BY template_id",
		strings.Join(placeholders, ", "),
	)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("count certificates per template: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan certificate count: %w", err)
		}
		counts[id] = count
	}

	return counts, rows.Err()
}

func attachCounts(ts []Template, counts map[uuid.UUID]int) []ListItem {
	items := make([]ListItem, len(ts))
	for i := range ts {
		items[i] = ListItem{
			Template:         ts[i],
			CertificateCount: counts[ts[i].ID],
		}
	}
	return items
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Template, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	t, err := repository.QueryOne(ctx, r.db, q, args, scanTemplate)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &t, nil
}

func (r *repo) FindOwned(ctx context.Context, id uuid.UUID, actor middleware.Principal) (*Template, error) {
	t, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.AccessibleBy(actor) {
		return nil, ErrForbidden
	}
	return t, nil
}

func (r *repo) Create(ctx context.Context, issuerID uuid.UUID, cmd CreateCommand) (*Template, error) {
	if cmd.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidTemplate)
	}
	if len(cmd.ImageData) == 0 {
		return nil, fmt.Errorf("%w: reference image required", ErrInvalidTemplate)
	}
	if err := cmd.Fields.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	key := buildImageKey(id, sanitizeFilename(cmd.ImageName))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.ImageData), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload template image: %w", err)
	}

	var logoKey string
	if len(cmd.LogoData) > 0 {
		logoKey = buildLogoKey(id, sanitizeFilename(cmd.LogoName))
		if err := r.storage.Upload(ctx, logoKey, bytes.NewReader(cmd.LogoData), cmd.LogoContentType); err != nil {
			r.deleteBlob(ctx, key, "compensating image delete failed")
			return nil, fmt.Errorf("upload template logo: %w", err)
		}
	}

	q := `
		INSERT INTO templates(id, issuer_id, name, description, image_key, logo_key, fields, common_fields)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, issuer_id, name, description, image_key, logo_key, fields, common_fields, created_at, updated_at`

	insertArgs := []any{
		id,
		issuerID,
		cmd.Name,
		cmd.Description,
		key,
		logoKey,
		cmd.Fields,
		cmd.CommonFields,
	}

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Template, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanTemplate)
	})

	if err != nil {
		r.deleteBlob(ctx, key, "compensating image delete failed")
		r.deleteBlob(ctx, logoKey, "compensating logo delete failed")
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("template created", "id", t.ID, "issuer_id", issuerID, "name", t.Name)
	return &t, nil
}

// Update replaces the template's metadata and, when new image or logo
// bytes are provided, swaps the stored blob in two phases: upload the new
// blob, commit the row, then best-effort delete the old blob.
func (r *repo) Update(ctx context.Context, id uuid.UUID, actor middleware.Principal, cmd UpdateCommand) (*Template, error) {
	current, err := r.FindOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	name := cmd.Name
	if name == "" {
		name = current.Name
	}

	description := cmd.Description
	if description == "" {
		description = current.Description
	}

	fields := current.Fields
	if cmd.Fields != nil {
		if err := cmd.Fields.Validate(); err != nil {
			return nil, err
		}
		fields = cmd.Fields
	}

	commonFields := current.CommonFields
	if cmd.CommonFields != nil {
		commonFields = cmd.CommonFields
	}

	imageKey := current.ImageKey
	if len(cmd.ImageData) > 0 {
		imageKey = buildImageKey(id, sanitizeFilename(cmd.ImageName))
		if err := r.storage.Upload(ctx, imageKey, bytes.NewReader(cmd.ImageData), cmd.ContentType); err != nil {
			return nil, fmt.Errorf("upload template image: %w", err)
		}
	}

	logoKey := current.LogoKey
	if len(cmd.LogoData) > 0 {
		logoKey = buildLogoKey(id, sanitizeFilename(cmd.LogoName))
		if err := r.storage.Upload(ctx, logoKey, bytes.NewReader(cmd.LogoData), cmd.LogoContentType); err != nil {
			if imageKey != current.ImageKey {
				r.deleteBlob(ctx, imageKey, "compensating image delete failed")
			}
			return nil, fmt.Errorf("upload template logo: %w", err)
		}
	}

	q := `
		UPDATE templates
		SET name = $2, description = $3, image_key = $4, logo_key = $5, fields = $6, common_fields = $7, updated_at = now()
		WHERE id = $1
		RETURNING id, issuer_id, name, description, image_key, logo_key, fields, common_fields, created_at, updated_at`

	updateArgs := []any{id, name, description, imageKey, logoKey, fields, commonFields}

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Template, error) {
		return repository.QueryOne(ctx, tx, q, updateArgs, scanTemplate)
	})

	if err != nil {
		if imageKey != current.ImageKey {
			r.deleteBlob(ctx, imageKey, "compensating image delete failed")
		}
		if logoKey != current.LogoKey {
			r.deleteBlob(ctx, logoKey, "compensating logo delete failed")
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if imageKey != current.ImageKey {
		r.deleteBlob(ctx, current.ImageKey, "stale image delete failed")
	}
	if logoKey != current.LogoKey {
		r.deleteBlob(ctx, current.LogoKey, "stale logo delete failed")
	}

	r.logger.Info("template updated", "id", t.ID)
	return &t, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID, actor middleware.Principal) error {
	current, err := r.FindOwned(ctx, id, actor)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM templates WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.deleteBlob(ctx, current.ImageKey, "image delete failed after DB delete")
	r.deleteBlob(ctx, current.LogoKey, "logo delete failed after DB delete")

	r.logger.Info("template deleted", "id", id)
	return nil
}

// deleteBlob removes a blob best-effort, logging failures with the given
// message. Empty keys are ignored.
func (r *repo) deleteBlob(ctx context.Context, key, msg string) {
	if key == "" {
		return
	}
	if err := r.storage.Delete(ctx, key); err != nil {
		r.logger.Warn(msg, "key", key, "error", err)
	}
}

func (r *repo) ListPublic(ctx context.Context, issuerID uuid.UUID) ([]PublicView, error) {
	qb := query.NewBuilder(projection, defaultSort)
	qb.WhereEquals("IssuerID", &issuerID)

	q, args := qb.Build()
	ts, err := repository.QueryMany(ctx, r.db, q, args, scanTemplate)
	if err != nil {
		return nil, fmt.Errorf("query public templates: %w", err)
	}

	views := make([]PublicView, 0, len(ts))
	for i := range ts {
		views = append(views, ts[i].Public())
	}
	return views, nil
}

func buildImageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("templates/%s/%s", id, filename)
}

func buildLogoKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("logos/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "template"
	}
	return url.PathEscape(name)
}
