package templates

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/veristamp/veristamp/pkg/handlers"
	"github.com/veristamp/veristamp/pkg/middleware"
	"github.com/veristamp/veristamp/pkg/pagination"
	"github.com/veristamp/veristamp/pkg/routes"
)

// Handler provides HTTP endpoints for template operations. All endpoints
// require an authenticated issuer; list and search are scoped to the
// caller's own templates.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "templates"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for template endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/templates",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// List returns a paginated list of the caller's templates.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, middleware.ErrUnauthorized)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())
	filters.IssuerID = &principal.ID

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns one of the caller's templates by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, middleware.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidTemplate)
		return
	}

	t, err := h.sys.FindOwned(r.Context(), id, principal)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, t)
}

// Search accepts a JSON body with pagination and filter criteria and
// returns the caller's matching templates.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, middleware.ErrUnauthorized)
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidTemplate)
		return
	}

	req.PageRequest.Normalize(h.pagination)
	req.Filters.IssuerID = &principal.ID

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Create processes a multipart form with name, description, a JSON fields
// schema, an optional JSON common_fields array, a reference image file,
// and an optional logo file.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, middleware.ErrUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	fields, err := parseFields(r.FormValue("fields"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	commonFields, err := parseCommonFields(r.FormValue("common_fields"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	data, filename, contentType, err := readFormFile(r, "image")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	cmd := CreateCommand{
		Name:         r.FormValue("name"),
		Description:  r.FormValue("description"),
		Fields:       fields,
		CommonFields: commonFields,
		ImageData:    data,
		ImageName:    filename,
		ContentType:  contentType,
	}

	if logo, logoName, logoType, err := readFormFile(r, "logo"); err == nil {
		cmd.LogoData = logo
		cmd.LogoName = logoName
		cmd.LogoContentType = logoType
	}

	t, err := h.sys.Create(r.Context(), principal.ID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, t)
}

// Update processes a multipart form like Create; omitted parts leave the
// corresponding template attributes unchanged.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, middleware.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidTemplate)
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	cmd := UpdateCommand{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
	}

	if raw := r.FormValue("fields"); raw != "" {
		fields, err := parseFields(raw)
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		cmd.Fields = fields
	}

	if raw := r.FormValue("common_fields"); raw != "" {
		commonFields, err := parseCommonFields(raw)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
		cmd.CommonFields = commonFields
	}

	if data, filename, contentType, err := readFormFile(r, "image"); err == nil {
		cmd.ImageData = data
		cmd.ImageName = filename
		cmd.ContentType = contentType
	}

	if logo, logoName, logoType, err := readFormFile(r, "logo"); err == nil {
		cmd.LogoData = logo
		cmd.LogoName = logoName
		cmd.LogoContentType = logoType
	}

	t, err := h.sys.Update(r.Context(), id, principal, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, t)
}

// Delete removes one of the caller's templates by its UUID path parameter.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, middleware.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidTemplate)
		return
	}

	if err := h.sys.Delete(r.Context(), id, principal); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseFields(raw string) (FieldList, error) {
	if raw == "" {
		return nil, ErrNoFields
	}

	var fields FieldList
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, ErrInvalidField
	}

	if err := fields.Validate(); err != nil {
		return nil, err
	}

	return fields, nil
}

func parseCommonFields(raw string) (StringList, error) {
	if raw == "" {
		return nil, nil
	}

	var fields StringList
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("%w: common_fields must be a JSON string array", ErrInvalidTemplate)
	}

	return fields, nil
}

func readFormFile(r *http.Request, field string) ([]byte, string, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", "", ErrInvalidTemplate
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", "", ErrInvalidTemplate
	}

	return data, header.Filename, detectContentType(header.Header.Get("Content-Type"), data), nil
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}
