package verification

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/veristamp/veristamp/internal/issuers"
	"github.com/veristamp/veristamp/pkg/handlers"
	"github.com/veristamp/veristamp/pkg/pagination"
	"github.com/veristamp/veristamp/pkg/routes"
)

// Handler provides the unauthenticated verification endpoints.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "verification"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for verification endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/hash", Handler: h.VerifyByHash},
			{Method: "POST", Pattern: "/fingerprint", Handler: h.VerifyByFingerprint},
			{Method: "GET", Pattern: "/issuers", Handler: h.SearchIssuers},
			{Method: "GET", Pattern: "/issuers/{id}/templates", Handler: h.ListIssuerTemplates},
			{Method: "GET", Pattern: "/{id}", Handler: h.VerifyByID},
		},
	}
}

// VerifyByID verifies a certificate by its UUID path parameter.
func (h *Handler) VerifyByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidQuery)
		return
	}

	view, err := h.sys.VerifyByID(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, view)
}

type hashRequest struct {
	Fingerprint string `json:"fingerprint"`
}

// VerifyByHash verifies a certificate by the fingerprint printed on it.
func (h *Handler) VerifyByHash(w http.ResponseWriter, r *http.Request) {
	var req hashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidQuery)
		return
	}

	view, err := h.sys.VerifyByHash(r.Context(), req.Fingerprint)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, view)
}

// VerifyByFingerprint verifies a certificate by its identifiable field
// values submitted as JSON.
func (h *Handler) VerifyByFingerprint(w http.ResponseWriter, r *http.Request) {
	var q FingerprintQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidQuery)
		return
	}

	view, err := h.sys.VerifyByFingerprint(r.Context(), q)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, view)
}

// SearchIssuers returns the public issuer directory, filtered by optional
// name, state, district, and institute type query parameters.
func (h *Handler) SearchIssuers(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := issuers.PublicFiltersFromQuery(r.URL.Query())

	result, err := h.sys.SearchIssuers(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// ListIssuerTemplates returns an issuer's templates with only their
// identifiable fields exposed.
func (h *Handler) ListIssuerTemplates(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidQuery)
		return
	}

	views, err := h.sys.ListIssuerTemplates(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusNotFound, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, views)
}
