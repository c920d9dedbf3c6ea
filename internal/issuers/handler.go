package issuers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/veristamp/veristamp/pkg/handlers"
	"github.com/veristamp/veristamp/pkg/middleware"
	"github.com/veristamp/veristamp/pkg/pagination"
	"github.com/veristamp/veristamp/pkg/routes"
)

// Handler provides HTTP endpoints for issuer registration, login, and the
// authenticated account view. Register and login are public; Me requires a
// bearer token and is wrapped individually so the routes can live in a
// public module.
type Handler struct {
	sys        System
	tokens     *TokenIssuer
	verifier   middleware.TokenVerifier
	logger     *slog.Logger
	pagination pagination.Config
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewHandler(
	sys System,
	tokens *TokenIssuer,
	verifier middleware.TokenVerifier,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		tokens:     tokens,
		verifier:   verifier,
		logger:     logger.With("handler", "issuers"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for authentication endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/register", Handler: h.Register},
			{Method: "POST", Pattern: "/login", Handler: h.Login},
			{Method: "GET", Pattern: "/me", Handler: h.authenticated(h.Me)},
		},
	}
}

// Register creates an issuer account and returns a signed token for it.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var cmd RegisterCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRegistration)
		return
	}

	issuer, err := h.sys.Register(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	resp, err := h.tokens.Issue(issuer)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, resp)
}

// Login verifies credentials and returns a signed token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidCredentials)
		return
	}

	issuer, err := h.sys.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	resp, err := h.tokens.Issue(issuer)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}

// Me returns the authenticated issuer's account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, middleware.ErrUnauthorized)
		return
	}

	issuer, err := h.sys.Find(r.Context(), principal.ID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, issuer)
}

func (h *Handler) authenticated(next http.HandlerFunc) http.HandlerFunc {
	wrapped := middleware.Auth(h.verifier)(next)
	return wrapped.ServeHTTP
}
