package api

import (
	"net/http"

	"github.com/veristamp/veristamp/internal/config"
	"github.com/veristamp/veristamp/internal/issuers"
	"github.com/veristamp/veristamp/pkg/middleware"
	"github.com/veristamp/veristamp/pkg/routes"
)

func registerAPIRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	maxUpload := cfg.API.MaxUploadSizeBytes()

	routes.Register(
		mux,
		domain.Templates.Handler(maxUpload).Routes(),
		domain.Certificates.Handler(maxUpload).Routes(),
		newStorageHandler(runtime.Storage, runtime.Logger).routes(),
	)
}

func registerAuthRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
	verifier middleware.TokenVerifier,
) {
	tokens := issuers.NewTokenIssuer(cfg.Auth.SigningKey, cfg.Auth.TokenTTLDuration())

	routes.Register(
		mux,
		domain.Issuers.Handler(tokens, verifier).Routes(),
	)
}

func registerVerifyRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(
		mux,
		domain.Verification.Handler().Routes(),
	)
}
