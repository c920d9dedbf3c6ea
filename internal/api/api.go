// Package api assembles the HTTP modules: the authenticated issuer API,
// the public authentication endpoints, and the public verification surface.
package api

import (
	"context"
	"net/http"

	"github.com/veristamp/veristamp/internal/config"
	"github.com/veristamp/veristamp/internal/infrastructure"
	"github.com/veristamp/veristamp/pkg/middleware"
	"github.com/veristamp/veristamp/pkg/module"
)

// Modules holds the mountable HTTP modules that comprise the service.
type Modules struct {
	API    *module.Module
	Auth   *module.Module
	Verify *module.Module
}

// NewModules creates all HTTP modules sharing one set of domain systems.
// The API module requires a bearer token on every route; the auth and
// verify modules are public.
func NewModules(ctx context.Context, cfg *config.Config, infra *infrastructure.Infrastructure) (*Modules, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	verifier, err := newVerifier(ctx, &cfg.Auth)
	if err != nil {
		return nil, err
	}

	apiMux := http.NewServeMux()
	registerAPIRoutes(apiMux, domain, cfg, runtime)

	apiModule := module.New(cfg.API.BasePath, apiMux)
	apiModule.Use(middleware.CORS(&cfg.API.CORS))
	apiModule.Use(middleware.Logger(runtime.Logger))
	apiModule.Use(middleware.Auth(verifier))

	authMux := http.NewServeMux()
	registerAuthRoutes(authMux, domain, cfg, runtime, verifier)

	authModule := module.New("/auth", authMux)
	authModule.Use(middleware.CORS(&cfg.API.CORS))
	authModule.Use(middleware.Logger(runtime.Logger))

	verifyMux := http.NewServeMux()
	registerVerifyRoutes(verifyMux, domain)

	verifyModule := module.New("/verify", verifyMux)
	verifyModule.Use(middleware.CORS(&cfg.API.CORS))
	verifyModule.Use(middleware.Logger(runtime.Logger))

	return &Modules{
		API:    apiModule,
		Auth:   authModule,
		Verify: verifyModule,
	}, nil
}

// Mount registers all modules on the router.
func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.Auth)
	router.Mount(m.Verify)
}

func newVerifier(ctx context.Context, cfg *config.AuthConfig) (middleware.TokenVerifier, error) {
	if cfg.Mode == "oidc" {
		return middleware.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
	}
	return middleware.NewJWTVerifier(cfg.SigningKey), nil
}
