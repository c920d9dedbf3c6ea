package api

import (
	"github.com/veristamp/veristamp/internal/certificates"
	"github.com/veristamp/veristamp/internal/config"
	"github.com/veristamp/veristamp/internal/extraction"
	"github.com/veristamp/veristamp/internal/issuers"
	"github.com/veristamp/veristamp/internal/templates"
	"github.com/veristamp/veristamp/internal/verification"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Issuers      issuers.System
	Templates    templates.System
	Certificates certificates.System
	Verification verification.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	issuersSystem := issuers.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	templatesSystem := templates.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	orchestrator := extraction.NewOrchestrator(
		runtime.Recognition,
		&cfg.Recognition,
		runtime.Logger,
	)

	certificatesSystem := certificates.New(
		runtime.Database.Connection(),
		runtime.Storage,
		templatesSystem,
		orchestrator,
		runtime.Logger,
		runtime.Pagination,
	)

	verificationSystem := verification.New(
		runtime.Database.Connection(),
		templatesSystem,
		issuersSystem,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Issuers:      issuersSystem,
		Templates:    templatesSystem,
		Certificates: certificatesSystem,
		Verification: verificationSystem,
	}
}
