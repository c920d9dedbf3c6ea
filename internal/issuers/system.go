package issuers

import (
	"context"

	"github.com/google/uuid"

	"github.com/veristamp/veristamp/pkg/middleware"
	"github.com/veristamp/veristamp/pkg/pagination"
)

// System defines the public contract for issuer domain operations.
type System interface {
	Handler(tokens *TokenIssuer, verifier middleware.TokenVerifier) *Handler

	Register(ctx context.Context, cmd RegisterCommand) (*Issuer, error)
	Authenticate(ctx context.Context, email, password string) (*Issuer, error)
	Find(ctx context.Context, id uuid.UUID) (*Issuer, error)

	SearchPublic(
		ctx context.Context,
		page pagination.PageRequest,
		filters PublicFilters,
	) (*pagination.PageResult[PublicView], error)
}
