package templates

import (
	"context"

	"github.com/google/uuid"

	"github.com/veristamp/veristamp/pkg/middleware"
	"github.com/veristamp/veristamp/pkg/pagination"
)

// System defines the public contract for template domain operations.
// Operations taking a Principal enforce ownership and fail with
// ErrForbidden when the actor is neither the owner nor an admin.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[ListItem], error)

	Find(ctx context.Context, id uuid.UUID) (*Template, error)
	FindOwned(ctx context.Context, id uuid.UUID, actor middleware.Principal) (*Template, error)
	Create(ctx context.Context, issuerID uuid.UUID, cmd CreateCommand) (*Template, error)
	Update(ctx context.Context, id uuid.UUID, actor middleware.Principal, cmd UpdateCommand) (*Template, error)
	Delete(ctx context.Context, id uuid.UUID, actor middleware.Principal) error
	ListPublic(ctx context.Context, issuerID uuid.UUID) ([]PublicView, error)
}
