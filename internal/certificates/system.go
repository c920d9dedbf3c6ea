package certificates

import (
	"context"

	"github.com/google/uuid"

	"github.com/veristamp/veristamp/pkg/middleware"
	"github.com/veristamp/veristamp/pkg/pagination"
)

// System defines the public contract for certificate domain operations.
// All operations are scoped to the calling principal; template ownership
// is enforced before any scan is extracted or confirmed, with admins
// bypassing the ownership check.
type System interface {
	Handler(maxUploadSize int64) *Handler

	Upload(ctx context.Context, actor middleware.Principal, templateID uuid.UUID, cmd UploadCommand) (*UploadResult, error)
	UploadBatch(ctx context.Context, actor middleware.Principal, templateID uuid.UUID, cmds []UploadCommand) (*UploadBatchResult, error)
	Confirm(ctx context.Context, actor middleware.Principal, cmd ConfirmCommand) (*Certificate, error)
	ConfirmBatch(ctx context.Context, actor middleware.Principal, cmds []ConfirmCommand) (*ConfirmBatchResult, error)

	ListByTemplate(
		ctx context.Context,
		actor middleware.Principal,
		templateID uuid.UUID,
		page pagination.PageRequest,
	) (*pagination.PageResult[Certificate], error)

	Find(ctx context.Context, id uuid.UUID, actor middleware.Principal) (*Certificate, error)
}
