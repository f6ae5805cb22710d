package ports

import (
	"context"
	"io"

	"github.com/atlascrm/crm-system/internal/core/domain"
)

// CreateClaimInput carries the fields for a new claim. The initial status
// is always forced to "submitted".
type CreateClaimInput struct {
	ClientID    string
	Description string
}

// ListClaimsInput carries the parameters for the list endpoint. Scoping
// ids are overridden by the service for non-admin callers.
type ListClaimsInput struct {
	ClientID     string
	OperatorID   string
	SupervisorID string
	Status       domain.ClaimStatus
	Page         int
	Limit        int
}

// UpdateClaimInput patches claim fields; nil means unchanged. Status and
// assignments have dedicated operations and never pass through here.
type UpdateClaimInput struct {
	Description *string
}

// UploadFileInput carries an attachment to store against a claim.
type UploadFileInput struct {
	ClaimID     string
	FileName    string
	ContentType string
	Body        io.Reader
}

// FileDownload bundles an attachment's metadata with its content stream.
// The caller owns Body and must close it.
type FileDownload struct {
	Ref         domain.FileRef
	ContentType string
	Body        io.ReadCloser
}

// ClaimService defines use-case operations for the claim lifecycle.
type ClaimService interface {
	// CreateClaim: a client for their own client profile, or admin for any.
	CreateClaim(ctx context.Context, actor domain.Actor, input CreateClaimInput) (*domain.Claim, error)
	GetClaim(ctx context.Context, actor domain.Actor, id string) (*domain.Claim, error)
	ListClaims(ctx context.Context, actor domain.Actor, input ListClaimsInput) ([]*domain.Claim, int64, error)
	// UpdateClaim patches descriptive fields: admin and supervisor on any
	// claim, an operator only on claims assigned to them.
	UpdateClaim(ctx context.Context, actor domain.Actor, claimID string, input UpdateClaimInput) (*domain.Claim, error)
	// UpdateStatus: admin and supervisor may take any edge including the
	// resolved→in_review reopen; an operator only forward edges on claims
	// assigned to them; clients have no access.
	UpdateStatus(ctx context.Context, actor domain.Actor, claimID string, next domain.ClaimStatus) (*domain.Claim, error)
	// AssignOperator: admin or supervisor; target must hold the operator role.
	AssignOperator(ctx context.Context, actor domain.Actor, claimID, operatorID string) (*domain.Claim, error)
	// AssignSupervisor: admin only; target must hold the supervisor role.
	AssignSupervisor(ctx context.Context, actor domain.Actor, claimID, supervisorID string) (*domain.Claim, error)
	// UploadFile: any party with write access (client owner, assigned
	// operator, supervisor, admin).
	UploadFile(ctx context.Context, actor domain.Actor, input UploadFileInput) (*domain.FileRef, error)
	// DownloadFile streams a stored attachment; same access set as GetClaim.
	DownloadFile(ctx context.Context, actor domain.Actor, claimID, fileID string) (*FileDownload, error)
	// AddComment: same access set as UploadFile.
	AddComment(ctx context.Context, actor domain.Actor, claimID, body string) (*domain.Comment, error)
}

// FileStore abstracts the blob storage collaborator for claim attachments.
type FileStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	// Get returns the object stream and its content type.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
}
