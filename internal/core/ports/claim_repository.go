package ports

import (
	"context"
	"time"

	"github.com/atlascrm/crm-system/internal/core/domain"
)

// ListClaimsFilter carries the query parameters for listing claims. The
// service layer fills in the scoping ids according to the caller's role.
type ListClaimsFilter struct {
	ClientID     string
	OperatorID   string
	SupervisorID string
	Status       domain.ClaimStatus
	Page         int
	Limit        int
}

// ClaimFieldPatch patches descriptive claim fields; nil means unchanged.
// Status and assignments go through their dedicated operations.
type ClaimFieldPatch struct {
	Description *string
}

// ClaimRepository defines persistence operations for claims.
type ClaimRepository interface {
	Create(ctx context.Context, claim *domain.Claim) (*domain.Claim, error)
	FindByID(ctx context.Context, id string) (*domain.Claim, error)
	List(ctx context.Context, filter ListClaimsFilter) ([]*domain.Claim, int64, error)
	UpdateFields(ctx context.Context, id string, patch ClaimFieldPatch) (*domain.Claim, error)
	// UpdateStatus is a compare-and-set on the current status; see
	// LeadRepository.UpdateStatus for the contract.
	UpdateStatus(ctx context.Context, id string, from, to domain.ClaimStatus) error
	SetOperator(ctx context.Context, id, operatorID string) error
	SetSupervisor(ctx context.Context, id, supervisorID string) error
	AppendComment(ctx context.Context, id string, comment domain.Comment) error
	AppendFile(ctx context.Context, id string, file domain.FileRef) error
	CountByStatus(ctx context.Context, status domain.ClaimStatus) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountForSupervisor(ctx context.Context, supervisorID string) (int64, error)
	CountResolvedForSupervisor(ctx context.Context, supervisorID string) (int64, error)
}
