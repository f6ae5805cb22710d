package ports

import (
	"context"

	"github.com/atlascrm/crm-system/internal/core/domain"
)

// ListLeadsFilter carries the query parameters for listing leads.
// OperatorID is enforced by the service layer for non-admin callers.
type ListLeadsFilter struct {
	OperatorID string            // non-empty = scoped to the assigned operator
	Status     domain.LeadStatus // optional
	Page       int               // 1-based
	Limit      int               // capped by the service
}

// LeadFieldPatch patches lead contact and assignment fields; nil means
// unchanged. Status changes go through UpdateStatus, never this patch.
type LeadFieldPatch struct {
	FirstName          *string
	LastName           *string
	Email              *string
	Phone              *string
	AssignedOperatorID *string
}

// LeadRepository defines persistence operations for leads.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) (*domain.Lead, error)
	FindByID(ctx context.Context, id string) (*domain.Lead, error)
	List(ctx context.Context, filter ListLeadsFilter) ([]*domain.Lead, int64, error)
	UpdateFields(ctx context.Context, id string, patch LeadFieldPatch) (*domain.Lead, error)
	// UpdateStatus is a compare-and-set: the write applies only if the lead
	// still holds status from. Returns ErrConcurrentUpdate when the CAS
	// loses, ErrLeadNotFound when the id does not exist.
	UpdateStatus(ctx context.Context, id string, from, to domain.LeadStatus) error
	// UpdateStatusAndFields is the CAS combined with a field patch in one
	// document write, so a status change and its accompanying patch land
	// together or not at all. Same race semantics as UpdateStatus.
	UpdateStatusAndFields(ctx context.Context, id string, from, to domain.LeadStatus, patch LeadFieldPatch) (*domain.Lead, error)
	AppendComment(ctx context.Context, id string, comment domain.Comment) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, status domain.LeadStatus) (int64, error)
	Count(ctx context.Context) (int64, error)
}
