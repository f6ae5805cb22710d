package ports

import (
	"context"

	"github.com/atlascrm/crm-system/internal/core/domain"
)

// CreateLeadInput carries the fields for a new lead. The initial status is
// always forced to "new" regardless of caller input.
type CreateLeadInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// UpdateLeadInput patches a lead. Nil fields are unchanged. A non-nil
// Status is validated against the transition table.
type UpdateLeadInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Status    *domain.LeadStatus
}

// ListLeadsInput carries the parameters for the list endpoint.
type ListLeadsInput struct {
	OperatorID string
	Status     domain.LeadStatus
	Page       int
	Limit      int
}

// ConvertResult is returned by ConvertToClient.
type ConvertResult struct {
	ClientID string
	LeadID   string
}

// LeadService defines use-case operations for the lead lifecycle.
type LeadService interface {
	// CreateLead: admin or operator.
	CreateLead(ctx context.Context, actor domain.Actor, input CreateLeadInput) (*domain.Lead, error)
	// GetLead: admin and supervisors see any lead, operators only their own.
	GetLead(ctx context.Context, actor domain.Actor, id string) (*domain.Lead, error)
	ListLeads(ctx context.Context, actor domain.Actor, input ListLeadsInput) ([]*domain.Lead, int64, error)
	// UpdateLead: admin patches anything; an operator only a lead assigned
	// to them. Status changes are validated for every caller.
	UpdateLead(ctx context.Context, actor domain.Actor, id string, input UpdateLeadInput) (*domain.Lead, error)
	// AssignOperator: admin or supervisor; target must hold the operator role.
	AssignOperator(ctx context.Context, actor domain.Actor, leadID, operatorID string) (*domain.Lead, error)
	// ConvertToClient atomically creates a Client from the lead's contact
	// fields and marks the lead converted. A second call returns
	// ErrAlreadyConverted.
	ConvertToClient(ctx context.Context, actor domain.Actor, leadID string) (*ConvertResult, error)
	// DeleteLead: admin only; fails with ErrInvalidState once converted.
	DeleteLead(ctx context.Context, actor domain.Actor, id string) error
	// AddComment: admin, supervisor, or the assigned operator.
	AddComment(ctx context.Context, actor domain.Actor, leadID, body string) (*domain.Comment, error)
}
