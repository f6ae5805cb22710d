package ports

import (
	"context"

	"github.com/atlascrm/crm-system/internal/core/domain"
)

// CreateUserInput carries the fields for a new account.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Roles    domain.RoleSet
}

// UpdateUserInput patches profile fields; nil means unchanged.
type UpdateUserInput struct {
	Username *string
	Email    *string
}

// UserService defines identity directory operations. Every call is checked
// against the actor's capabilities before any mutation.
type UserService interface {
	// CreateUser requires the admin role.
	CreateUser(ctx context.Context, actor domain.Actor, input CreateUserInput) (*domain.User, error)
	GetUser(ctx context.Context, actor domain.Actor, id string) (*domain.User, error)
	// ListUsers requires admin or supervisor.
	ListUsers(ctx context.Context, actor domain.Actor, page, limit int) ([]*domain.User, int64, error)
	// UpdateUser: admins may update anyone, others only themselves.
	UpdateUser(ctx context.Context, actor domain.Actor, id string, input UpdateUserInput) (*domain.User, error)
	// UpdatePassword: admins may reset anyone's, others only their own.
	UpdatePassword(ctx context.Context, actor domain.Actor, id, password string) error
	// DeactivateUser requires admin. Deactivation is terminal; users are
	// never hard deleted.
	DeactivateUser(ctx context.Context, actor domain.Actor, id string) error
	// SetRoles requires admin.
	SetRoles(ctx context.Context, actor domain.Actor, id string, roles domain.RoleSet) error
	// BindOperatorToSupervisor requires admin and validates both roles.
	BindOperatorToSupervisor(ctx context.Context, actor domain.Actor, supervisorID, operatorID string) error
}

// AuthService authenticates credentials and issues session tokens.
type AuthService interface {
	// Login returns a signed token and the authenticated user, or
	// ErrInvalidCredentials / ErrAccountInactive.
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}
