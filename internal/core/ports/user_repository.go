package ports

import (
	"context"

	"github.com/atlascrm/crm-system/internal/core/domain"
)

// UserRepository defines persistence for the identity directory.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, page, limit int) ([]*domain.User, int64, error)
	// ListByRole returns every user holding the given role.
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	// UpdateProfile patches username/email; nil fields are left untouched.
	UpdateProfile(ctx context.Context, id string, username, email *string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	SetRoles(ctx context.Context, id string, roles domain.RoleSet) error
	SetActive(ctx context.Context, id string, active bool) error
}

// BindingRepository persists the supervisor→operator relation. It is used
// to scope supervisor analytics, never to gate claim assignment.
type BindingRepository interface {
	Bind(ctx context.Context, supervisorID, operatorID string) error
	CountOperators(ctx context.Context, supervisorID string) (int64, error)
}
