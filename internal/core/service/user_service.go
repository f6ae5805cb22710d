package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/atlascrm/crm-system/internal/core/domain"
	"github.com/atlascrm/crm-system/internal/core/ports"
)

// UserService implements the identity & role directory.
type UserService struct {
	users    ports.UserRepository
	bindings ports.BindingRepository
	logger   zerolog.Logger
}

func NewUserService(users ports.UserRepository, bindings ports.BindingRepository, logger zerolog.Logger) *UserService {
	return &UserService{users: users, bindings: bindings, logger: logger}
}

func (s *UserService) CreateUser(ctx context.Context, actor domain.Actor, input ports.CreateUserInput) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if input.Username == "" || input.Password == "" {
		return nil, fmt.Errorf("create user: %w", domain.ErrInvalidCredentials)
	}
	for _, r := range input.Roles {
		if !domain.ValidRole(r) {
			return nil, fmt.Errorf("create user: unknown role %q", r)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		IsActive:     true,
		Roles:        input.Roles.Normalize(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user created")
	return created, nil
}

func (s *UserService) GetUser(ctx context.Context, actor domain.Actor, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, actor domain.Actor, page, limit int) ([]*domain.User, int64, error) {
	if !actor.IsAdmin() && !actor.IsSupervisor() {
		return nil, 0, domain.ErrForbidden
	}
	page, limit = normalizePage(page, limit)
	return s.users.List(ctx, page, limit)
}

// UpdateUser patches profile fields. Admins may update anyone; everyone
// else only their own account.
func (s *UserService) UpdateUser(ctx context.Context, actor domain.Actor, id string, input ports.UpdateUserInput) (*domain.User, error) {
	if !actor.IsAdmin() && actor.UserID != id {
		return nil, domain.ErrForbidden
	}
	return s.users.UpdateProfile(ctx, id, input.Username, input.Email)
}

func (s *UserService) UpdatePassword(ctx context.Context, actor domain.Actor, id, password string) error {
	if !actor.IsAdmin() && actor.UserID != id {
		return domain.ErrForbidden
	}
	if password == "" {
		return fmt.Errorf("update password: %w", domain.ErrInvalidCredentials)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, string(hash))
}

func (s *UserService) DeactivateUser(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.users.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id).Msg("user deactivated")
	return nil
}

func (s *UserService) SetRoles(ctx context.Context, actor domain.Actor, id string, roles domain.RoleSet) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	for _, r := range roles {
		if !domain.ValidRole(r) {
			return fmt.Errorf("set roles: unknown role %q", r)
		}
	}
	return s.users.SetRoles(ctx, id, roles.Normalize())
}

// BindOperatorToSupervisor creates the supervisor→operator relation used by
// supervisor analytics. Both sides must hold the matching role.
func (s *UserService) BindOperatorToSupervisor(ctx context.Context, actor domain.Actor, supervisorID, operatorID string) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}

	supervisor, err := s.users.FindByID(ctx, supervisorID)
	if err != nil {
		return err
	}
	if !supervisor.Roles.Has(domain.RoleSupervisor) {
		return fmt.Errorf("bind operator: %w: user %s is not a supervisor", domain.ErrInvalidAssignee, supervisorID)
	}

	operator, err := s.users.FindByID(ctx, operatorID)
	if err != nil {
		return err
	}
	if !operator.Roles.Has(domain.RoleOperator) {
		return fmt.Errorf("bind operator: %w: user %s is not an operator", domain.ErrInvalidAssignee, operatorID)
	}

	if err := s.bindings.Bind(ctx, supervisorID, operatorID); err != nil {
		return err
	}

	s.logger.Info().Str("supervisor_id", supervisorID).Str("operator_id", operatorID).Msg("operator bound to supervisor")
	return nil
}

// normalizePage applies the shared defaults for list endpoints.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
