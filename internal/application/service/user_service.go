package service

import (
	"context"

	"github.com/buildcrew/fieldreport-api/internal/domain/entity"
	"github.com/buildcrew/fieldreport-api/internal/domain/repository"
	"github.com/buildcrew/fieldreport-api/pkg/apperror"
	"github.com/buildcrew/fieldreport-api/pkg/pagination"
	"github.com/google/uuid"
)

// UserService handles roster and user management business logic
type UserService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository) *UserService {
	return &UserService{userRepo: userRepo, roleRepo: roleRepo}
}

// ListRoster returns active users for the staff picker, optionally filtered
// by role name.
func (s *UserService) ListRoster(ctx context.Context, roleName string, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.User], error) {
	users, total, err := s.userRepo.List(ctx, roleName, params)
	if err != nil {
		return nil, apperror.ErrInternalServer
	}
	return pagination.NewPaginatedResult(users, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// GetUser fetches a single user with roles
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetWithRoles(ctx, id)
	if err != nil {
		return nil, apperror.ErrInternalServer
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// AssignRole grants a role to a user
func (s *UserService) AssignRole(ctx context.Context, userID uuid.UUID, roleName string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return apperror.ErrInternalServer
	}
	if user == nil {
		return apperror.NewNotFoundError("User")
	}

	role, err := s.roleRepo.GetByName(ctx, roleName)
	if err != nil {
		return apperror.ErrInternalServer
	}
	if role == nil {
		return apperror.NewNotFoundError("Role")
	}

	if err := s.roleRepo.AssignToUser(ctx, userID, role.ID); err != nil {
		return apperror.ErrInternalServer
	}
	return nil
}

// ListRoles returns all roles
func (s *UserService) ListRoles(ctx context.Context) ([]entity.Role, error) {
	roles, err := s.roleRepo.List(ctx)
	if err != nil {
		return nil, apperror.ErrInternalServer
	}
	return roles, nil
}
