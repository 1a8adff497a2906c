package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/config"
	"github.com/setdecrunner/backend/pkg/db"
	"github.com/setdecrunner/backend/pkg/db/models"
	"github.com/setdecrunner/backend/pkg/enums"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/security"
)

type adminUserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// AdminService is the global-admin user directory. Every route using it sits
// behind the global admin gate.
type AdminService interface {
	ListUsers(ctx context.Context, query string, limit int) ([]UserDTO, error)
	GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	CreateUser(ctx context.Context, input AdminCreateInput) (*UserDTO, error)
	UpdateUser(ctx context.Context, id uuid.UUID, input AdminUpdateInput) (*UserDTO, error)
	DeleteUser(ctx context.Context, actor *models.User, id uuid.UUID) error
}

type adminService struct {
	repo        adminUserRepository
	passwordCfg config.PasswordConfig
}

// NewAdminService builds the admin user directory service.
func NewAdminService(repo adminUserRepository, passwordCfg config.PasswordConfig) (AdminService, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &adminService{repo: repo, passwordCfg: passwordCfg}, nil
}

// AdminCreateInput provisions an account by email. Existing accounts are
// returned unchanged, making the operation an upsert.
type AdminCreateInput struct {
	Email          string
	Name           string
	Password       string
	Role           string
	SiteAuthorized bool
}

// AdminUpdateInput patches account fields; nil means leave unchanged.
type AdminUpdateInput struct {
	Name           *string
	Role           *string
	SiteAuthorized *bool
	Banned         *bool
	Password       *string
}

func (s *adminService) ListUsers(ctx context.Context, query string, limit int) ([]UserDTO, error) {
	users, err := s.repo.Search(ctx, query, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(users))
	for i := range users {
		out = append(out, *FromModel(&users[i]))
	}
	return out, nil
}

func (s *adminService) GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *adminService) CreateUser(ctx context.Context, input AdminCreateInput) (*UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up user")
	}
	if existing != nil {
		return FromModel(existing), nil
	}

	role, err := parseGlobalRole(input.Role)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:          email,
		Name:           strings.TrimSpace(input.Name),
		Role:           role,
		SiteAuthorized: input.SiteAuthorized,
	}
	if input.Password != "" {
		hash, err := security.HashPassword(input.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		user.PasswordHash = &hash
	} else {
		user.MustChangePassword = true
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return FromModel(user), nil
}

func (s *adminService) UpdateUser(ctx context.Context, id uuid.UUID, input AdminUpdateInput) (*UserDTO, error) {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Role != nil {
		role, err := parseGlobalRole(*input.Role)
		if err != nil {
			return nil, err
		}
		user.Role = role
	}
	if input.SiteAuthorized != nil {
		user.SiteAuthorized = *input.SiteAuthorized
	}
	if input.Banned != nil {
		user.Banned = *input.Banned
	}
	if input.Password != nil {
		if *input.Password == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "password cannot be empty")
		}
		hash, err := security.HashPassword(*input.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		user.PasswordHash = &hash
		user.MustChangePassword = false
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save user")
	}
	return FromModel(user), nil
}

func (s *adminService) DeleteUser(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if actor != nil && actor.ID == id {
		return pkgerrors.New(pkgerrors.CodeValidation, "admins cannot delete their own account")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *adminService) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func parseGlobalRole(value string) (enums.GlobalRole, error) {
	if value == "" {
		return enums.GlobalRoleUser, nil
	}
	role, err := enums.ParseGlobalRoleStrict(value)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown role").
			WithDetails(map[string]string{"role": value})
	}
	return role, nil
}
