package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/auth"
	"github.com/setdecrunner/backend/pkg/config"
	"github.com/setdecrunner/backend/pkg/db"
	"github.com/setdecrunner/backend/pkg/db/models"
	"github.com/setdecrunner/backend/pkg/enums"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/mailer"
	"github.com/setdecrunner/backend/pkg/security"
	"github.com/setdecrunner/backend/pkg/slug"
)

// productionFinder is the slice of the production store login needs to
// verify a requested tenant.
type productionFinder interface {
	FindBySlug(ctx context.Context, slug string) (*models.Production, error)
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetDigest(ctx context.Context, digest string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// Service exposes account and session operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*SessionDTO, error)
	Login(ctx context.Context, input LoginInput) (*SessionDTO, error)
	Me(ctx context.Context, user *models.User) *UserDTO
	ChangePassword(ctx context.Context, user *models.User, current, next string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, next string) error
}

type service struct {
	repo        userRepository
	productions productionFinder
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	mail        mailer.Sender
	clientBase  string
}

// NewService builds the identity service.
func NewService(repo userRepository, productions productionFinder, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig, mail mailer.Sender, clientBase string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{
		repo:        repo,
		productions: productions,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		mail:        mail,
		clientBase:  clientBase,
	}, nil
}

// RegisterInput captures self-service sign up data.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// LoginInput captures credential exchange data. Slug optionally names the
// production the client wants to land in; when set it must resolve to an
// active production the user belongs to.
type LoginInput struct {
	Email    string
	Password string
	Slug     string
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*SessionDTO, error) {
	existing, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up email")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: &hash,
		Role:         enums.GlobalRoleUser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return s.session(user)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*SessionDTO, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up email")
	}
	if user == nil || user.PasswordHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if user.Banned {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account suspended")
	}

	ok, err := security.VerifyPassword(input.Password, *user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	if input.Slug != "" {
		if err := s.checkProductionLogin(ctx, user, input.Slug); err != nil {
			return nil, err
		}
	}

	return s.session(user)
}

// checkProductionLogin verifies the requested tenant: the slug must name an
// active production the user belongs to on either membership record.
func (s *service) checkProductionLogin(ctx context.Context, user *models.User, rawSlug string) error {
	if s.productions == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "production lookup unavailable")
	}
	production, err := s.productions.FindBySlug(ctx, slug.Normalize(rawSlug))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up production")
	}
	if production == nil || !production.IsActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "production not found")
	}
	onRoster := production.Members.Contains(user.ID)
	onUser := user.ProductionIDs.Contains(production.ID)
	if !onRoster && !onUser && !production.OwnedBy(user.ID) && !user.IsGlobalAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "production membership required")
	}
	return nil
}

func (s *service) Me(ctx context.Context, user *models.User) *UserDTO {
	return FromModel(user)
}

func (s *service) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	if user == nil || user.PasswordHash == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	ok, err := security.VerifyPassword(current, *user.PasswordHash)
	if err != nil || !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password does not match")
	}

	hash, err := security.HashPassword(next, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user.PasswordHash = &hash
	user.MustChangePassword = false
	if err := s.repo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save password")
	}
	return nil
}

// ForgotPassword issues a reset link. Unknown emails succeed silently so the
// endpoint cannot be used to probe for accounts.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up email")
	}
	if user == nil {
		return nil
	}

	raw, digest, expires, err := security.NewResetToken()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint reset token")
	}
	user.PasswordResetToken = &digest
	user.PasswordResetExpires = &expires
	if err := s.repo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save reset token")
	}

	if s.mail != nil {
		link := fmt.Sprintf("%s/reset-password?token=%s", s.clientBase, raw)
		body := fmt.Sprintf("A password reset was requested for your account.\n\nReset link: %s\n\nThe link expires in %s.", link, security.ResetTokenTTL)
		if err := s.mail.Send(ctx, user.Email, "Reset your password", body); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send reset mail")
		}
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, token, next string) error {
	user, err := s.repo.FindByResetDigest(ctx, security.HashResetToken(token))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up reset token")
	}
	if user == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reset link is invalid or expired")
	}

	hash, err := security.HashPassword(next, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user.PasswordHash = &hash
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	user.MustChangePassword = false
	if err := s.repo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save password")
	}
	return nil
}

func (s *service) session(user *models.User) (*SessionDTO, error) {
	token, err := auth.MintAccessToken(s.jwtCfg, time.Now(), auth.AccessTokenPayload{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           user.Role,
		SiteAuthorized: user.SiteAuthorized,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &SessionDTO{Token: token, User: FromModel(user)}, nil
}
