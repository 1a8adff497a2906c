// Package members manages production rosters. Membership is recorded on both
// sides, the production's member list and the user's production id list, and
// every mutation here writes both so reads never depend on which side a
// legacy row happened to keep.
package members

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/config"
	"github.com/setdecrunner/backend/pkg/db/models"
	"github.com/setdecrunner/backend/pkg/enums"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/logger"
	"github.com/setdecrunner/backend/pkg/mailer"
	"github.com/setdecrunner/backend/pkg/security"
)

type productionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Production, error)
	UpsertMember(ctx context.Context, productionID, userID uuid.UUID, role enums.MemberRole) error
	RemoveMember(ctx context.Context, productionID, userID uuid.UUID) (bool, error)
	ClaimOwner(ctx context.Context, productionID, userID uuid.UUID) (bool, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	ListByProductionID(ctx context.Context, productionID uuid.UUID) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	AddProductionID(ctx context.Context, userID, productionID uuid.UUID) error
	RemoveProductionID(ctx context.Context, userID, productionID uuid.UUID) (bool, error)
}

// Service manages a production's roster.
type Service interface {
	List(ctx context.Context, production *models.Production) ([]MemberDTO, error)
	Add(ctx context.Context, production *models.Production, email string, role enums.MemberRole) (*MemberDTO, error)
	Remove(ctx context.Context, production *models.Production, userID uuid.UUID) (bool, error)
}

type service struct {
	productions productionRepository
	users       userRepository
	mail        mailer.Sender
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewService builds the member service.
func NewService(productions productionRepository, users userRepository, mail mailer.Sender, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if productions == nil {
		return nil, fmt.Errorf("production repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		productions: productions,
		users:       users,
		mail:        mail,
		passwordCfg: passwordCfg,
		logg:        logg,
	}, nil
}

// List unions the roster with users whose own id list names the production.
// The owner sorts first; a user appearing on both sides shows up once, with
// the roster's role winning.
func (s *service) List(ctx context.Context, production *models.Production) ([]MemberDTO, error) {
	if production == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "production not found")
	}

	roster := production.Members.Normalize()
	rosterIDs := make([]uuid.UUID, 0, len(roster))
	roleByID := make(map[uuid.UUID]enums.MemberRole, len(roster))
	addedByID := make(map[uuid.UUID]time.Time, len(roster))
	for _, m := range roster {
		rosterIDs = append(rosterIDs, m.User)
		roleByID[m.User] = m.Role
		addedByID[m.User] = m.AddedAt
	}

	rosterUsers, err := s.users.FindByIDs(ctx, rosterIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load roster users")
	}
	userSide, err := s.users.ListByProductionID(ctx, production.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user-side members")
	}

	seen := make(map[uuid.UUID]struct{}, len(rosterUsers)+len(userSide))
	out := make([]MemberDTO, 0, len(rosterUsers)+len(userSide))
	appendUser := func(u *models.User) {
		if _, ok := seen[u.ID]; ok {
			return
		}
		seen[u.ID] = struct{}{}
		role, ok := roleByID[u.ID]
		if !ok {
			// Known only on the user side; the roster entry carrying the real
			// role is lost, so grant no more than read access.
			role = enums.MemberRoleViewer
		}
		out = append(out, MemberDTO{
			UserID:  u.ID,
			Email:   u.Email,
			Name:    u.Name,
			Role:    role,
			IsOwner: production.OwnedBy(u.ID),
			AddedAt: addedByID[u.ID],
		})
	}
	for i := range rosterUsers {
		appendUser(&rosterUsers[i])
	}
	for i := range userSide {
		appendUser(&userSide[i])
	}

	// Owner first, then case-insensitive name, falling back to email.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsOwner != out[j].IsOwner {
			return out[i].IsOwner
		}
		return memberSortKey(out[i]) < memberSortKey(out[j])
	})
	return out, nil
}

func memberSortKey(m MemberDTO) string {
	if m.Name != "" {
		return strings.ToLower(m.Name)
	}
	return strings.ToLower(m.Email)
}

// Add invites a user by email. Unknown addresses get a provisional account
// with a temporary password they must change on first login. The first member
// added to an unclaimed production becomes its owner.
func (s *service) Add(ctx context.Context, production *models.Production, email string, role enums.MemberRole) (*MemberDTO, error) {
	if production == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "production not found")
	}
	if !role.IsValid() {
		role = enums.MemberRoleEditor
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up user")
	}
	invited := false
	var tempPassword string
	if user == nil {
		tempPassword, err = security.GenerateTempPassword(16)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
		}
		hash, err := security.HashPassword(tempPassword, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		user = &models.User{
			Email:              email,
			PasswordHash:       &hash,
			Role:               enums.GlobalRoleUser,
			SiteAuthorized:     true,
			MustChangePassword: true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invited user")
		}
		invited = true
	}

	if _, ok := production.Members.Find(user.ID); !ok {
		if err := s.productions.UpsertMember(ctx, production.ID, user.ID, role); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add to roster")
		}
		production.Members = production.Members.Add(user.ID, role, time.Now().UTC())
	}
	if err := s.users.AddProductionID(ctx, user.ID, production.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record user membership")
	}

	if production.Unclaimed() {
		won, err := s.productions.ClaimOwner(ctx, production.ID, user.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim owner")
		}
		if won {
			ownerID := user.ID
			production.OwnerUserID = &ownerID
			if err := s.productions.UpsertMember(ctx, production.ID, user.ID, enums.MemberRoleAdmin); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "pin owner roster role failed")
			} else {
				role = enums.MemberRoleAdmin
			}
		}
	}

	if invited && s.mail != nil {
		body := fmt.Sprintf(
			"You have been added to %s.\n\nSign in with this temporary password, then change it: %s\n",
			production.Title, tempPassword,
		)
		if err := s.mail.Send(ctx, user.Email, "You've been invited", body); err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"error": err.Error(), "email": user.Email}), "invite mail failed")
		}
	}

	member, ok := production.Members.Find(user.ID)
	addedAt := time.Now().UTC()
	if ok {
		role = member.Role
		addedAt = member.AddedAt
	}
	return &MemberDTO{
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Role:    role,
		IsOwner: production.OwnedBy(user.ID),
		AddedAt: addedAt,
	}, nil
}

// Remove drops a member from both sides and reports whether either side
// actually held the user. The owner cannot be removed.
func (s *service) Remove(ctx context.Context, production *models.Production, userID uuid.UUID) (bool, error) {
	if production == nil {
		return false, pkgerrors.New(pkgerrors.CodeNotFound, "production not found")
	}
	if production.OwnedBy(userID) {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "the owner cannot be removed from their production")
	}

	removed, err := s.productions.RemoveMember(ctx, production.ID, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove from roster")
	}
	if removed {
		production.Members, _ = production.Members.Remove(userID)
	}
	droppedID, err := s.users.RemoveProductionID(ctx, userID, production.ID)
	if err != nil {
		return removed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove user membership")
	}
	return removed || droppedID, nil
}
