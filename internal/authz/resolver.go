package authz

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/db/models"
	"github.com/setdecrunner/backend/pkg/enums"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/logger"
)

// ProductionRepo is the persistence surface the resolver needs.
type ProductionRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Production, error)
	// ClaimOwner atomically sets the owner when both owner columns are still
	// unset. It reports whether this caller won the claim.
	ClaimOwner(ctx context.Context, productionID, userID uuid.UUID) (bool, error)
	// UpsertMember adds or updates one roster entry inside a row-locked
	// transaction.
	UpsertMember(ctx context.Context, productionID, userID uuid.UUID, role enums.MemberRole) error
}

// UserRepo covers the user side of the membership relation.
type UserRepo interface {
	AddProductionID(ctx context.Context, userID, productionID uuid.UUID) error
}

// Resolver computes Access for a user and production pair.
type Resolver struct {
	productions ProductionRepo
	users       UserRepo
	logg        *logger.Logger
}

func NewResolver(productions ProductionRepo, users UserRepo, logg *logger.Logger) *Resolver {
	return &Resolver{productions: productions, users: users, logg: logg}
}

// Authorize loads the production, decides membership as the union of both
// stored sides, repairs whichever side is missing, and runs the ownership
// claim when the production has no owner yet. The returned production
// reflects any owner claimed during the call.
func (r *Resolver) Authorize(ctx context.Context, user *models.User, productionID uuid.UUID) (Access, *models.Production, error) {
	if user == nil {
		return Access{}, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}

	production, err := r.productions.FindByID(ctx, productionID)
	if err != nil {
		return Access{}, nil, err
	}
	if production == nil {
		return Access{}, nil, pkgerrors.New(pkgerrors.CodeNotFound, "production not found")
	}

	access := Access{
		UserID:       user.ID,
		ProductionID: production.ID,
		GlobalAdmin:  user.IsGlobalAdmin(),
	}

	rosterEntry, onRoster := production.Members.Find(user.ID)
	onUser := user.ProductionIDs.Contains(production.ID)

	access.IsMember = onRoster || onUser
	access.IsOwner = production.OwnedBy(user.ID)

	switch {
	case access.IsOwner:
		access.Role = enums.MemberRoleAdmin
	case onRoster:
		access.Role = rosterEntry.Role
	case onUser:
		// Roster entry lost; restore with the least privileged role.
		access.Role = enums.MemberRoleViewer
	}

	if access.IsMember || access.IsOwner {
		r.repairMembership(ctx, user, production, onRoster, onUser, access.Role)

		if production.Unclaimed() {
			production = r.claimOwnership(ctx, user, production, &access)
		}
	}

	return access, production, nil
}

// repairMembership converges the two membership records. Failures are logged
// and never block the request; the next authorized request retries.
func (r *Resolver) repairMembership(ctx context.Context, user *models.User, production *models.Production, onRoster, onUser bool, role enums.MemberRole) {
	if !onRoster {
		if err := r.productions.UpsertMember(ctx, production.ID, user.ID, role); err != nil {
			r.warn(ctx, "membership roster repair failed", err)
		} else {
			production.Members = production.Members.Upsert(user.ID, role, time.Now().UTC())
		}
	}
	if !onUser {
		if err := r.users.AddProductionID(ctx, user.ID, production.ID); err != nil {
			r.warn(ctx, "membership id list repair failed", err)
		} else {
			user.ProductionIDs = user.ProductionIDs.Add(production.ID)
		}
	}
}

// claimOwnership runs the first-member-wins claim. The conditional update
// only succeeds when both owner columns are still null, so concurrent
// claimants race safely: exactly one wins and the rest degrade to reading
// the winner's result.
func (r *Resolver) claimOwnership(ctx context.Context, user *models.User, production *models.Production, access *Access) *models.Production {
	won, err := r.productions.ClaimOwner(ctx, production.ID, user.ID)
	if err != nil {
		r.warn(ctx, "ownership claim failed", err)
		return production
	}

	if won {
		id := user.ID
		production.OwnerUserID = &id
		access.IsOwner = true
		access.Role = enums.MemberRoleAdmin

		// The owner is also pinned to the roster as admin.
		if err := r.productions.UpsertMember(ctx, production.ID, user.ID, enums.MemberRoleAdmin); err != nil {
			r.warn(ctx, "owner roster pin failed", err)
		} else {
			production.Members = production.Members.Upsert(user.ID, enums.MemberRoleAdmin, time.Now().UTC())
		}
		return production
	}

	// Lost the race. Re-read so the caller sees the winner.
	fresh, err := r.productions.FindByID(ctx, production.ID)
	if err != nil || fresh == nil {
		r.warn(ctx, "owner re-read after lost claim failed", err)
		return production
	}
	access.IsOwner = fresh.OwnedBy(user.ID)
	if access.IsOwner {
		access.Role = enums.MemberRoleAdmin
	}
	return fresh
}

// EnsureOwner is the explicit claim operation. When the production already
// has an owner it verifies the caller is that owner and converges both
// membership records. When unowned, only an existing member may claim, and
// the conditional update decides concurrent claimants: the loser re-reads
// and succeeds only if the winner turned out to be them.
func (r *Resolver) EnsureOwner(ctx context.Context, user *models.User, productionID uuid.UUID) (*models.Production, error) {
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}

	production, err := r.productions.FindByID(ctx, productionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load production")
	}
	if production == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "production not found")
	}

	_, onRoster := production.Members.Find(user.ID)
	onUser := user.ProductionIDs.Contains(production.ID)

	if !production.Unclaimed() {
		if !production.OwnedBy(user.ID) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "production already has an owner")
		}
		r.repairMembership(ctx, user, production, onRoster, onUser, enums.MemberRoleAdmin)
		return production, nil
	}

	if !onRoster && !onUser {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only an existing member can claim ownership")
	}

	won, err := r.productions.ClaimOwner(ctx, production.ID, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim owner")
	}
	if won {
		id := user.ID
		production.OwnerUserID = &id
		r.repairMembership(ctx, user, production, false, onUser, enums.MemberRoleAdmin)
		return production, nil
	}

	fresh, err := r.productions.FindByID(ctx, production.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-read production")
	}
	if fresh == nil || !fresh.OwnedBy(user.ID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "production already has an owner")
	}
	return fresh, nil
}

func (r *Resolver) warn(ctx context.Context, msg string, err error) {
	if r.logg == nil {
		return
	}
	if err != nil {
		ctx = r.logg.WithField(ctx, "error", err.Error())
	}
	r.logg.Warn(ctx, msg)
}
