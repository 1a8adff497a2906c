// Package authz resolves production membership and ownership for a request.
//
// Membership is recorded redundantly on both sides of the relation: the
// production keeps a member roster and the user keeps a production id list.
// Either side alone is sufficient to grant access; whenever only one side
// holds the link the resolver repairs the other so the records converge.
package authz

import (
	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/enums"
)

// Access is the per-request membership decision attached to the context by
// the tenant middleware.
type Access struct {
	UserID       uuid.UUID
	ProductionID uuid.UUID
	IsMember     bool
	IsOwner      bool
	Role         enums.MemberRole
	GlobalAdmin  bool
}

// HasRole reports whether the access grants at least one of the allowed
// member roles. Global admins and owners pass every check.
func (a Access) HasRole(allowed ...enums.MemberRole) bool {
	if a.GlobalAdmin || a.IsOwner {
		return true
	}
	if !a.IsMember {
		return false
	}
	for _, role := range allowed {
		if a.Role == role {
			return true
		}
	}
	return false
}
