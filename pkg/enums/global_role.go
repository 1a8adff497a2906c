package enums

import (
	"fmt"
	"strings"
)

// GlobalRole is the platform-wide role carried on a user record. It is a
// separate axis from the per-production MemberRole: a production owner is not
// a global admin and vice versa.
type GlobalRole string

const (
	GlobalRoleUser  GlobalRole = "user"
	GlobalRoleAdmin GlobalRole = "admin"
)

var validGlobalRoles = []GlobalRole{
	GlobalRoleUser,
	GlobalRoleAdmin,
}

// String implements fmt.Stringer.
func (g GlobalRole) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GlobalRole.
func (g GlobalRole) IsValid() bool {
	for _, candidate := range validGlobalRoles {
		if candidate == g {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the role grants unconditional access across all
// productions.
func (g GlobalRole) IsAdmin() bool {
	return g == GlobalRoleAdmin
}

// ParseGlobalRole converts raw input into a GlobalRole. Unknown or empty
// values degrade to the plain user role so legacy rows keep working.
func ParseGlobalRole(value string) GlobalRole {
	normalized := GlobalRole(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized
	}
	return GlobalRoleUser
}

// ParseGlobalRoleStrict converts raw input into a GlobalRole and rejects
// unknown values.
func ParseGlobalRoleStrict(value string) (GlobalRole, error) {
	normalized := GlobalRole(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid global role %q", value)
}
