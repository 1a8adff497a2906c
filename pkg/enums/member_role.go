package enums

import (
	"fmt"
	"strings"
)

// MemberRole is a production-scoped permissions role carried on a member
// record.
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleEditor MemberRole = "editor"
	MemberRoleViewer MemberRole = "viewer"
)

var validMemberRoles = []MemberRole{
	MemberRoleAdmin,
	MemberRoleEditor,
	MemberRoleViewer,
}

// String implements fmt.Stringer.
func (m MemberRole) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MemberRole.
func (m MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMemberRole normalizes raw input into a MemberRole; unknown values
// degrade to editor, matching how legacy member rows were written.
func ParseMemberRole(value string) MemberRole {
	normalized := MemberRole(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized
	}
	return MemberRoleEditor
}

// ParseMemberRoleStrict converts raw input into a MemberRole and rejects
// unknown values.
func ParseMemberRoleStrict(value string) (MemberRole, error) {
	normalized := MemberRole(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid member role %q", value)
}
