package enums

import "testing"

func TestParseGlobalRoleDegradesToUser(t *testing.T) {
	if got := ParseGlobalRole("superuser"); got != GlobalRoleUser {
		t.Fatalf("expected user fallback, got %s", got)
	}
	if got := ParseGlobalRole(" ADMIN "); got != GlobalRoleAdmin {
		t.Fatalf("expected admin, got %s", got)
	}
}

func TestParseGlobalRoleStrictRejectsUnknown(t *testing.T) {
	if _, err := ParseGlobalRoleStrict("owner"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestParseMemberRoleDegradesToEditor(t *testing.T) {
	if got := ParseMemberRole("manager"); got != MemberRoleEditor {
		t.Fatalf("expected editor fallback, got %s", got)
	}
	if got := ParseMemberRole("Viewer"); got != MemberRoleViewer {
		t.Fatalf("expected viewer, got %s", got)
	}
}

func TestMemberRoleValidity(t *testing.T) {
	for _, role := range []MemberRole{MemberRoleAdmin, MemberRoleEditor, MemberRoleViewer} {
		if !role.IsValid() {
			t.Fatalf("expected %s to be valid", role)
		}
	}
	if MemberRole("owner").IsValid() {
		t.Fatal("owner is not a member role in this model")
	}
}
