package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/db/models"
	"github.com/setdecrunner/backend/pkg/enums"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/security"
)

func (s *stubUserRepo) Search(_ context.Context, query string, limit int) ([]models.User, error) {
	var out []models.User
	q := strings.ToLower(query)
	for _, u := range s.byID {
		if q != "" && !strings.Contains(strings.ToLower(u.Email), q) && !strings.Contains(strings.ToLower(u.Name), q) {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (s *stubUserRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	u, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	delete(s.byID, id)
	delete(s.byEmail, strings.ToLower(u.Email))
	return true, nil
}

func testAdminService(t *testing.T, repo *stubUserRepo) AdminService {
	t.Helper()
	svc, err := NewAdminService(repo, testPasswordCfg())
	if err != nil {
		t.Fatalf("NewAdminService: %v", err)
	}
	return svc
}

func TestAdminCreateUserIsUpsert(t *testing.T) {
	repo := newStubUserRepo()
	svc := testAdminService(t, repo)

	first, err := svc.CreateUser(context.Background(), AdminCreateInput{Email: "Crew@Example.com", Name: "Crew"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if first.Email != "crew@example.com" {
		t.Fatalf("email = %q, want lowercased", first.Email)
	}
	if !first.MustChangePassword {
		t.Fatal("passwordless creation should require a password change")
	}

	again, err := svc.CreateUser(context.Background(), AdminCreateInput{Email: "crew@example.com", Name: "Different"})
	if err != nil {
		t.Fatalf("second CreateUser: %v", err)
	}
	if again.ID != first.ID {
		t.Fatal("re-creating by email must return the existing account")
	}
	if len(repo.created) != 1 {
		t.Fatalf("creates = %d, want 1", len(repo.created))
	}
}

func TestAdminCreateUserRejectsUnknownRole(t *testing.T) {
	svc := testAdminService(t, newStubUserRepo())

	_, err := svc.CreateUser(context.Background(), AdminCreateInput{Email: "x@example.com", Role: "owner"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestAdminUpdateUserPatchesFlags(t *testing.T) {
	repo := newStubUserRepo()
	user := &models.User{ID: uuid.New(), Email: "crew@example.com", Role: enums.GlobalRoleUser}
	repo.add(user)
	svc := testAdminService(t, repo)

	banned := true
	role := "admin"
	password := "a-new-password-123"
	dto, err := svc.UpdateUser(context.Background(), user.ID, AdminUpdateInput{
		Banned:   &banned,
		Role:     &role,
		Password: &password,
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if !dto.Banned || dto.Role != enums.GlobalRoleAdmin {
		t.Fatalf("dto = %+v", dto)
	}

	stored := repo.byID[user.ID]
	if stored.PasswordHash == nil {
		t.Fatal("password hash not set")
	}
	ok, err := security.VerifyPassword(password, *stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("password verify: ok=%v err=%v", ok, err)
	}
}

func TestAdminDeleteUser(t *testing.T) {
	repo := newStubUserRepo()
	actor := &models.User{ID: uuid.New(), Email: "admin@example.com", Role: enums.GlobalRoleAdmin}
	target := &models.User{ID: uuid.New(), Email: "crew@example.com"}
	repo.add(actor)
	repo.add(target)
	svc := testAdminService(t, repo)

	if err := svc.DeleteUser(context.Background(), actor, actor.ID); err == nil {
		t.Fatal("self-deletion must be rejected")
	}

	if err := svc.DeleteUser(context.Background(), actor, target.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	err := svc.DeleteUser(context.Background(), actor, target.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestAdminListUsersFiltersByQuery(t *testing.T) {
	repo := newStubUserRepo()
	repo.add(&models.User{ID: uuid.New(), Email: "dana@acme.test", Name: "Dana"})
	repo.add(&models.User{ID: uuid.New(), Email: "sasha@other.test", Name: "Sasha"})
	svc := testAdminService(t, repo)

	all, err := svc.ListUsers(context.Background(), "", 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListUsers: %v, n=%d", err, len(all))
	}

	filtered, err := svc.ListUsers(context.Background(), "acme", 0)
	if err != nil || len(filtered) != 1 {
		t.Fatalf("filtered: %v, n=%d", err, len(filtered))
	}
	if filtered[0].Email != "dana@acme.test" {
		t.Fatalf("got %q", filtered[0].Email)
	}
}
