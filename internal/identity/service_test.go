package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/config"
	"github.com/setdecrunner/backend/pkg/db/models"
	"github.com/setdecrunner/backend/pkg/enums"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/mailer"
	"github.com/setdecrunner/backend/pkg/security"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
	created []*models.User
	updated []*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail: map[string]*models.User{},
		byID:    map[uuid.UUID]*models.User{},
	}
}

func (s *stubUserRepo) add(u *models.User) {
	s.byEmail[strings.ToLower(u.Email)] = u
	s.byID[u.ID] = u
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.byID[id], nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.byEmail[strings.ToLower(strings.TrimSpace(email))], nil
}

func (s *stubUserRepo) FindByResetDigest(ctx context.Context, digest string) (*models.User, error) {
	for _, u := range s.byID {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == digest {
			return u, nil
		}
	}
	return nil, nil
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	s.add(user)
	s.created = append(s.created, user)
	return nil
}

func (s *stubUserRepo) Update(ctx context.Context, user *models.User) error {
	s.updated = append(s.updated, user)
	s.add(user)
	return nil
}

type recordingMailer struct {
	to      []string
	subject []string
	body    []string
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.to = append(m.to, to)
	m.subject = append(m.subject, subject)
	m.body = append(m.body, body)
	return nil
}

func testPasswordCfg() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

type stubProductionFinder struct {
	bySlug map[string]*models.Production
}

func (s *stubProductionFinder) FindBySlug(_ context.Context, slug string) (*models.Production, error) {
	if s == nil || s.bySlug == nil {
		return nil, nil
	}
	return s.bySlug[slug], nil
}

func newTestService(t *testing.T, repo *stubUserRepo, mail *recordingMailer) Service {
	return newTestServiceWithProductions(t, repo, mail, &stubProductionFinder{})
}

func newTestServiceWithProductions(t *testing.T, repo *stubUserRepo, mail *recordingMailer, productions *stubProductionFinder) Service {
	t.Helper()
	var sender mailer.Sender
	if mail != nil {
		sender = mail
	}
	jwtCfg := config.JWTConfig{Secret: "secret", Issuer: "setdec-runner", ExpirationMinutes: 60}
	svc, err := NewService(repo, productions, jwtCfg, testPasswordCfg(), sender, "http://localhost:5173")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{Email: "Crew@Acme.test", Name: "Crew", Password: "opensesame1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected a session token")
	}
	if session.User.Role != enums.GlobalRoleUser {
		t.Fatalf("new accounts default to user role, got %s", session.User.Role)
	}
	if session.User.SiteAuthorized {
		t.Fatal("new accounts start unauthorized")
	}

	login, err := svc.Login(ctx, LoginInput{Email: "crew@acme.test", Password: "opensesame1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != session.User.ID {
		t.Fatal("login should resolve the registered account")
	}

	if _, err := svc.Login(ctx, LoginInput{Email: "crew@acme.test", Password: "wrong"}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED for bad password, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "crew@acme.test", Name: "Crew", Password: "opensesame1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Email: "crew@acme.test", Name: "Crew Again", Password: "opensesame1"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestLoginBannedAccount(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "banned@acme.test", Name: "B", Password: "opensesame1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	repo.byEmail["banned@acme.test"].Banned = true

	_, err := svc.Login(ctx, LoginInput{Email: "banned@acme.test", Password: "opensesame1"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	repo := newStubUserRepo()
	mail := &recordingMailer{}
	svc := newTestService(t, repo, mail)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "crew@acme.test", Name: "Crew", Password: "oldpassword1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.ForgotPassword(ctx, "crew@acme.test"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if len(mail.to) != 1 || mail.to[0] != "crew@acme.test" {
		t.Fatal("reset mail must go to the account email")
	}

	// Pull the raw token back out of the mailed link.
	body := mail.body[0]
	idx := strings.Index(body, "token=")
	if idx < 0 {
		t.Fatalf("reset link missing from body: %q", body)
	}
	raw := strings.Fields(body[idx+len("token="):])[0]

	if err := svc.ResetPassword(ctx, raw, "newpassword1"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "crew@acme.test", Password: "newpassword1"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "crew@acme.test", Password: "oldpassword1"}); err == nil {
		t.Fatal("old password must stop working")
	}

	if err := svc.ResetPassword(ctx, raw, "anotherpassword1"); err == nil {
		t.Fatal("a consumed reset token must be rejected")
	}

	// Unknown emails never leak.
	if err := svc.ForgotPassword(ctx, "ghost@acme.test"); err != nil {
		t.Fatalf("ForgotPassword for unknown email must succeed silently: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{Email: "crew@acme.test", Name: "Crew", Password: "oldpassword1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	user := repo.byID[session.User.ID]
	user.MustChangePassword = true

	if err := svc.ChangePassword(ctx, user, "wrong", "newpassword1"); err == nil {
		t.Fatal("wrong current password must be rejected")
	}
	if err := svc.ChangePassword(ctx, user, "oldpassword1", "newpassword1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if user.MustChangePassword {
		t.Fatal("forced-change flag must clear after a successful change")
	}
	ok, err := security.VerifyPassword("newpassword1", *user.PasswordHash)
	if err != nil || !ok {
		t.Fatal("new password must verify")
	}
}

func TestLoginWithProductionSlug(t *testing.T) {
	repo := newStubUserRepo()
	svc0 := newTestService(t, repo, nil)
	if _, err := svc0.Register(context.Background(), RegisterInput{Email: "crew@example.com", Password: "a-strong-password"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	user := repo.byEmail["crew@example.com"]

	production := &models.Production{ID: uuid.New(), Title: "Acme Films", Slug: "acme-films", IsActive: true}
	user.ProductionIDs = user.ProductionIDs.Add(production.ID)
	finder := &stubProductionFinder{bySlug: map[string]*models.Production{"acme-films": production}}
	svc := newTestServiceWithProductions(t, repo, nil, finder)

	if _, err := svc.Login(context.Background(), LoginInput{Email: "crew@example.com", Password: "a-strong-password", Slug: "Acme Films"}); err != nil {
		t.Fatalf("login with member slug: %v", err)
	}

	_, err := svc.Login(context.Background(), LoginInput{Email: "crew@example.com", Password: "a-strong-password", Slug: "other-show"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unknown slug: err = %v, want not found", err)
	}

	stranger := &models.Production{ID: uuid.New(), Title: "Other Show", Slug: "other-show", IsActive: true}
	finder.bySlug["other-show"] = stranger
	_, err = svc.Login(context.Background(), LoginInput{Email: "crew@example.com", Password: "a-strong-password", Slug: "other-show"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("non-member slug: err = %v, want forbidden", err)
	}

	production.IsActive = false
	_, err = svc.Login(context.Background(), LoginInput{Email: "crew@example.com", Password: "a-strong-password", Slug: "acme-films"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("inactive production: err = %v, want not found", err)
	}
}
