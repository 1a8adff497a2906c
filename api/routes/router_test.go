package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/setdecrunner/backend/pkg/auth"
	"github.com/setdecrunner/backend/pkg/config"
	"github.com/setdecrunner/backend/pkg/db/models"
	dbtypes "github.com/setdecrunner/backend/pkg/db/types"
	"github.com/setdecrunner/backend/pkg/enums"
	"github.com/setdecrunner/backend/pkg/logger"

	"github.com/setdecrunner/backend/internal/authz"
	"github.com/setdecrunner/backend/internal/identity"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubUserLoader struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUserLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users[id], nil
}

type stubProductionRepo struct {
	production *models.Production
}

func (s *stubProductionRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Production, error) {
	if s.production != nil && s.production.ID == id {
		return s.production, nil
	}
	return nil, nil
}

func (s *stubProductionRepo) ClaimOwner(ctx context.Context, productionID, userID uuid.UUID) (bool, error) {
	return false, nil
}

func (s *stubProductionRepo) UpsertMember(ctx context.Context, productionID, userID uuid.UUID, role enums.MemberRole) error {
	return nil
}

type stubUserRepo struct{}

func (stubUserRepo) AddProductionID(ctx context.Context, userID, productionID uuid.UUID) error {
	return nil
}

type stubIdentityService struct{}

func (stubIdentityService) Register(ctx context.Context, input identity.RegisterInput) (*identity.SessionDTO, error) {
	return &identity.SessionDTO{}, nil
}

func (stubIdentityService) Login(ctx context.Context, input identity.LoginInput) (*identity.SessionDTO, error) {
	return &identity.SessionDTO{}, nil
}

func (stubIdentityService) Me(ctx context.Context, user *models.User) *identity.UserDTO {
	return identity.FromModel(user)
}

func (stubIdentityService) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	return nil
}

func (stubIdentityService) ForgotPassword(ctx context.Context, email string) error {
	return nil
}

func (stubIdentityService) ResetPassword(ctx context.Context, token, next string) error {
	return nil
}

type stubAdminService struct{}

func (stubAdminService) ListUsers(ctx context.Context, query string, limit int) ([]identity.UserDTO, error) {
	return []identity.UserDTO{}, nil
}

func (stubAdminService) GetUser(ctx context.Context, id uuid.UUID) (*identity.UserDTO, error) {
	return &identity.UserDTO{ID: id}, nil
}

func (stubAdminService) CreateUser(ctx context.Context, input identity.AdminCreateInput) (*identity.UserDTO, error) {
	return &identity.UserDTO{}, nil
}

func (stubAdminService) UpdateUser(ctx context.Context, id uuid.UUID, input identity.AdminUpdateInput) (*identity.UserDTO, error) {
	return &identity.UserDTO{ID: id}, nil
}

func (stubAdminService) DeleteUser(ctx context.Context, actor *models.User, id uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
		Client:  config.ClientConfig{Origin: "http://localhost:5173"},
		Uploads: config.UploadsConfig{MaxUploadMB: 25},
	}
}

type routerFixture struct {
	cfg        *config.Config
	router     http.Handler
	production *models.Production
	editor     *models.User
	viewer     *models.User
	outsider   *models.User
	admin      *models.User
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})

	productionID := uuid.New()
	ownerID := uuid.New()

	editor := &models.User{
		ID:             uuid.New(),
		Email:          "editor@example.com",
		Role:           enums.GlobalRoleUser,
		SiteAuthorized: true,
		ProductionIDs:  dbtypes.UUIDArray{productionID},
	}
	viewer := &models.User{
		ID:             uuid.New(),
		Email:          "viewer@example.com",
		Role:           enums.GlobalRoleUser,
		SiteAuthorized: true,
		ProductionIDs:  dbtypes.UUIDArray{productionID},
	}
	outsider := &models.User{
		ID:             uuid.New(),
		Email:          "outsider@example.com",
		Role:           enums.GlobalRoleUser,
		SiteAuthorized: true,
	}
	admin := &models.User{
		ID:             uuid.New(),
		Email:          "admin@example.com",
		Role:           enums.GlobalRoleAdmin,
		SiteAuthorized: true,
	}

	production := &models.Production{
		ID:          productionID,
		Title:       "Acme Films",
		Slug:        "acme-films",
		OwnerUserID: &ownerID,
		IsActive:    true,
		Members: dbtypes.MemberList{
			{User: editor.ID, Role: enums.MemberRoleEditor},
			{User: viewer.ID, Role: enums.MemberRoleViewer},
		},
	}

	loader := &stubUserLoader{users: map[uuid.UUID]*models.User{
		editor.ID:   editor,
		viewer.ID:   viewer,
		outsider.ID: outsider,
		admin.ID:    admin,
	}}
	resolver := authz.NewResolver(&stubProductionRepo{production: production}, stubUserRepo{}, logg)

	router := NewRouter(Deps{
		Config:     cfg,
		Logger:     logg,
		DB:         stubPinger{},
		Resolver:   resolver,
		Users:      loader,
		Identity:   stubIdentityService{},
		AdminUsers: stubAdminService{},
	})

	return &routerFixture{
		cfg:        cfg,
		router:     router,
		production: production,
		editor:     editor,
		viewer:     viewer,
		outsider:   outsider,
		admin:      admin,
	}
}

func (f *routerFixture) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(f.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           user.Role,
		SiteAuthorized: user.SiteAuthorized,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func (f *routerFixture) do(t *testing.T, method, target string, user *models.User, scoped bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+f.token(t, user))
	}
	if scoped {
		req.Header.Set("X-Production-Id", f.production.ID.String())
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthLiveIsPublic(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, http.MethodGet, "/health/live", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestAuthenticatedGroupRejectsMissingToken(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, http.MethodGet, "/api/auth/me", nil, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", rec.Code)
	}
}

func TestAuthenticatedGroupAcceptsToken(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, http.MethodGet, "/api/auth/me", f.editor, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestAuthMeAnnotatesProductionFromHeader(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/auth/me", f.viewer, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Production *struct {
				IsMember bool   `json:"is_member"`
				IsOwner  bool   `json:"is_owner"`
				Role     string `json:"role"`
			} `json:"production"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Production == nil {
		t.Fatalf("expected production annotation: %s", rec.Body.String())
	}
	if !envelope.Data.Production.IsMember || envelope.Data.Production.IsOwner {
		t.Fatalf("unexpected annotation: %+v", envelope.Data.Production)
	}
	if envelope.Data.Production.Role != string(enums.MemberRoleViewer) {
		t.Fatalf("role = %q, want viewer", envelope.Data.Production.Role)
	}

	// Without the header the profile comes back bare.
	rec = f.do(t, http.MethodGet, "/api/auth/me", f.viewer, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	envelope.Data.Production = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Production != nil {
		t.Fatalf("annotation must be absent without the header: %s", rec.Body.String())
	}
}

func TestAdminGroupRequiresGlobalAdmin(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admin/users/", f.editor, false)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/admin/users/", f.admin, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestScopedGroupRequiresProductionHeader(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, http.MethodGet, "/api/production/", f.editor, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without production header got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestScopedGroupRejectsNonMembers(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, http.MethodGet, "/api/production/", f.outsider, true)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-member got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestScopedGroupAdmitsMembers(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, http.MethodGet, "/api/production/", f.viewer, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for member got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestWriteRoutesRequireEditorRole(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodDelete, "/api/items/"+uuid.NewString(), f.viewer, true)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer write got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestMemberManagementRequiresAdminRole(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodDelete, "/api/production/members/"+uuid.NewString(), f.editor, true)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for editor on member removal got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestGlobalAdminBypassesMembership(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, http.MethodGet, "/api/production/", f.admin, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for global admin got %d (%s)", rec.Code, rec.Body.String())
	}
}
