package routes

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/setdecrunner/backend/api/controllers"
	webhookcontrollers "github.com/setdecrunner/backend/api/controllers/webhooks"
	"github.com/setdecrunner/backend/api/middleware"
	"github.com/setdecrunner/backend/internal/authz"
	checkoutsvc "github.com/setdecrunner/backend/internal/checkout"
	"github.com/setdecrunner/backend/internal/directory"
	"github.com/setdecrunner/backend/internal/identity"
	"github.com/setdecrunner/backend/internal/items"
	"github.com/setdecrunner/backend/internal/members"
	"github.com/setdecrunner/backend/internal/productions"
	"github.com/setdecrunner/backend/internal/runsheets"
	"github.com/setdecrunner/backend/pkg/config"
	"github.com/setdecrunner/backend/pkg/enums"
	"github.com/setdecrunner/backend/pkg/logger"
	"github.com/setdecrunner/backend/pkg/metrics"
	"github.com/setdecrunner/backend/pkg/redis"
	"github.com/setdecrunner/backend/pkg/storage"
	pkgstripe "github.com/setdecrunner/backend/pkg/stripe"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *redis.Client
	Metrics  *metrics.HTTPMetrics
	Resolver *authz.Resolver
	Users    middleware.UserLoader
	Uploads  *storage.Local

	Identity    identity.Service
	AdminUsers  identity.AdminService
	Productions productions.Service
	Members     members.Service
	Checkout    checkoutsvc.Service
	Items       items.Service
	RunSheets   runsheets.Service
	Places      *directory.Places
	Suppliers   *directory.Suppliers
	People      *directory.People
	Sets        *directory.Sets

	StripeClient  *pkgstripe.Client
	CheckoutGuard *checkoutsvc.IdempotencyGuard
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Client.Origin),
	)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	// unauthenticated surface
	r.Get("/api/productions/by-slug/{slug}", controllers.ProductionBySlug(d.Productions, logg))

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.Identity, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, d.Redis, logg)).Post("/register", controllers.AuthRegister(d.Identity, logg))
		r.Post("/forgot-password", controllers.AuthForgotPassword(d.Identity, logg))
		r.Post("/reset-password", controllers.AuthResetPassword(d.Identity, logg))
	})

	r.Route("/api/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(d.Checkout, d.StripeClient, d.CheckoutGuard, logg))
	})

	r.Route("/api/checkout", func(r chi.Router) {
		r.Post("/session", controllers.CheckoutCreateSession(d.Checkout, logg))
		r.Get("/sessions/{sessionID}", controllers.CheckoutResolveSession(d.Checkout, logg))
	})

	// authenticated, not production-scoped
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Users, logg))

		r.With(middleware.OptionalProductionContext(d.Resolver, logg)).
			Get("/api/auth/me", controllers.AuthMe(d.Identity, logg))
		r.Post("/api/auth/change-password", controllers.AuthChangePassword(d.Identity, logg))

		r.Route("/api/productions", func(r chi.Router) {
			r.Post("/", controllers.ProductionCreate(d.Productions, logg))
			r.Get("/", controllers.ProductionListMine(d.Productions, logg))
			r.Post("/{id}/claim-owner", controllers.ProductionClaimOwner(d.Resolver, logg))
		})

		r.Route("/api/admin/users", func(r chi.Router) {
			r.Use(middleware.RequireGlobalAdmin(logg))
			r.Get("/", controllers.AdminUserList(d.AdminUsers, logg))
			r.Post("/", controllers.AdminUserCreate(d.AdminUsers, logg))
			r.Get("/{id}", controllers.AdminUserGet(d.AdminUsers, logg))
			r.Patch("/{id}", controllers.AdminUserUpdate(d.AdminUsers, logg))
			r.Delete("/{id}", controllers.AdminUserDelete(d.AdminUsers, logg))
		})
	})

	// production-scoped surface, tenant named by the X-Production-Id header
	r.Group(func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, d.Users, logg),
			middleware.ProductionContext(d.Resolver, logg),
			middleware.RequireMembership(logg),
			middleware.RequireSiteAuthorized(logg),
		)

		writer := middleware.RequireRole(logg, enums.MemberRoleAdmin, enums.MemberRoleEditor)
		admin := middleware.RequireRole(logg, enums.MemberRoleAdmin)

		r.Route("/api/production", func(r chi.Router) {
			r.Get("/", controllers.ProductionGet(logg))
			r.With(admin).Patch("/", controllers.ProductionUpdate(d.Productions, logg))

			r.Route("/members", func(r chi.Router) {
				r.Get("/", controllers.MemberList(d.Members, logg))
				r.With(admin).Post("/", controllers.MemberAdd(d.Members, logg))
				r.With(admin).Delete("/{userID}", controllers.MemberRemove(d.Members, logg))
			})
		})

		r.Route("/api/items", func(r chi.Router) {
			r.Get("/", controllers.ItemList(d.Items, logg))
			r.Get("/{id}", controllers.ItemGet(d.Items, logg))
			r.With(writer).Post("/", controllers.ItemCreate(d.Items, logg))
			r.With(writer).Patch("/{id}", controllers.ItemUpdate(d.Items, logg))
			r.With(writer).Delete("/{id}", controllers.ItemDelete(d.Items, logg))
			r.With(writer).Post("/{id}/photos", controllers.ItemAttachPhoto(d.Items, cfg.Uploads.MaxUploadMB, logg))
			r.With(writer).Delete("/{id}/photos", controllers.ItemRemovePhoto(d.Items, logg))
		})

		r.Route("/api/runsheets", func(r chi.Router) {
			r.Get("/", controllers.RunSheetList(d.RunSheets, logg))
			r.Get("/{id}", controllers.RunSheetGet(d.RunSheets, logg))
			r.With(writer).Post("/", controllers.RunSheetCreate(d.RunSheets, logg))
			r.With(writer).Patch("/{id}", controllers.RunSheetUpdate(d.RunSheets, logg))
			r.With(writer).Delete("/{id}", controllers.RunSheetDelete(d.RunSheets, logg))
			r.With(writer).Patch("/{id}/stops/{stopIndex}", controllers.RunSheetStopDone(d.RunSheets, logg))
		})

		mountDirectory[directory.PlaceDTO, directory.PlaceInput](r, "/api/places", d.Places, writer, logg)
		mountDirectory[directory.SupplierDTO, directory.SupplierInput](r, "/api/suppliers", d.Suppliers, writer, logg)
		mountDirectory[directory.PersonDTO, directory.PersonInput](r, "/api/people", d.People, writer, logg)
		mountDirectory[directory.SetDTO, directory.SetInput](r, "/api/sets", d.Sets, writer, logg)
	})

	if d.Uploads != nil {
		mountUploads(r, d.Uploads)
	}

	return r
}

type directoryService[DTO any, Input any] interface {
	List(ctx context.Context, productionID uuid.UUID, query string, limit int) ([]DTO, error)
	Get(ctx context.Context, productionID, id uuid.UUID) (*DTO, error)
	Create(ctx context.Context, productionID uuid.UUID, input Input) (*DTO, error)
	Update(ctx context.Context, productionID, id uuid.UUID, input Input) (*DTO, error)
	Delete(ctx context.Context, productionID, id uuid.UUID) error
}

func mountDirectory[DTO any, Input any](r chi.Router, pattern string, svc directoryService[DTO, Input], writer func(http.Handler) http.Handler, logg *logger.Logger) {
	r.Route(pattern, func(r chi.Router) {
		r.Get("/", controllers.DirectoryList[DTO, Input](svc, logg))
		r.Get("/{id}", controllers.DirectoryGet[DTO, Input](svc, logg))
		r.With(writer).Post("/", controllers.DirectoryCreate[DTO, Input](svc, logg))
		r.With(writer).Patch("/{id}", controllers.DirectoryUpdate[DTO, Input](svc, logg))
		r.With(writer).Delete("/{id}", controllers.DirectoryDelete[DTO, Input](svc, logg))
	})
}

// mountUploads serves stored item photos from local disk.
func mountUploads(r chi.Router, store *storage.Local) {
	base := strings.TrimSuffix(store.PublicBase(), "/")
	fs := http.StripPrefix(base, http.FileServer(http.Dir(store.Dir())))
	r.Get(base+"/*", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})
}
