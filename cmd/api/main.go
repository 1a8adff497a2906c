package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/setdecrunner/backend/api/routes"
	"github.com/setdecrunner/backend/internal/authz"
	checkoutsvc "github.com/setdecrunner/backend/internal/checkout"
	"github.com/setdecrunner/backend/internal/directory"
	"github.com/setdecrunner/backend/internal/identity"
	"github.com/setdecrunner/backend/internal/items"
	"github.com/setdecrunner/backend/internal/members"
	"github.com/setdecrunner/backend/internal/productions"
	"github.com/setdecrunner/backend/internal/runsheets"
	"github.com/setdecrunner/backend/pkg/config"
	"github.com/setdecrunner/backend/pkg/db"
	"github.com/setdecrunner/backend/pkg/logger"
	"github.com/setdecrunner/backend/pkg/mailer"
	"github.com/setdecrunner/backend/pkg/metrics"
	"github.com/setdecrunner/backend/pkg/migrate"
	"github.com/setdecrunner/backend/pkg/redis"
	"github.com/setdecrunner/backend/pkg/storage"
	pkgstripe "github.com/setdecrunner/backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	uploads, err := storage.NewLocal(cfg.Uploads)
	if err != nil {
		logg.Error(context.Background(), "failed to prepare uploads dir", err)
		os.Exit(1)
	}

	mail := mailer.New(cfg.SMTP, logg)

	httpMetrics := metrics.NewHTTPMetrics(prometheus.NewRegistry())

	usersRepo := identity.NewRepository(dbClient.DB())
	productionsRepo := productions.NewRepository(dbClient.DB())

	resolver := authz.NewResolver(productionsRepo, usersRepo, logg)

	identitySvc, err := identity.NewService(usersRepo, productionsRepo, cfg.JWT, cfg.Password, mail, cfg.Client.Origin)
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	adminUsersSvc, err := identity.NewAdminService(usersRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin user service", err)
		os.Exit(1)
	}

	productionsSvc, err := productions.NewService(productionsRepo, usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create production service", err)
		os.Exit(1)
	}

	membersSvc, err := members.NewService(productionsRepo, usersRepo, mail, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create member service", err)
		os.Exit(1)
	}

	itemsSvc, err := items.NewService(items.NewRepository(dbClient.DB()), uploads, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create item service", err)
		os.Exit(1)
	}

	runsheetsSvc, err := runsheets.NewService(runsheets.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create run sheet service", err)
		os.Exit(1)
	}

	// Checkout stays dark until Stripe is configured; the controllers answer
	// 500 for those routes in that state.
	var (
		stripeClient  *pkgstripe.Client
		checkoutSvc   checkoutsvc.Service
		checkoutGuard *checkoutsvc.IdempotencyGuard
	)
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to initialize stripe", err)
			os.Exit(1)
		}

		checkoutSvc, err = checkoutsvc.NewService(checkoutsvc.ServiceParams{
			Productions: productionsRepo,
			Users:       usersRepo,
			Stripe:      checkoutsvc.NewStripeClient(stripeClient),
			Mail:        mail,
			Logger:      logg,
			JWT:         cfg.JWT,
			Password:    cfg.Password,
			PriceCents:  stripeClient.PriceCents(),
			Currency:    stripeClient.Currency(),
			ClientBase:  cfg.Client.Origin,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create checkout service", err)
			os.Exit(1)
		}

		checkoutGuard, err = checkoutsvc.NewIdempotencyGuard(redisClient, 24*time.Hour, "stripe:checkout")
		if err != nil {
			logg.Error(context.Background(), "failed to create idempotency guard", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe api key not set, checkout routes disabled")
	}

	router := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Metrics:  httpMetrics,
		Resolver: resolver,
		Users:    usersRepo,
		Uploads:  uploads,

		Identity:    identitySvc,
		AdminUsers:  adminUsersSvc,
		Productions: productionsSvc,
		Members:     membersSvc,
		Checkout:    checkoutSvc,
		Items:       itemsSvc,
		RunSheets:   runsheetsSvc,
		Places:      directory.NewPlaces(dbClient.DB()),
		Suppliers:   directory.NewSuppliers(dbClient.DB()),
		People:      directory.NewPeople(dbClient.DB()),
		Sets:        directory.NewSets(dbClient.DB()),

		StripeClient:  stripeClient,
		CheckoutGuard: checkoutGuard,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
