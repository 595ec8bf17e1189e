// Package app assembles the portal: storage stack, services, controller
// and HTTP routes.  cmd/server supplies the backend and infrastructure
// clients; tests build it over an in-memory backend.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-services-portal/internal/config"
	"github.com/iliyamo/student-services-portal/internal/controller"
	"github.com/iliyamo/student-services-portal/internal/handler"
	"github.com/iliyamo/student-services-portal/internal/middleware"
	"github.com/iliyamo/student-services-portal/internal/payment"
	"github.com/iliyamo/student-services-portal/internal/repository"
	"github.com/iliyamo/student-services-portal/internal/router"
	"github.com/iliyamo/student-services-portal/internal/seed"
	"github.com/iliyamo/student-services-portal/internal/service"
	"github.com/iliyamo/student-services-portal/internal/storage"
)

// Deps are the externally created pieces.  Redis and Publisher may be nil.
type Deps struct {
	Config    config.Config
	Backend   storage.Backend
	Redis     *redis.Client
	Publisher service.Publisher
	Log       *logrus.Logger
}

// App is a fully wired portal.
type App struct {
	Echo       *echo.Echo
	Engine     *storage.Engine
	Proxy      *storage.Proxy
	Controller *controller.Controller
	Auth       *service.AuthenticationService
	Tokens     *repository.TokenRepo
	log        *logrus.Logger
}

// New connects storage, seeds the catalog on first start, provisions the
// configured admin and registers every route.
func New(ctx context.Context, d Deps) (*App, error) {
	if d.Backend == nil {
		return nil, fmt.Errorf("app: nil backend")
	}
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	cfg := d.Config

	engine := storage.NewEngine(d.Backend)
	proxy := storage.NewProxy(engine, log, storage.WithLogLimit(cfg.AuditLogLimit))
	if err := proxy.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect storage: %w", err)
	}
	if _, err := seed.Seed(ctx, engine, log); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	repo := repository.New(proxy)
	users := repository.NewUserRepo(repo)
	tokens := repository.NewTokenRepo(repo)

	proc, err := payment.New(cfg.PaymentProcessor)
	if err != nil {
		return nil, err
	}
	payments := service.NewPaymentService(repo, proc, "", log)
	notifications := service.NewNotificationService(repo, d.Publisher, log)
	transport := service.NewTransportService(repo, payments, log)
	svc := controller.Services{
		Accommodation: service.NewAccommodationService(repo, payments, log),
		Transport:     transport,
		Meal:          service.NewMealService(repo, payments, log),
		Club:          service.NewClubService(repo, payments, log),
		Booking:       service.NewBookingService(repo, transport, log),
		Notification:  notifications,
	}
	svc.Authorization, err = service.NewAuthorizationService(users, log)
	if err != nil {
		return nil, err
	}
	ctl := controller.New(svc, log)

	auth := service.NewAuthenticationService(users, tokens, notifications, service.AuthConfig{
		Secret:     cfg.SessionSecret,
		TTL:        cfg.SessionTTL,
		BcryptCost: cfg.BcryptCost,
	}, log)
	if created, err := seed.EnsureAdmin(ctx, auth, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("ensure admin: %w", err)
	} else if created {
		log.WithField("email", cfg.AdminEmail).Info("admin account created")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	router.RegisterAll(e, router.Handlers{
		Auth:      handler.NewAuthHandler(auth),
		Catalog:   handler.NewCatalogHandler(svc.Accommodation, svc.Transport, svc.Meal, svc.Club),
		Student:   handler.NewStudentHandler(ctl, svc.Booking, payments, notifications, svc.Authorization),
		Admin:     handler.NewAdminHandler(proxy, svc.Booking, ctl, users),
		Session:   middleware.SessionAuth(auth),
		RateLimit: middleware.RateLimit(cfg.RateLimit, d.Redis, log),
	})

	return &App{
		Echo:       e,
		Engine:     engine,
		Proxy:      proxy,
		Controller: ctl,
		Auth:       auth,
		Tokens:     tokens,
		log:        log,
	}, nil
}

// PurgeTokens drops expired revocation entries every interval until ctx
// ends.
func (a *App) PurgeTokens(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := a.Tokens.PurgeExpired(ctx, now)
			if err != nil {
				a.log.WithError(err).Warn("purge revoked tokens")
				continue
			}
			if n > 0 {
				a.log.WithField("purged", n).Info("expired revoked tokens removed")
			}
		}
	}
}
