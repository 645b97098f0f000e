package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/lora-lending/lora/internal/auth"
	"github.com/lora-lending/lora/internal/config"
	"github.com/lora-lending/lora/internal/dashboard"
	"github.com/lora-lending/lora/internal/funding"
	"github.com/lora-lending/lora/internal/identity"
	"github.com/lora-lending/lora/internal/ledger"
	"github.com/lora-lending/lora/internal/loans"
	"github.com/lora-lending/lora/internal/logging"
	"github.com/lora-lending/lora/internal/middleware"
	"github.com/lora-lending/lora/internal/notification"
	"github.com/lora-lending/lora/internal/onboarding"
	"github.com/lora-lending/lora/internal/payments"
	"github.com/lora-lending/lora/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. It returns the
// onboarding session registry so the caller can sweep and close it.
func Setup(app *fiber.App, d Deps) (*onboarding.Registry, error) {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	ctx := context.Background()

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Metrics())
	app.Use(middleware.Audit(logging.Component(d.Logger, "http")))

	RegisterHealthRoutes(app, d)

	// Storage
	var (
		ledgerBackend ledger.Ledger
		walletRepo    wallet.Repository
		identityRepo  identity.Repository
		loanRepo      loans.Repository
		inboxStore    notification.Store
	)
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
		walletRepo = wallet.NewPostgresRepository(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
		loanRepo = loans.NewPostgresRepository(d.DB)
		inboxStore = notification.NewPostgresStore(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
		walletRepo = wallet.NewMemoryRepository()
		identityRepo = identity.NewMemoryRepository()
		loanRepo = loans.NewMemoryRepository()
		inboxStore = notification.NewMemoryStore()
	}
	for _, code := range ledger.HouseAccounts() {
		if err := ledgerBackend.EnsureAccount(ctx, code); err != nil {
			return nil, fmt.Errorf("ensure house account %s: %w", code, err)
		}
	}

	// Services
	sms := notification.NewLoggerNotifier(logging.Component(d.Logger, "notification"))
	inbox := notification.NewInbox(inboxStore, sms)
	walletSvc := wallet.NewService(walletRepo, ledgerBackend)
	identitySvc := identity.NewService(identityRepo)
	authSvc := auth.NewService(d.Cfg, identityRepo)
	loanSvc := loans.NewService(loanRepo, ledgerBackend, walletSvc, inbox, logging.Component(d.Logger, "loans"))
	paymentSvc := payments.NewService(ledgerBackend, walletSvc, loanSvc, inbox, logging.Component(d.Logger, "payments"))
	fundingSvc, err := funding.NewService(ctx, ledgerBackend, walletSvc, nil, inbox)
	if err != nil {
		return nil, err
	}
	dashboardSvc := dashboard.NewService(identitySvc, walletSvc, loanSvc, inbox)

	codes, err := codeVerifier(d, sms)
	if err != nil {
		return nil, err
	}
	registrar := newAccountRegistrar(identitySvc, walletSvc, logging.Component(d.Logger, "registration"))
	wizardLogger := logging.Component(d.Logger, "onboarding")
	sessions := onboarding.NewRegistry(d.Cfg.OnboardingSessionTTL, func() *onboarding.Wizard {
		return onboarding.New(onboarding.Options{
			Codes:           codes,
			Registrar:       registrar,
			ResendCountdown: d.Cfg.ResendCountdownSeconds,
			Logger:          wizardLogger,
		})
	}, wizardLogger)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID := middleware.RequestIDFrom(c)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterOnboardingRoutes(api, onboarding.NewHandler(sessions, wizardLogger))
	authHandler := auth.NewHandler(identitySvc, authSvc, walletSvc)
	RegisterAuthRoutes(api, authHandler, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginAttemptsPerMinute))

	// Protected routes
	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, logging.Component(d.Logger, "idempotency"))
	}
	protected := api.Group("", middleware.JWTAuth(authSvc))
	RegisterLogoutRoute(protected, authHandler)
	RegisterIdentityRoutes(protected, identity.NewHandler(identitySvc))
	RegisterDashboardRoutes(protected, dashboard.NewHandler(dashboardSvc))
	RegisterNotificationRoutes(protected, notification.NewHandler(inbox))
	RegisterWalletRoutes(protected, wallet.NewHandler(walletSvc))
	RegisterFundingRoutes(protected, funding.NewHandler(fundingSvc), idempotency)
	RegisterLoanRoutes(protected, loans.NewHandler(loanSvc), idempotency)
	RegisterPaymentRoutes(protected, payments.NewHandler(paymentSvc), idempotency)

	return sessions, nil
}

func codeVerifier(d Deps, notifier notification.Notifier) (onboarding.CodeVerifier, error) {
	switch d.Cfg.OTPMode {
	case config.OTPModeRedis:
		if d.Cache == nil {
			return nil, fmt.Errorf("OTP_MODE=%s requires REDIS_URL", config.OTPModeRedis)
		}
		return onboarding.NewRedisCodes(d.Cache, d.Cfg.OTPTTL, notifier), nil
	default:
		return onboarding.StaticCodes{Code: d.Cfg.OTPStaticCode}, nil
	}
}
