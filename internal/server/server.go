package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/lora-lending/lora/internal/config"
	"github.com/lora-lending/lora/internal/onboarding"
	"github.com/lora-lending/lora/internal/routes"
)

const sweepInterval = 30 * time.Second

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app      *fiber.App
	cfg      config.Config
	sessions *onboarding.Registry
	logger   *slog.Logger
	stop     context.CancelFunc
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: errorHandler,
	})

	sessions, err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger})
	if err != nil {
		return nil, err
	}

	ctx, stop := context.WithCancel(context.Background())
	go sessions.Run(ctx, sweepInterval)

	return &Server{app: app, cfg: cfg, sessions: sessions, logger: logger, stop: stop}, nil
}

// App exposes the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	s.logger.Info("listening", "addr", s.cfg.Address(), "env", s.cfg.Env)
	return s.app.Listen(s.cfg.Address())
}

// Shutdown stops the session sweeper, drops in-flight onboarding sessions and
// gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	s.sessions.Close()
	return s.app.ShutdownWithContext(ctx)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
