package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"saas-backoffice/internal/audit"
	"saas-backoffice/internal/authz"
	"saas-backoffice/internal/config"
	"saas-backoffice/internal/event"
	"saas-backoffice/internal/handler"
	"saas-backoffice/internal/logger"
	"saas-backoffice/internal/pipeline"
	"saas-backoffice/internal/repository"
	"saas-backoffice/internal/router"
	"saas-backoffice/internal/service"
	"saas-backoffice/internal/token"
	"saas-backoffice/internal/websocket"
)

type App struct {
	cfg          *config.Config
	server       *http.Server
	pipeline     *pipeline.Pipeline
	healthChecks []handler.HealthCheck
	cleanupFuncs []func()
}

type options struct {
	now        func() time.Time
	bcryptCost int
}

type Option func(*options)

// WithClock replaces the clock used to issue and check tokens.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithBcryptCost sets the hashing cost for seeded accounts.
func WithBcryptCost(cost int) Option {
	return func(o *options) { o.bcryptCost = cost }
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel))

	return NewWithConfig(context.Background(), cfg)
}

func NewWithConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := options{now: time.Now, bcryptCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg}
	fail := func(err error) (*App, error) {
		a.Close()
		return nil, err
	}

	codec, err := token.NewCodec(token.Options{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTTTL,
		Now:    o.now,
	})
	if err != nil {
		return fail(fmt.Errorf("failed to initialize token codec: %w", err))
	}

	resolver, err := authz.NewResolver(authz.DefaultRules())
	if err != nil {
		return fail(fmt.Errorf("failed to load permission rules: %w", err))
	}

	users, auditStore, err := a.openStores(ctx)
	if err != nil {
		return fail(err)
	}

	if cfg.SeedDemoUsers {
		if cfg.DatabaseURL != "" {
			slog.Warn("seeding demo accounts into the configured database", "tenant_id", repository.DemoTenantID)
		}
		if err := repository.SeedDemoUsers(ctx, users, cfg.DemoPassword, o.bcryptCost); err != nil {
			return fail(fmt.Errorf("failed to seed demo users: %w", err))
		}
	}

	captchas, err := a.openCaptchaStore(ctx)
	if err != nil {
		return fail(err)
	}

	bus := event.NewBusWithBuffer(cfg.AuditBuffer)
	stopRecorder := audit.NewRecorder(bus, auditStore).Start(ctx)
	a.cleanupFuncs = append(a.cleanupFuncs, stopRecorder)

	authService := service.NewAuthService(users, captchas, codec, bus, service.AuthOptions{
		CaptchaRequired: cfg.CaptchaRequired,
		CaptchaTTL:      cfg.CaptchaTTL,
	})
	auditService := service.NewAuditService(auditStore)

	hubCtx, stopHub := context.WithCancel(context.WithoutCancel(ctx))
	hub := websocket.NewHub(bus)
	go hub.Run(hubCtx)
	a.cleanupFuncs = append(a.cleanupFuncs, stopHub)

	p, err := router.New(router.Deps{
		Config:   cfg,
		Codec:    codec,
		Resolver: resolver,
		Events:   bus,
		Auth:     handler.NewAuthHandler(authService),
		Admin:    handler.NewAdminHandler(authService, auditService, resolver),
		Health:   handler.NewHealthHandler(a.healthChecks...),
		LiveFeed: hub,
	})
	if err != nil {
		return fail(fmt.Errorf("failed to build request pipeline: %w", err))
	}
	slog.Info("request pipeline ready", "units", p.Units())

	a.pipeline = p
	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           p,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return a, nil
}

func (a *App) Handler() http.Handler {
	return a.pipeline
}

// Close stops background work and releases connections, newest first.
func (a *App) Close() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		a.Close()
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		slog.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	// Drain in-flight requests before the audit recorder and stores go away.
	shutdownErr := a.server.Shutdown(ctx)
	a.Close()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
