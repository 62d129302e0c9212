package router

import (
	"saas-backoffice/internal/authz"
	"saas-backoffice/internal/config"
	"saas-backoffice/internal/dispatch"
	"saas-backoffice/internal/event"
	"saas-backoffice/internal/handler"
	"saas-backoffice/internal/middleware"
	"saas-backoffice/internal/pipeline"
	"saas-backoffice/internal/token"
	"saas-backoffice/internal/websocket"
)

type Deps struct {
	Config   *config.Config
	Codec    *token.Codec
	Resolver *authz.Resolver
	Events   event.Publisher
	Auth     *handler.AuthHandler
	Admin    *handler.AdminHandler
	Health   *handler.HealthHandler
	LiveFeed *websocket.Hub
}

// New builds the request pipeline. Unit order is fixed here: the error
// translator is outermost and authentication runs last, after CORS has
// answered preflights.
func New(deps Deps) (*pipeline.Pipeline, error) {
	cfg := deps.Config

	return pipeline.New(Routes(deps),
		middleware.NewErrorTranslator(),
		middleware.NewAccessLogger(deps.Events),
		middleware.NewCORS(cfg.CORSOrigins),
		middleware.NewRateLimiter(cfg.RateLimitRPM, cfg.AuthRateLimitRPM, "/api/auth/"),
		middleware.NewTimeout(cfg.RequestTimeout),
		middleware.NewAuthenticator(deps.Codec, deps.Resolver, cfg.PublicPaths),
	)
}

// Routes is the terminal dispatcher. Access control is already decided by
// the time a route runs.
func Routes(deps Deps) *dispatch.Router {
	r := dispatch.NewRouter()

	health := deps.Health
	if health == nil {
		health = handler.NewHealthHandler()
	}
	r.Get("/health", health.Get)

	r.Route("/api/auth", func(auth *dispatch.Router) {
		auth.Post("/login", deps.Auth.Login)
		auth.Get("/captcha", deps.Auth.Captcha)
		auth.Post("/refresh-token", deps.Auth.Refresh)
		auth.Post("/logout", deps.Auth.Logout)
		auth.Get("/me", deps.Auth.Me)
	})

	r.Route("/api/admin", func(admin *dispatch.Router) {
		admin.Get("/users", deps.Admin.Users)
		admin.Get("/roles", deps.Admin.Roles)
		admin.Get("/logs", deps.Admin.Logs)
		if deps.LiveFeed != nil {
			admin.Get("/logs/stream", deps.LiveFeed.ServeWS)
		}
	})

	for _, area := range []string{"cashier", "finance", "marketing"} {
		r.Get("/api/"+area+"/workspace", handler.NewWorkspaceHandler(area).Get)
	}

	return r
}
