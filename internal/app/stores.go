package app

import (
	"context"
	"fmt"
	"time"

	"saas-backoffice/internal/database"
	"saas-backoffice/internal/handler"
	"saas-backoffice/internal/model"
	"saas-backoffice/internal/repository"
)

type userStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	List(ctx context.Context) ([]model.AuthUser, error)
	Create(ctx context.Context, u model.User) error
}

type auditStore interface {
	Append(ctx context.Context, entry model.AuditEntry) error
	Recent(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, error)
}

type captchaStore interface {
	Save(ctx context.Context, sessionID string, answer string, ttl time.Duration) error
	Take(ctx context.Context, sessionID string) (string, error)
}

// openStores uses PostgreSQL when DATABASE_URL is set and process memory
// otherwise.
func (a *App) openStores(ctx context.Context) (userStore, auditStore, error) {
	if a.cfg.DatabaseURL == "" {
		return repository.NewMemoryUserStore(), repository.NewMemoryAuditStore(a.cfg.AuditCapacity), nil
	}

	db, err := database.New(ctx, a.cfg.DatabaseURL, database.PoolOptions{
		MaxConns: a.cfg.DBMaxConns,
		MinConns: a.cfg.DBMinConns,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.cleanupFuncs = append(a.cleanupFuncs, db.Close)
	a.healthChecks = append(a.healthChecks, handler.HealthCheck{Name: "postgres", Check: db.Health})

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	return repository.NewUserRepository(db.Pool), repository.NewAuditRepository(db.Pool), nil
}

// openCaptchaStore uses Redis when REDIS_ADDR is set so captchas survive
// across instances.
func (a *App) openCaptchaStore(ctx context.Context) (captchaStore, error) {
	if a.cfg.RedisAddr == "" {
		return repository.NewMemoryCaptchaStore(), nil
	}

	client, err := database.OpenRedis(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.cleanupFuncs = append(a.cleanupFuncs, func() { _ = client.Close() })
	a.healthChecks = append(a.healthChecks, handler.HealthCheck{Name: "redis", Check: database.RedisHealth(client)})

	return repository.NewRedisCaptchaStore(client), nil
}
