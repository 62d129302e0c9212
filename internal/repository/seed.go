package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"saas-backoffice/internal/model"
)

const DemoTenantID = "1"

type userCreator interface {
	Create(ctx context.Context, u model.User) error
}

// SeedDemoUsers creates one account per role in the demo tenant, each named
// after its role and sharing one password. Existing usernames are kept.
func SeedDemoUsers(ctx context.Context, store userCreator, password string, cost int) error {
	if password == "" {
		return fmt.Errorf("seed demo users: %w: empty password", model.ErrInvalidInput)
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	now := time.Now().UTC()
	for _, role := range model.Roles() {
		user := model.User{
			ID:           uuid.NewString(),
			Username:     role.String(),
			PasswordHash: string(hash),
			TenantID:     DemoTenantID,
			Role:         role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := store.Create(ctx, user); err != nil {
			return fmt.Errorf("seed user %s: %w", user.Username, err)
		}
	}

	slog.Info("demo users ensured", "tenant_id", DemoTenantID, "count", len(model.Roles()))
	return nil
}
