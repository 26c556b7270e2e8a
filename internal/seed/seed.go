// Package seed populates an empty store with the accounts and roles the
// admin console needs on first boot.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mallkit/shop-admin-api/internal/auth"
	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/obs"
	"github.com/mallkit/shop-admin-api/internal/store"
	"github.com/mallkit/shop-admin-api/internal/user"
)

// Default admin credentials. Meant for local development; production
// deployments change the password after first login.
const (
	AdminUsername = "admin"
	AdminPassword = "admin123"
)

// Run creates the system admin role, the admin account and a couple of
// starter roles if they are missing. It is idempotent.
func Run(ctx context.Context, st store.Store) error {
	return st.Tx(ctx, func(s store.Stores) error {
		if err := ensureAdmin(ctx, s); err != nil {
			return err
		}
		return ensureRoles(ctx, s)
	})
}

func ensureAdmin(ctx context.Context, s store.Stores) error {
	_, err := s.FindUserByUsername(ctx, AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	hash, err := auth.HashPassword(AdminPassword)
	if err != nil {
		return err
	}
	u := model.User{
		ID:           uuid.NewString(),
		Username:     AdminUsername,
		PasswordHash: hash,
		Nickname:     "Administrator",
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.CreateUser(ctx, u); err != nil {
		return err
	}
	obs.Logger.Info("seeded_admin_account", "username", AdminUsername)
	return nil
}

func ensureRoles(ctx context.Context, s store.Stores) error {
	existing, _, err := s.ListRoles(ctx, "", 1, 1)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	roles := []model.RoleDef{
		{
			ID:          uuid.NewString(),
			Name:        "super-admin",
			Description: "Full access to every console module",
			Permissions: user.Permissions,
			IsSystem:    true,
			CreatedAt:   time.Now().UTC(),
		},
		{
			ID:          uuid.NewString(),
			Name:        "editor",
			Description: "Manages the product catalog",
			Permissions: []string{"product:view", "product:create", "product:edit", "product:delete"},
			CreatedAt:   time.Now().UTC(),
		},
		{
			ID:          uuid.NewString(),
			Name:        "viewer",
			Description: "Read-only console access",
			Permissions: []string{"product:view", "order:view", "user:view", "role:view"},
			CreatedAt:   time.Now().UTC(),
		},
	}
	for _, r := range roles {
		if err := s.CreateRole(ctx, r); err != nil {
			return err
		}
	}
	obs.Logger.Info("seeded_roles", "count", len(roles))
	return nil
}
