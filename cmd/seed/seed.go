package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopapi/internal/user"
)

const (
	outcomeCreated   = "created"
	outcomePromoted  = "promoted"
	outcomeUnchanged = "unchanged"
)

// seedAdmin makes sure in.Email belongs to a Superadmin. An existing account
// keeps its password and is only promoted.
func seedAdmin(ctx context.Context, users *user.Service, in user.RegisterInput) (user.User, string, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return user.User{}, "", errors.New("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required")
	}
	in.Role = user.RoleSuperadmin

	existing, err := users.GetByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, user.ErrNotFound):
		created, err := users.Register(ctx, in)
		if err != nil {
			return user.User{}, "", fmt.Errorf("create admin: %w", err)
		}
		return created, outcomeCreated, nil
	case err != nil:
		return user.User{}, "", fmt.Errorf("lookup admin: %w", err)
	}

	if existing.Role == user.RoleSuperadmin {
		return existing, outcomeUnchanged, nil
	}

	role := user.RoleSuperadmin
	promoted, err := users.UpdateByID(ctx, existing.ID, user.UpdateInput{Role: &role})
	if err != nil {
		return user.User{}, "", fmt.Errorf("promote admin: %w", err)
	}
	return promoted, outcomePromoted, nil
}
