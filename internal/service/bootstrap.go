package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vuongdq/game-platform/internal/model"
	"github.com/vuongdq/game-platform/internal/repository"
)

// AdminSeed names the account created when no Admin exists yet.
type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// BootstrapStore is satisfied by the credential store.
type BootstrapStore interface {
	UserStore
	HasAdmin(ctx context.Context) (bool, error)
}

// EnsureAdmin creates the bootstrap Admin account unless one already exists.
// An empty seed password skips the step.  The password is stored hashed.
func EnsureAdmin(ctx context.Context, store BootstrapStore, hasher PasswordHasher, seed AdminSeed, log zerolog.Logger) (created bool, err error) {
	if seed.Password == "" {
		log.Warn().Msg("ADMIN_PASSWORD not set, admin bootstrap skipped")
		return false, nil
	}
	has, err := store.HasAdmin(ctx)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	if has {
		return false, nil
	}

	hash, err := hasher.Hash(seed.Password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	u := model.User{
		Username:     seed.Username,
		Email:        seed.Email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	err = store.Create(ctx, &u)
	if errors.Is(err, repository.ErrUsernameExists) || errors.Is(err, repository.ErrEmailExists) {
		log.Warn().Err(err).Str("username", seed.Username).Msg("bootstrap admin collides with an existing user, skipped")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	log.Info().Str("username", u.Username).Uint64("user_id", u.ID).Msg("bootstrap admin created")
	return true, nil
}
