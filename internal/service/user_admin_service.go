package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vuongdq/game-platform/internal/model"
	"github.com/vuongdq/game-platform/internal/queue"
	"github.com/vuongdq/game-platform/internal/repository"
)

// AdminStore is the full credential store used by user administration.
type AdminStore interface {
	UserStore
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint64, email string, role model.Role, passwordHash string) error
	Delete(ctx context.Context, id uint64) error
}

type CreateUserInput struct {
	Username string `json:"username" validate:"notblank,max=64"`
	Email    string `json:"email" validate:"notblank,email,max=255"`
	Password string `json:"password" validate:"notblank,min=6"`
	Role     string `json:"role" validate:"notblank"`
}

// UpdateUserInput replaces email and role.  Password is optional; when set
// it replaces the stored hash.
type UpdateUserInput struct {
	Email    string `json:"email" validate:"notblank,email,max=255"`
	Role     string `json:"role" validate:"notblank"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// UserAdminService implements the Admin-only user management operations.
// Role changes, password changes and deletions revoke the user's tokens.
type UserAdminService struct {
	users   AdminStore
	hasher  PasswordHasher
	revoker Revoker
	events  EventPublisher
	log     zerolog.Logger
}

func NewUserAdminService(users AdminStore, hasher PasswordHasher, revoker Revoker, events EventPublisher, log zerolog.Logger) *UserAdminService {
	return &UserAdminService{
		users:   users,
		hasher:  hasher,
		revoker: revoker,
		events:  events,
		log:     log.With().Str("component", "user-admin").Logger(),
	}
}

func (s *UserAdminService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list users failed")
		return nil, internalErr("An error occurred while getting users", err)
	}
	return users, nil
}

func (s *UserAdminService) Get(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.User{}, notFoundErr("User not found")
	}
	if err != nil {
		s.log.Error().Err(err).Uint64("user_id", id).Msg("get user failed")
		return model.User{}, internalErr("An error occurred while getting the user", err)
	}
	return u, nil
}

// Create adds a user with an explicit role.  The rules match Register.
func (s *UserAdminService) Create(ctx context.Context, actor string, in CreateUserInput) (model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	log := s.log.With().Str("op", "create").Str("actor", actor).Str("username", in.Username).Logger()

	if err := checkStruct(in); err != nil {
		return model.User{}, err
	}
	if err := checkPasswordLength(in.Password); err != nil {
		return model.User{}, err
	}
	role, ok := model.ParseRole(in.Role)
	if !ok {
		return model.User{}, validationErr("role", "Role must be User or Admin")
	}

	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return model.User{}, conflictErr("username", msgUsernameTaken, nil)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		log.Error().Err(err).Msg("username lookup failed")
		return model.User{}, internalErr("An error occurred while creating the user", err)
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return model.User{}, conflictErr("email", msgEmailTaken, nil)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		log.Error().Err(err).Msg("email lookup failed")
		return model.User{}, internalErr("An error occurred while creating the user", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		log.Error().Err(err).Msg("hash password failed")
		return model.User{}, internalErr("An error occurred while creating the user", err)
	}
	u := model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, &u); err != nil {
		err = mapStoreWriteErr(err, "An error occurred while creating the user")
		if KindOf(err) == KindInternal {
			log.Error().Err(err).Msg("create user failed")
		}
		return model.User{}, err
	}

	publishEvent(ctx, s.events, s.log, queue.NewUserEvent(queue.UserCreated, u, actor))
	log.Info().Uint64("user_id", u.ID).Str("role", role.String()).Msg("user created")
	return u, nil
}

// Update rewrites email and role and optionally the password.
func (s *UserAdminService) Update(ctx context.Context, actor string, id uint64, in UpdateUserInput) (model.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	log := s.log.With().Str("op", "update").Str("actor", actor).Uint64("user_id", id).Logger()

	if err := checkStruct(in); err != nil {
		return model.User{}, err
	}
	if err := checkPasswordLength(in.Password); err != nil {
		return model.User{}, err
	}
	role, ok := model.ParseRole(in.Role)
	if !ok {
		return model.User{}, validationErr("role", "Role must be User or Admin")
	}

	cur, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if cur.Username == actor && role != model.RoleAdmin {
		return model.User{}, validationErr("role", "You cannot remove your own Admin role")
	}
	if in.Email != cur.Email {
		if other, err := s.users.GetByEmail(ctx, in.Email); err == nil && other.ID != id {
			return model.User{}, conflictErr("email", msgEmailTaken, nil)
		} else if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			log.Error().Err(err).Msg("email lookup failed")
			return model.User{}, internalErr("An error occurred while updating the user", err)
		}
	}

	var hash string
	if in.Password != "" {
		if hash, err = s.hasher.Hash(in.Password); err != nil {
			log.Error().Err(err).Msg("hash password failed")
			return model.User{}, internalErr("An error occurred while updating the user", err)
		}
	}

	if err := s.users.Update(ctx, id, in.Email, role, hash); err != nil {
		err = mapStoreWriteErr(err, "An error occurred while updating the user")
		if KindOf(err) == KindInternal {
			log.Error().Err(err).Msg("update user failed")
		}
		return model.User{}, err
	}

	updated := cur
	updated.Email, updated.Role = in.Email, role
	if hash != "" {
		updated.PasswordHash = hash
	}
	if role != cur.Role || hash != "" {
		s.revoke(ctx, log, cur.Username)
	}
	publishEvent(ctx, s.events, s.log, queue.NewUserEvent(queue.UserUpdated, updated, actor))
	log.Info().Str("role", role.String()).Bool("password_changed", hash != "").Msg("user updated")
	return updated, nil
}

// UpdateRole changes only the role of a user.
func (s *UserAdminService) UpdateRole(ctx context.Context, actor string, id uint64, roleName string) (model.User, error) {
	if strings.TrimSpace(roleName) == "" {
		return model.User{}, validationErr("role", "Role cannot be empty")
	}
	cur, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	return s.Update(ctx, actor, id, UpdateUserInput{Email: cur.Email, Role: roleName})
}

// Delete removes the user permanently and revokes its tokens.
func (s *UserAdminService) Delete(ctx context.Context, actor string, id uint64) error {
	log := s.log.With().Str("op", "delete").Str("actor", actor).Uint64("user_id", id).Logger()

	cur, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if cur.Username == actor {
		return validationErr("", "You cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return notFoundErr("User not found")
		}
		log.Error().Err(err).Msg("delete user failed")
		return internalErr("An error occurred while deleting the user", err)
	}

	s.revoke(ctx, log, cur.Username)
	publishEvent(ctx, s.events, s.log, queue.NewUserEvent(queue.UserDeleted, cur, actor))
	log.Info().Str("username", cur.Username).Msg("user deleted")
	return nil
}

func (s *UserAdminService) revoke(ctx context.Context, log zerolog.Logger, username string) {
	if s.revoker == nil {
		return
	}
	if err := s.revoker.Revoke(context.WithoutCancel(ctx), username); err != nil {
		log.Warn().Err(err).Str("username", username).Msg("token revocation failed")
	}
}
