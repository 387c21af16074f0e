package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vuongdq/game-platform/internal/metrics"
	"github.com/vuongdq/game-platform/internal/model"
	"github.com/vuongdq/game-platform/internal/queue"
	"github.com/vuongdq/game-platform/internal/repository"
	"github.com/vuongdq/game-platform/internal/utils"
)

// UserStore is the part of the credential store the auth flows need.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

type TokenIssuer interface {
	Issue(id utils.Identity) (utils.AccessToken, error)
}

// EventPublisher delivers user lifecycle events.  Delivery is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.UserEvent) error
}

// Revoker invalidates every token issued so far for a username.
type Revoker interface {
	Revoke(ctx context.Context, username string) error
}

// GenerationSource supplies the revocation generation stamped into new
// tokens.
type GenerationSource interface {
	IssueGeneration(ctx context.Context, username string) (int64, error)
}

// AuthResult is returned by a successful Register or Login.
type AuthResult struct {
	Token     string     `json:"token"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

type RegisterInput struct {
	Username string `json:"username" validate:"notblank,max=64"`
	Email    string `json:"email" validate:"notblank,email,max=255"`
	Password string `json:"password" validate:"notblank,min=6"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

const (
	msgUsernameTaken  = "Username already exists"
	msgEmailTaken     = "Email already exists"
	msgLoginRequired  = "Username and password are required"
	msgBadCredentials = "Invalid username or password"
)

// AuthService runs registration and login.  It holds no mutable state and
// is safe for concurrent use.
type AuthService struct {
	users   UserStore
	hasher  PasswordHasher
	tokens  TokenIssuer
	events  EventPublisher
	gens    GenerationSource
	metrics *metrics.Metrics
	log     zerolog.Logger

	// dummyHash is verified against when the username is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash string
}

// AuthOption configures optional collaborators.
type AuthOption func(*AuthService)

func WithEvents(p EventPublisher) AuthOption        { return func(s *AuthService) { s.events = p } }
func WithGenerations(g GenerationSource) AuthOption { return func(s *AuthService) { s.gens = g } }
func WithMetrics(m *metrics.Metrics) AuthOption     { return func(s *AuthService) { s.metrics = m } }
func WithLogger(l zerolog.Logger) AuthOption        { return func(s *AuthService) { s.log = l } }

func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With().Str("component", "auth").Logger()
	if h, err := hasher.Hash("game-platform-dummy-password"); err == nil {
		s.dummyHash = h
	}
	return s
}

// Register validates in, enforces username and email uniqueness, stores a
// new User-role record and returns a token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	log := s.log.With().Str("op", "register").Str("username", in.Username).Logger()

	if err := checkStruct(in); err != nil {
		s.metrics.Registration(metrics.OutcomeInvalid)
		log.Warn().Err(err).Msg("registration rejected")
		return AuthResult{}, err
	}
	if err := checkPasswordLength(in.Password); err != nil {
		s.metrics.Registration(metrics.OutcomeInvalid)
		log.Warn().Err(err).Msg("registration rejected")
		return AuthResult{}, err
	}

	if err := s.ensureUnique(ctx, in.Username, in.Email); err != nil {
		s.observeRegisterErr(log, err)
		return AuthResult{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		err = internalErr("An error occurred during registration", err)
		s.observeRegisterErr(log, err)
		return AuthResult{}, err
	}

	u := model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, &u); err != nil {
		err = mapStoreWriteErr(err, "An error occurred during registration")
		s.observeRegisterErr(log, err)
		return AuthResult{}, err
	}

	res, err := s.issue(ctx, log, u)
	if err != nil {
		err = internalErr("An error occurred during registration", err)
		s.observeRegisterErr(log, err)
		return AuthResult{}, err
	}

	s.publish(ctx, queue.NewUserEvent(queue.UserRegistered, u, ""))
	s.metrics.Registration(metrics.OutcomeSuccess)
	log.Info().Uint64("user_id", u.ID).Msg("user registered")
	return res, nil
}

// Login authenticates username and password.  The username must match
// exactly, surrounding whitespace included.  Unknown users and wrong
// passwords fail identically; only the log line tells them apart.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	log := s.log.With().Str("op", "login").Str("username", in.Username).Logger()

	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Password) == "" {
		s.metrics.Login(metrics.OutcomeInvalid)
		log.Warn().Str("reason", "missing_fields").Msg("login failed")
		return AuthResult{}, validationErr("", msgLoginRequired)
	}

	u, err := s.users.GetByUsername(ctx, in.Username)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		s.hasher.Verify(s.dummyHash, in.Password)
		s.metrics.Login(metrics.OutcomeBadCreds)
		log.Warn().Str("reason", "unknown_user").Msg("login failed")
		return AuthResult{}, &Error{Kind: KindAuthentication, Message: msgBadCredentials}
	case err != nil:
		s.metrics.Login(metrics.OutcomeError)
		log.Error().Err(err).Msg("user lookup failed")
		return AuthResult{}, internalErr("An error occurred during login", err)
	}

	if !s.hasher.Verify(u.PasswordHash, in.Password) {
		s.metrics.Login(metrics.OutcomeBadCreds)
		log.Warn().Str("reason", "wrong_password").Msg("login failed")
		return AuthResult{}, &Error{Kind: KindAuthentication, Message: msgBadCredentials}
	}

	res, err := s.issue(ctx, log, u)
	if err != nil {
		s.metrics.Login(metrics.OutcomeError)
		log.Error().Err(err).Msg("token issue failed")
		return AuthResult{}, internalErr("An error occurred during login", err)
	}
	s.metrics.Login(metrics.OutcomeSuccess)
	log.Info().Msg("login succeeded")
	return res, nil
}

func (s *AuthService) ensureUnique(ctx context.Context, username, email string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return conflictErr("username", msgUsernameTaken, nil)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return internalErr("An error occurred during registration", err)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return conflictErr("email", msgEmailTaken, nil)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return internalErr("An error occurred during registration", err)
	}
	return nil
}

// issue signs a token for u.  When the generation lookup fails the token is
// issued with generation 0; it is accepted until the user's tokens are next
// checked against a reachable revocation list holding a higher generation.
func (s *AuthService) issue(ctx context.Context, log zerolog.Logger, u model.User) (AuthResult, error) {
	var gen int64
	if s.gens != nil {
		g, err := s.gens.IssueGeneration(ctx, u.Username)
		if err != nil {
			log.Warn().Err(err).Msg("token generation lookup failed, issuing generation 0")
		} else {
			gen = g
		}
	}
	tok, err := s.tokens.Issue(utils.Identity{Username: u.Username, Email: u.Email, Role: u.Role, Generation: gen})
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		Token:     tok.Token,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		ExpiresAt: tok.Exp,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, ev queue.UserEvent) {
	publishEvent(ctx, s.events, s.log, ev)
}

func (s *AuthService) observeRegisterErr(log zerolog.Logger, err error) {
	switch KindOf(err) {
	case KindConflict:
		s.metrics.Registration(metrics.OutcomeConflict)
		log.Warn().Err(err).Msg("registration rejected")
	case KindValidation:
		s.metrics.Registration(metrics.OutcomeInvalid)
		log.Warn().Err(err).Msg("registration rejected")
	default:
		s.metrics.Registration(metrics.OutcomeError)
		log.Error().Err(err).Msg("registration failed")
	}
}

// mapStoreWriteErr turns the store's unique-key sentinels into conflicts.
// A lost race against a concurrent insert lands here.
func mapStoreWriteErr(err error, internalMsg string) error {
	switch {
	case errors.Is(err, repository.ErrUsernameExists):
		return conflictErr("username", msgUsernameTaken, err)
	case errors.Is(err, repository.ErrEmailExists):
		return conflictErr("email", msgEmailTaken, err)
	case errors.Is(err, repository.ErrUserNotFound):
		return notFoundErr("User not found")
	}
	return internalErr(internalMsg, err)
}

// publishEvent hands ev to p outside the request's cancellation so a client
// disconnect does not drop an event for a change that was committed.
func publishEvent(ctx context.Context, p EventPublisher, log zerolog.Logger, ev queue.UserEvent) {
	if p == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := p.Publish(pctx, ev); err != nil {
		log.Warn().Err(err).Str("event", string(ev.Type)).Str("username", ev.Username).Msg("user event not published")
	}
}
