package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vuongdq/game-platform/internal/model"
	"github.com/vuongdq/game-platform/internal/queue"
	"github.com/vuongdq/game-platform/internal/repository"
	"github.com/vuongdq/game-platform/internal/utils"
)

// memStore is an in-memory credential store with the same uniqueness and
// not-found semantics as the MySQL repository.
type memStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User

	// createErr, when set, is returned by the next Create instead of
	// inserting.
	createErr error
	// failAll makes every call fail with an opaque error.
	failAll error
}

func newMemStore() *memStore { return &memStore{users: map[uint64]model.User{}} }

func (m *memStore) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	if err := m.createErr; err != nil {
		m.createErr = nil
		return err
	}
	for _, x := range m.users {
		if x.Username == u.Username {
			return repository.ErrUsernameExists
		}
		if x.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	m.nextID++
	u.ID = m.nextID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) find(match func(model.User) bool) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return model.User{}, m.failAll
	}
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m *memStore) GetByUsername(_ context.Context, username string) (model.User, error) {
	return m.find(func(u model.User) bool { return u.Username == username })
}

func (m *memStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	return m.find(func(u model.User) bool { return u.Email == email })
}

func (m *memStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	return m.find(func(u model.User) bool { return u.ID == id })
}

func (m *memStore) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	out := make([]model.User, 0, len(m.users))
	for id := uint64(1); id <= m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, id uint64, email string, role model.Role, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	for _, x := range m.users {
		if x.ID != id && x.Email == email {
			return repository.ErrEmailExists
		}
	}
	u.Email, u.Role, u.UpdatedAt = email, role, time.Now().UTC()
	if passwordHash != "" {
		u.PasswordHash = passwordHash
	}
	m.users[id] = u
	return nil
}

func (m *memStore) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) HasAdmin(_ context.Context) (bool, error) {
	_, err := m.find(func(u model.User) bool { return u.Role == model.RoleAdmin })
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.UserEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.UserEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type recordingRevoker struct {
	mu      sync.Mutex
	revoked []string
}

func (r *recordingRevoker) Revoke(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked = append(r.revoked, username)
	return nil
}

type stubGenerations struct {
	gen map[string]int64
	err error
}

func (s *stubGenerations) IssueGeneration(_ context.Context, username string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.gen[username], nil
}

var testHasher = utils.NewBcryptHasher(bcrypt.MinCost)

func newTestIssuer(t *testing.T) *utils.TokenIssuer {
	t.Helper()
	iss, err := utils.NewTokenIssuer(utils.TokenConfig{
		Secret:   "test-secret",
		Issuer:   "game-platform",
		Audience: "game-platform-clients",
		TTL:      24 * time.Hour,
	})
	require.NoError(t, err)
	return iss
}
