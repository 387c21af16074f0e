package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuongdq/game-platform/internal/model"
	"github.com/vuongdq/game-platform/internal/queue"
)

type adminFixture struct {
	store   *memStore
	pub     *recordingPublisher
	revoker *recordingRevoker
	svc     *UserAdminService
	admin   model.User
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	f := &adminFixture{store: newMemStore(), pub: &recordingPublisher{}, revoker: &recordingRevoker{}}
	f.svc = NewUserAdminService(f.store, testHasher, f.revoker, f.pub, zerolog.Nop())

	admin, err := f.svc.Create(context.Background(), "system", CreateUserInput{
		Username: "admin", Email: "admin@gameplatform.com", Password: "Admin@123", Role: "admin",
	})
	require.NoError(t, err)
	f.admin = admin
	f.pub.events = nil
	return f
}

func TestUserAdmin_CreateAndList(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	u, err := f.svc.Create(ctx, "admin", CreateUserInput{Username: "alice", Email: "Alice@x.com", Password: "secret1", Role: "User"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.Equal(t, "alice@x.com", u.Email)
	assert.True(t, testHasher.Verify(u.PasswordHash, "secret1"))

	users, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, model.RoleAdmin, users[0].Role)

	assert.Equal(t, []queue.EventType{queue.UserCreated}, f.pub.types())
	assert.Equal(t, "admin", f.pub.events[0].Actor)
}

func TestUserAdmin_CreateValidation(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "admin", CreateUserInput{Username: "x", Email: "x@x.com", Password: "secret1", Role: "Owner"})
	requireKind(t, err, KindValidation, "Role must be User or Admin")

	_, err = f.svc.Create(ctx, "admin", CreateUserInput{Username: "x", Email: "x@x.com", Password: "123", Role: "User"})
	requireKind(t, err, KindValidation, "Password must be at least 6 characters long")

	_, err = f.svc.Create(ctx, "admin", CreateUserInput{Username: "admin", Email: "new@x.com", Password: "secret1", Role: "User"})
	requireKind(t, err, KindConflict, "Username already exists")

	_, err = f.svc.Create(ctx, "admin", CreateUserInput{Username: "new", Email: "ADMIN@gameplatform.com", Password: "secret1", Role: "User"})
	requireKind(t, err, KindConflict, "Email already exists")
}

func TestUserAdmin_Get(t *testing.T) {
	f := newAdminFixture(t)

	u, err := f.svc.Get(context.Background(), f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Username)

	_, err = f.svc.Get(context.Background(), 999)
	requireKind(t, err, KindNotFound, "User not found")
}

func TestUserAdmin_UpdateRoleRevokesTokens(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	u, err := f.svc.Create(ctx, "admin", CreateUserInput{Username: "bob", Email: "bob@x.com", Password: "secret1", Role: "User"})
	require.NoError(t, err)
	f.pub.events = nil

	updated, err := f.svc.Update(ctx, "admin", u.ID, UpdateUserInput{Email: "bob@x.com", Role: "Admin"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, updated.Role)
	assert.Equal(t, u.PasswordHash, updated.PasswordHash)
	assert.Equal(t, []string{"bob"}, f.revoker.revoked)
	assert.Equal(t, []queue.EventType{queue.UserUpdated}, f.pub.types())
}

func TestUserAdmin_UpdateEmailOnlyKeepsTokens(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	u, err := f.svc.Create(ctx, "admin", CreateUserInput{Username: "bob", Email: "bob@x.com", Password: "secret1", Role: "User"})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, "admin", u.ID, UpdateUserInput{Email: "robert@x.com", Role: "User"})
	require.NoError(t, err)
	assert.Equal(t, "robert@x.com", updated.Email)
	assert.Empty(t, f.revoker.revoked)
}

func TestUserAdmin_UpdatePasswordIsHashed(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	u, err := f.svc.Create(ctx, "admin", CreateUserInput{Username: "carol", Email: "carol@x.com", Password: "secret1", Role: "User"})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, "admin", u.ID, UpdateUserInput{Email: "carol@x.com", Role: "User", Password: "newpass1"})
	require.NoError(t, err)

	stored, err := f.store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "newpass1", stored.PasswordHash)
	assert.True(t, testHasher.Verify(stored.PasswordHash, "newpass1"))
	assert.False(t, testHasher.Verify(stored.PasswordHash, "secret1"))
	assert.Equal(t, []string{"carol"}, f.revoker.revoked)

	auth := NewAuthService(f.store, testHasher, newTestIssuer(t))
	_, err = auth.Login(ctx, LoginInput{Username: "carol", Password: "newpass1"})
	require.NoError(t, err)
}

func TestUserAdmin_UpdateErrors(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	u, err := f.svc.Create(ctx, "admin", CreateUserInput{Username: "dan", Email: "dan@x.com", Password: "secret1", Role: "User"})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, "admin", u.ID, UpdateUserInput{Email: "admin@gameplatform.com", Role: "User"})
	requireKind(t, err, KindConflict, "Email already exists")

	_, err = f.svc.Update(ctx, "admin", 999, UpdateUserInput{Email: "z@x.com", Role: "User"})
	requireKind(t, err, KindNotFound, "User not found")

	_, err = f.svc.Update(ctx, "admin", u.ID, UpdateUserInput{Email: "dan@x.com", Role: "User", Password: "short"})
	requireKind(t, err, KindValidation, "Password must be at least 6 characters long")

	_, err = f.svc.Update(ctx, "admin", f.admin.ID, UpdateUserInput{Email: "admin@gameplatform.com", Role: "User"})
	requireKind(t, err, KindValidation, "You cannot remove your own Admin role")
}

func TestUserAdmin_UpdateRole(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	u, err := f.svc.Create(ctx, "admin", CreateUserInput{Username: "eve", Email: "eve@x.com", Password: "secret1", Role: "User"})
	require.NoError(t, err)

	_, err = f.svc.UpdateRole(ctx, "admin", u.ID, "")
	requireKind(t, err, KindValidation, "Role cannot be empty")

	updated, err := f.svc.UpdateRole(ctx, "admin", u.ID, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, updated.Role)
	assert.Equal(t, "eve@x.com", updated.Email)
}

func TestUserAdmin_Delete(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	u, err := f.svc.Create(ctx, "admin", CreateUserInput{Username: "fay", Email: "fay@x.com", Password: "secret1", Role: "User"})
	require.NoError(t, err)
	f.pub.events = nil

	require.NoError(t, f.svc.Delete(ctx, "admin", u.ID))
	_, err = f.store.GetByID(ctx, u.ID)
	assert.Error(t, err)
	assert.Equal(t, []string{"fay"}, f.revoker.revoked)
	assert.Equal(t, []queue.EventType{queue.UserDeleted}, f.pub.types())

	err = f.svc.Delete(ctx, "admin", u.ID)
	requireKind(t, err, KindNotFound, "User not found")

	err = f.svc.Delete(ctx, "admin", f.admin.ID)
	requireKind(t, err, KindValidation, "You cannot delete your own account")
}

func TestUserAdmin_StoreFailure(t *testing.T) {
	f := newAdminFixture(t)
	f.store.failAll = errors.New("db down")

	_, err := f.svc.List(context.Background())
	requireKind(t, err, KindInternal, "An error occurred while getting users")
	_, err = f.svc.Get(context.Background(), 1)
	requireKind(t, err, KindInternal, "An error occurred while getting the user")
}
