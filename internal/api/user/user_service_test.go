package user

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-account-api/internal/types"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService() (*UserServiceImpl, *MemoryUserRepo, *clock) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewMemoryUserRepo(logger)
	c := &clock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewUserService(repo, 24*time.Hour, logger)
	svc.now = c.now
	return svc, repo, c
}

func TestGetCurrentProfile(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	u := seed(t, repo, "alice01", "alice@example.com")

	profile, err := svc.GetCurrentProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, &types.UserProfile{Username: "alice01", Email: "alice@example.com"}, profile)

	_, err = svc.GetCurrentProfile(ctx, uuid.New())
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestUpdateProfileCooldown(t *testing.T) {
	ctx := context.Background()
	svc, repo, c := newTestService()
	u := seed(t, repo, "alice01", "alice@example.com")

	updated, err := svc.UpdateProfile(ctx, u.ID, types.UpdateProfileParams{Username: "alice02"})
	require.NoError(t, err)
	assert.Equal(t, "alice02", updated.Username)

	c.t = c.t.Add(23 * time.Hour)
	_, err = svc.UpdateProfile(ctx, u.ID, types.UpdateProfileParams{Username: "alice03"})
	assert.ErrorIs(t, err, types.ErrCooldown)

	got, _ := repo.GetUserByID(ctx, u.ID)
	assert.Equal(t, "alice02", got.Username)

	c.t = c.t.Add(time.Hour)
	updated, err = svc.UpdateProfile(ctx, u.ID, types.UpdateProfileParams{Username: "alice03"})
	require.NoError(t, err)
	assert.Equal(t, "alice03", updated.Username)
}

func TestUpdateProfileUnchangedName(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	u := seed(t, repo, "bobby01", "bob@example.com")

	same, err := svc.UpdateProfile(ctx, u.ID, types.UpdateProfileParams{Username: "bobby01"})
	require.NoError(t, err)
	assert.Equal(t, "bobby01", same.Username)

	got, _ := repo.GetUserByID(ctx, u.ID)
	assert.Nil(t, got.UpdatedAt, "unchanged name must not start the cooldown")

	renamed, err := svc.UpdateProfile(ctx, u.ID, types.UpdateProfileParams{Username: "bobby02"})
	require.NoError(t, err)
	assert.Equal(t, "bobby02", renamed.Username)
}

func TestUpdateProfileUsernameTaken(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	u := seed(t, repo, "alice01", "alice@example.com")
	seed(t, repo, "bobby01", "bob@example.com")

	_, err := svc.UpdateProfile(ctx, u.ID, types.UpdateProfileParams{Username: "BOBBY01"})
	assert.ErrorIs(t, err, types.ErrConflict)

	got, _ := repo.GetUserByID(ctx, u.ID)
	assert.Nil(t, got.UpdatedAt, "failed update must not start the cooldown")
}

func TestUpdateUserByID(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	u := seed(t, repo, "alice01", "alice@example.com")

	updated, err := svc.UpdateUserByID(ctx, u.ID, types.UpdateProfileParams{Username: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Username)

	_, err = svc.UpdateUserByID(ctx, u.ID, types.UpdateProfileParams{Username: "renamed2"})
	assert.ErrorIs(t, err, types.ErrCooldown)

	_, err = svc.UpdateUserByID(ctx, uuid.New(), types.UpdateProfileParams{Username: "ghost01"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestListUsersSorted(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	seed(t, repo, "zed_user", "z@example.com")
	seed(t, repo, "alice01", "a@example.com")

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice01", users[0].Username)
	assert.Equal(t, "zed_user", users[1].Username)
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	admin := seed(t, repo, "rootadmin", "root@example.com")
	require.NoError(t, repo.PromoteAdmin(ctx, "root@example.com"))
	regular := seed(t, repo, "alice01", "alice@example.com")

	assert.ErrorIs(t, svc.DeleteUser(ctx, admin.ID), types.ErrForbidden)
	_, err := repo.GetUserByID(ctx, admin.ID)
	require.NoError(t, err, "admin must survive")

	require.NoError(t, svc.DeleteUser(ctx, regular.ID))
	assert.ErrorIs(t, svc.DeleteUser(ctx, regular.ID), types.ErrNotFound)

	_, err = svc.GetUserByID(ctx, regular.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
