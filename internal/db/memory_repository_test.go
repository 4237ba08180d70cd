package db

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/arzan03/usermanager/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo *MemoryUserRepository, n int, role models.Role) []models.User {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var out []models.User
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		repo.now = func() time.Time { return ts }
		u := &models.User{Name: fmt.Sprintf("user-%02d", i), Email: fmt.Sprintf("%s%d@example.com", role, i), Password: "digest", Role: role}
		require.NoError(t, repo.Create(context.Background(), u))
		out = append(out, *u)
	}
	return out
}

func TestMemoryUserRepository_UniqueEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Name: "One", Email: "Dup@Example.com"}))
	err := repo.Create(ctx, &models.User{Name: "Two", Email: "dup@example.com"})
	assert.ErrorIs(t, err, models.ErrEmailTaken)

	n, err := repo.Count(ctx, models.UserQuery{Role: models.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryUserRepository_PasswordProjection(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	u := &models.User{Name: "Test", Email: "t@example.com", Password: "digest"}
	require.NoError(t, repo.Create(ctx, u))

	byID, err := repo.FindByID(ctx, u.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, byID.Password)

	byEmail, err := repo.FindByEmail(ctx, "T@EXAMPLE.com", false)
	require.NoError(t, err)
	assert.Empty(t, byEmail.Password)

	withPw, err := repo.FindByEmail(ctx, "t@example.com", true)
	require.NoError(t, err)
	assert.Equal(t, "digest", withPw.Password)
}

func TestMemoryUserRepository_FindPage(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	users := seed(t, repo, 15, models.RoleUser)
	seed(t, repo, 2, models.RoleAdmin)

	page, err := repo.FindPage(ctx, models.UserQuery{Role: models.RoleUser, SortBy: "createdAt", Limit: 10})
	require.NoError(t, err)
	require.Len(t, page, 10)
	assert.Equal(t, users[14].ID, page[0].ID)
	assert.Equal(t, users[5].ID, page[9].ID)

	rest, err := repo.FindPage(ctx, models.UserQuery{Role: models.RoleUser, SortBy: "createdAt", Skip: 10, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, rest, 5)

	beyond, err := repo.FindPage(ctx, models.UserQuery{Role: models.RoleUser, SortBy: "createdAt", Skip: 40, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond)

	asc, err := repo.FindPage(ctx, models.UserQuery{Role: models.RoleUser, SortBy: "name", Ascending: true, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, "user-00", asc[0].Name)
}

func TestMemoryUserRepository_Search(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	seed(t, repo, 12, models.RoleUser)

	q := models.UserQuery{Role: models.RoleUser, Search: "USER-1", SortBy: "createdAt", Limit: 10}
	n, err := repo.Count(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMemoryUserRepository_UpdateAndDelete(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	users := seed(t, repo, 2, models.RoleUser)

	taken := "user1@example.com"
	_, err := repo.Update(ctx, users[0].ID.Hex(), models.UserUpdate{Email: &taken})
	assert.ErrorIs(t, err, models.ErrEmailTaken)

	name := "Renamed"
	role := models.RoleAdmin
	updated, err := repo.Update(ctx, users[0].ID.Hex(), models.UserUpdate{Name: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	_, err = repo.Update(ctx, "bogus", models.UserUpdate{Name: &name})
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	require.NoError(t, repo.Delete(ctx, users[0].ID.Hex()))
	assert.ErrorIs(t, repo.Delete(ctx, users[0].ID.Hex()), models.ErrUserNotFound)
	_, err = repo.FindByID(ctx, users[0].ID.Hex())
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestMemoryUserRepository_FindPageDuringUpdates(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	users := seed(t, repo, 20, models.RoleUser)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _i := 0; _i < 200; _i++ {
			page, err := repo.FindPage(ctx, models.UserQuery{Role: models.RoleUser, SortBy: "name", Limit: 20})
			assert.NoError(t, err)
			assert.Len(t, page, 20)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			name := fmt.Sprintf("renamed-%03d", i)
			_, err := repo.Update(ctx, users[i%len(users)].ID.Hex(), models.UserUpdate{Name: &name})
			assert.NoError(t, err)
		}
	}()
	wg.Wait()
}
