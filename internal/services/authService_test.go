package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/arzan03/usermanager/internal/apperror"
	"github.com/arzan03/usermanager/internal/db"
	"github.com/arzan03/usermanager/internal/models"
	"github.com/arzan03/usermanager/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T) (*AuthService, *db.MemoryUserRepository) {
	t.Helper()
	repo := db.NewMemoryUserRepository()
	hasher := NewPasswordHasher(bcrypt.MinCost)
	return NewAuthService(repo, hasher, NewTokenService("secret", time.Hour)), repo
}

func requireStatus(t *testing.T, err error, status int) *apperror.Error {
	t.Helper()
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected classified error, got %v", err)
	require.Equal(t, status, appErr.Status)
	return appErr
}

func TestAuthService_Register(t *testing.T) {
	svc, repo := newAuthService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, &validation.RegisterRequest{
		Name: "Test", Email: "T@Example.com", Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "t@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Empty(t, user.Password)

	stored, err := repo.FindByEmail(ctx, "t@example.com", true)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.Password)
	assert.True(t, svc.hasher.Verify("password123", stored.Password))
}

func TestAuthService_RegisterIgnoresRequestedRole(t *testing.T) {
	svc, _ := newAuthService(t)
	admin := "admin"

	user, _, err := svc.Register(context.Background(), &validation.RegisterRequest{
		Name: "Sneaky", Email: "s@example.com", Password: "password123", Role: &admin,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	svc, repo := newAuthService(t)
	ctx := context.Background()
	req := &validation.RegisterRequest{Name: "Test", Email: "t@example.com", Password: "password123"}

	_, _, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, req)
	appErr := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "User already exists", appErr.Message)

	n, err := repo.Count(ctx, models.UserQuery{Role: models.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	registered, _, err := svc.Register(ctx, &validation.RegisterRequest{Name: "Test", Email: "t@example.com", Password: "password123"})
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, "t@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.Password)

	claims, err := svc.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID.Hex(), claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestAuthService_LoginFailuresLookAlike(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	_, _, err := svc.Register(ctx, &validation.RegisterRequest{Name: "Test", Email: "t@example.com", Password: "password123"})
	require.NoError(t, err)

	_, _, wrongPassword := svc.Login(ctx, "t@example.com", "password999")
	_, _, noSuchUser := svc.Login(ctx, "ghost@example.com", "password123")

	a := requireStatus(t, wrongPassword, http.StatusUnauthorized)
	b := requireStatus(t, noSuchUser, http.StatusUnauthorized)
	assert.Equal(t, a.Message, b.Message)
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, repo := newAuthService(t)
	ctx := context.Background()
	user, token, err := svc.Register(ctx, &validation.RegisterRequest{Name: "Test", Email: "t@example.com", Password: "password123"})
	require.NoError(t, err)

	id, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), id.ID)
	assert.Equal(t, models.RoleUser, id.Role)

	require.NoError(t, repo.Delete(ctx, user.ID.Hex()))
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnknownSubject)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_EnsureAdminIsIdempotent(t *testing.T) {
	svc, repo := newAuthService(t)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "root", "root@example.com", "rootpassword")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "root", "root@example.com", "rootpassword")
	require.NoError(t, err)
	assert.False(t, created)

	n, err := repo.Count(ctx, models.UserQuery{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, token, err := svc.Login(ctx, "root@example.com", "rootpassword")
	require.NoError(t, err)
	claims, err := svc.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}
