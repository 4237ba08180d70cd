package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arzan03/usermanager/internal/apperror"
	"github.com/arzan03/usermanager/internal/logger"
	"github.com/arzan03/usermanager/internal/models"
	"github.com/arzan03/usermanager/internal/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid credentials"

var ErrUnknownSubject = errors.New("token subject no longer exists")

type AuthService struct {
	users  UserStore
	hasher *PasswordHasher
	tokens *TokenService
}

// NewAuthService creates an AuthService over the given store, hasher and token service.
func NewAuthService(users UserStore, hasher *PasswordHasher, tokens *TokenService) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

// TokenTTL is the lifetime of issued tokens, used for the auth cookie expiry.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// Register creates a user with the default role and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, req *validation.RegisterRequest) (*models.User, string, error) {
	if _, err := s.users.FindByEmail(ctx, req.Email, false); err == nil {
		logger.Warn("Registration attempt with existing email", zap.String("email", req.Email))
		return nil, "", apperror.Conflict("User already exists")
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return nil, "", apperror.Internal(err)
	}

	user := &models.User{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: deref(req.PhoneNumber),
		Address:     deref(req.Address),
		Role:        models.RoleUser,
	}
	if err := createUser(ctx, s.users, s.hasher, user, req.Password); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, "", apperror.Internal(err)
	}

	logger.Info("New user registered", zap.String("email", user.Email), zap.String("id", user.ID.Hex()))
	return user, token, nil
}

// Login checks credentials. Unknown email and wrong password are reported identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email, true)
	if errors.Is(err, models.ErrUserNotFound) {
		logger.Warn("Login failed for non-existent user", zap.String("email", email))
		return nil, "", apperror.Unauthorized(invalidCredentials)
	}
	if err != nil {
		return nil, "", apperror.Internal(err)
	}

	if !s.hasher.Verify(password, user.Password) {
		logger.Warn("Password mismatch", zap.String("email", email))
		return nil, "", apperror.Unauthorized(invalidCredentials)
	}
	user.Password = ""

	token, err := s.tokens.Issue(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, "", apperror.Internal(err)
	}

	logger.Info("User logged in", zap.String("email", user.Email))
	return user, token, nil
}

// Authenticate resolves a bearer token to the identity of an existing user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return models.Identity{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, models.ErrUserNotFound) {
		return models.Identity{}, ErrUnknownSubject
	}
	if err != nil {
		return models.Identity{}, err
	}
	return user.Identity(), nil
}

// EnsureAdmin provisions the root admin account if no user holds its email.
// Safe to run on every start; a concurrent insert losing on the unique
// index counts as already provisioned.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	_, err := s.users.FindByEmail(ctx, email, false)
	if err == nil {
		logger.Info("Admin user already exists", zap.String("email", email))
		return false, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return false, fmt.Errorf("look up admin: %w", err)
	}

	admin := &models.User{Name: name, Email: email, Role: models.RoleAdmin}
	if err := createUser(ctx, s.users, s.hasher, admin, password); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}

	logger.Info("Admin user created", zap.String("email", admin.Email))
	return true, nil
}

// createUser hashes the password and inserts the user. The digest is
// cleared from user once stored.
func createUser(ctx context.Context, users UserStore, hasher *PasswordHasher, user *models.User, password string) error {
	hash, err := hashPassword(hasher, password)
	if err != nil {
		return err
	}
	user.Password = hash

	if err := users.Create(ctx, user); err != nil {
		user.Password = ""
		if errors.Is(err, models.ErrEmailTaken) {
			return apperror.Conflict("User already exists").Wrap(err)
		}
		return apperror.Internal(err)
	}
	user.Password = ""
	return nil
}

func hashPassword(hasher *PasswordHasher, password string) (string, error) {
	hash, err := hasher.Hash(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperror.Validation([]apperror.FieldError{{
			Field:   "password",
			Message: "password must be at most 72 bytes long",
		}})
	}
	if err != nil {
		return "", apperror.Internal(err)
	}
	return hash, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
