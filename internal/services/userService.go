package services

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/arzan03/usermanager/internal/apperror"
	"github.com/arzan03/usermanager/internal/logger"
	"github.com/arzan03/usermanager/internal/models"
	"github.com/arzan03/usermanager/internal/policy"
	"github.com/arzan03/usermanager/internal/utils"
	"github.com/arzan03/usermanager/internal/validation"
	"go.uber.org/zap"
)

const (
	defaultPage    = 1
	defaultLimit   = 10
	maxLimit       = 100
	defaultSortBy  = "createdAt"
	userNotFound   = "User not found"
	accessDenied   = "Unauthorized access"
	roleAssignment = "Not authorized to assign admin role"
)

// ListParams are the raw query parameters of a user listing.
type ListParams struct {
	Page   string
	Limit  string
	SortBy string
	Order  string
	Role   string
	Search string
}

// query turns raw parameters into a store query plus the effective page and limit.
func (p ListParams) query() (models.UserQuery, int, int) {
	page, err := strconv.Atoi(p.Page)
	if err != nil || page < 1 {
		page = defaultPage
	}

	limit, err := strconv.Atoi(p.Limit)
	if err != nil {
		limit = defaultLimit
	}
	limit = min(max(limit, 1), maxLimit)

	sortBy := p.SortBy
	if !models.SortFields[sortBy] {
		sortBy = defaultSortBy
	}

	role := models.Role(p.Role)
	if role == "" {
		role = models.RoleUser
	}

	return models.UserQuery{
		Role:      role,
		Search:    strings.TrimSpace(p.Search),
		SortBy:    sortBy,
		Ascending: p.Order == "asc",
		Skip:      int64(page-1) * int64(limit),
		Limit:     int64(limit),
	}, page, limit
}

type UserService struct {
	users  UserStore
	hasher *PasswordHasher
}

// NewUserService creates a UserService over the given store.
func NewUserService(users UserStore, hasher *PasswordHasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

// List returns one page of users holding a single role (user by default).
func (s *UserService) List(ctx context.Context, actor models.Identity, params ListParams) (*models.UserPage, error) {
	if !policy.RoleAllowed(policy.ListUsers, actor.Role) {
		return nil, apperror.Forbidden(accessDenied)
	}

	q, page, limit := params.query()

	var (
		users []models.User
		total int64
	)
	err := utils.RunParallelTasks(
		func() (err error) {
			users, err = s.users.FindPage(ctx, q)
			return err
		},
		func() (err error) {
			total, err = s.users.Count(ctx, q)
			return err
		},
	)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if users == nil {
		users = []models.User{}
	}

	logger.Debug("Fetched users", zap.Int("count", len(users)), zap.Int("page", page))
	return &models.UserPage{
		Page:       page,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		TotalUsers: total,
		Users:      users,
	}, nil
}

// Get returns one user. Non-admins may only read their own record.
func (s *UserService) Get(ctx context.Context, actor models.Identity, id string) (*models.User, error) {
	if err := authorizeTarget(policy.GetUser, actor, id); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return user, nil
}

// Create adds a user on behalf of an admin. Only callers allowed to assign
// roles may create another admin.
func (s *UserService) Create(ctx context.Context, actor models.Identity, req *validation.CreateUserRequest) (*models.User, error) {
	if !policy.RoleAllowed(policy.CreateUser, actor.Role) {
		return nil, apperror.Forbidden(accessDenied)
	}

	role := req.RoleValue()
	if role == models.RoleAdmin && !policy.RoleAllowed(policy.AssignRole, actor.Role) {
		logger.Warn("Unauthorized admin role assignment attempt", zap.String("by", actor.Email))
		return nil, apperror.Forbidden(roleAssignment)
	}

	if _, err := s.users.FindByEmail(ctx, req.Email, false); err == nil {
		return nil, apperror.Conflict("Email already in use")
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return nil, apperror.Internal(err)
	}

	user := &models.User{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: deref(req.PhoneNumber),
		Address:     deref(req.Address),
		Role:        role,
	}
	if err := createUser(ctx, s.users, s.hasher, user, req.Password); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			return nil, apperror.Conflict("Email already in use").Wrap(err)
		}
		return nil, err
	}

	logger.Info("User created", zap.String("email", user.Email), zap.String("by", actor.Email))
	return user, nil
}

// Update applies a partial update. A new password is re-hashed before it is stored.
func (s *UserService) Update(ctx context.Context, actor models.Identity, id string, req *validation.UpdateUserRequest) (*models.User, error) {
	if err := authorizeTarget(policy.UpdateUser, actor, id); err != nil {
		return nil, err
	}

	upd := models.UserUpdate{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Role:        req.RoleValue(),
	}
	if upd.Role != nil && *upd.Role != actor.Role && !policy.RoleAllowed(policy.AssignRole, actor.Role) {
		logger.Warn("Unauthorized role change attempt", zap.String("by", actor.Email), zap.String("target", id))
		return nil, apperror.Forbidden(roleAssignment)
	}
	if req.Password != nil {
		hash, err := hashPassword(s.hasher, *req.Password)
		if err != nil {
			return nil, err
		}
		upd.Password = &hash
	}

	user, err := s.users.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			return nil, apperror.Conflict("Email already in use")
		}
		return nil, storeError(err)
	}

	logger.Info("User updated", zap.String("email", user.Email), zap.String("by", actor.Email))
	return user, nil
}

// Delete removes a user. Admin only.
func (s *UserService) Delete(ctx context.Context, actor models.Identity, id string) error {
	if err := authorizeTarget(policy.DeleteUser, actor, id); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return storeError(err)
	}

	logger.Info("User deleted", zap.String("id", id), zap.String("by", actor.Email))
	return nil
}

// authorizeTarget rejects malformed ids as not found before checking ownership.
func authorizeTarget(op policy.Operation, actor models.Identity, id string) error {
	if _, err := models.ParseID(id); err != nil {
		logger.Debug("Invalid user id", zap.String("id", id))
		return apperror.NotFound(userNotFound)
	}
	if err := policy.Check(op, actor, id); err != nil {
		logger.Warn("Unauthorized access attempt",
			zap.String("operation", string(op)),
			zap.String("by", actor.Email),
			zap.String("target", id),
		)
		return apperror.Forbidden(accessDenied).Wrap(err)
	}
	return nil
}

func storeError(err error) error {
	if errors.Is(err, models.ErrUserNotFound) {
		return apperror.NotFound(userNotFound)
	}
	return apperror.Internal(err)
}
