package services

import (
	"context"

	"github.com/arzan03/usermanager/internal/models"
)

// UserStore is the credential store the services run against.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string, withPassword bool) (*models.User, error)
	FindPage(ctx context.Context, q models.UserQuery) ([]models.User, error)
	Count(ctx context.Context, q models.UserQuery) (int64, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
