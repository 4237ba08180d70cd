package db

import (
	"context"
	"testing"
	"time"

	"github.com/arzan03/usermanager/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const ns = "user_management.users"

func userDoc(id primitive.ObjectID, name, email string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "email", Value: email},
		{Key: "role", Value: "user"},
		{Key: "createdAt", Value: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
}

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create sets defaults", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u := &models.User{Name: "Test", Email: "  T@Example.com ", Password: "digest"}
		require.NoError(mt, repo.Create(context.Background(), u))

		assert.False(mt, u.ID.IsZero())
		assert.Equal(mt, "t@example.com", u.Email)
		assert.Equal(mt, models.RoleUser, u.Role)
		assert.False(mt, u.CreatedAt.IsZero())
		assert.Equal(mt, u.CreatedAt, u.UpdatedAt)
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: user_management.users index: email_unique",
		}))

		err := repo.Create(context.Background(), &models.User{Name: "Test", Email: "t@example.com"})
		assert.ErrorIs(mt, err, models.ErrEmailTaken)
	})

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, userDoc(id, "Test", "t@example.com")))

		u, err := repo.FindByID(context.Background(), id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, id, u.ID)
		assert.Equal(mt, "Test", u.Name)
		assert.Empty(mt, u.Password)
	})

	mt.Run("find by id missing", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, models.ErrUserNotFound)
	})

	mt.Run("find by id malformed", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)

		_, err := repo.FindByID(context.Background(), "not-an-id")
		assert.ErrorIs(mt, err, models.ErrUserNotFound)
	})

	mt.Run("find by email with password", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		id := primitive.NewObjectID()
		doc := append(userDoc(id, "Test", "t@example.com"), bson.E{Key: "password", Value: "digest"})
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, doc))

		u, err := repo.FindByEmail(context.Background(), "T@example.com", true)
		require.NoError(mt, err)
		assert.Equal(mt, "digest", u.Password)
	})

	mt.Run("find page", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			userDoc(primitive.NewObjectID(), "Alice", "a@example.com"),
			userDoc(primitive.NewObjectID(), "Bob", "b@example.com"),
		))

		users, err := repo.FindPage(context.Background(), models.UserQuery{
			Role: models.RoleUser, SortBy: "createdAt", Limit: 10,
		})
		require.NoError(mt, err)
		require.Len(mt, users, 2)
		assert.Equal(mt, "Alice", users[0].Name)
		assert.Equal(mt, "Bob", users[1].Name)
	})

	mt.Run("count", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(15)}}))

		n, err := repo.Count(context.Background(), models.UserQuery{Role: models.RoleUser, Search: "a.b"})
		require.NoError(mt, err)
		assert.Equal(mt, int64(15), n)
	})

	mt.Run("update returns new document", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: userDoc(id, "Renamed", "t@example.com")},
		))

		name := "Renamed"
		u, err := repo.Update(context.Background(), id.Hex(), models.UserUpdate{Name: &name})
		require.NoError(mt, err)
		assert.Equal(mt, "Renamed", u.Name)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}))

		err := repo.Delete(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, models.ErrUserNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}))

		assert.NoError(mt, repo.Delete(context.Background(), primitive.NewObjectID().Hex()))
	})
}

func TestQueryFilter_EscapesSearch(t *testing.T) {
	f := queryFilter(models.UserQuery{Role: models.RoleAdmin, Search: "a.b*"})

	assert.Equal(t, models.RoleAdmin, f["role"])
	assert.Equal(t, primitive.Regex{Pattern: `a\.b\*`, Options: "i"}, f["name"])
}
