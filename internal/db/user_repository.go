package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/arzan03/usermanager/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

var withoutPassword = bson.M{"password": 0}

// UserRepository is the MongoDB credential store.
type UserRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewUserRepository returns a repository over the users collection.
func NewUserRepository(database *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: database.Collection(usersCollection),
		now:        time.Now,
	}
}

// EnsureIndexes creates the unique email index the store relies on for uniqueness.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

// Create inserts user. A duplicate email reports models.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := r.now().UTC()
	user.ID = primitive.NewObjectID()
	user.Email = normalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByID returns the user without its password.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := models.ParseID(id)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(withoutPassword)).Decode(&user)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindByEmail looks a user up by email. The password digest is only
// loaded when withPassword is set.
func (r *UserRepository) FindByEmail(ctx context.Context, email string, withPassword bool) (*models.User, error) {
	opts := options.FindOne()
	if !withPassword {
		opts.SetProjection(withoutPassword)
	}

	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": normalizeEmail(email)}, opts).Decode(&user)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindPage returns one sorted page of the users matching q.
func (r *UserRepository) FindPage(ctx context.Context, q models.UserQuery) ([]models.User, error) {
	dir := -1
	if q.Ascending {
		dir = 1
	}

	opts := options.Find().
		SetProjection(withoutPassword).
		SetSort(bson.D{{Key: q.SortBy, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(q.Skip).
		SetLimit(q.Limit)

	cursor, err := r.collection.Find(ctx, queryFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// Count returns how many users match q.
func (r *UserRepository) Count(ctx context.Context, q models.UserQuery) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, queryFilter(q))
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// Update applies the non-nil fields of upd and returns the updated record.
func (r *UserRepository) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	oid, err := models.ParseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": r.now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Email != nil {
		set["email"] = normalizeEmail(*upd.Email)
	}
	if upd.Password != nil {
		set["password"] = *upd.Password
	}
	if upd.PhoneNumber != nil {
		set["phoneNumber"] = *upd.PhoneNumber
	}
	if upd.Address != nil {
		set["address"] = *upd.Address
	}
	if upd.ProfilePicture != nil {
		set["profilePicture"] = *upd.ProfilePicture
	}
	if upd.Role != nil {
		set["role"] = *upd.Role
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutPassword)

	var user models.User
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.ErrEmailTaken
		}
		return nil, notFound(err)
	}
	return &user, nil
}

// Delete removes the user with the given id.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := models.ParseID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func queryFilter(q models.UserQuery) bson.M {
	filter := bson.M{"role": q.Role}
	if q.Search != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
	}
	return filter
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrUserNotFound
	}
	return fmt.Errorf("query user: %w", err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
