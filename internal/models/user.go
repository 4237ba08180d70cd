package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	Password       string             `bson:"password,omitempty" json:"-"`
	PhoneNumber    string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Address        string             `bson:"address,omitempty" json:"address,omitempty"`
	ProfilePicture string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	Role           Role               `bson:"role" json:"role"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Identity is the authenticated caller of a request.
type Identity struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Identity returns the caller view of u.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID.Hex(), Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserUpdate carries a partial update; nil fields are left untouched.
// Password, when set, must already be hashed.
type UserUpdate struct {
	Name           *string
	Email          *string
	Password       *string
	PhoneNumber    *string
	Address        *string
	ProfilePicture *string
	Role           *Role
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Password == nil && u.PhoneNumber == nil &&
		u.Address == nil && u.ProfilePicture == nil && u.Role == nil
}

// Sortable fields for user listings.
var SortFields = map[string]bool{
	"createdAt": true,
	"updatedAt": true,
	"name":      true,
	"email":     true,
	"role":      true,
}

// UserQuery selects one page of users holding a single role.
type UserQuery struct {
	Role      Role
	Search    string
	SortBy    string
	Ascending bool
	Skip      int64
	Limit     int64
}

type UserPage struct {
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
	TotalUsers int64  `json:"totalUsers"`
	Users      []User `json:"users"`
}

// ParseID converts a hex id; malformed ids are indistinguishable from missing users.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrUserNotFound
	}
	return oid, nil
}
