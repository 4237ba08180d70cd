package db

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/arzan03/usermanager/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryRecord struct {
	user models.User
	seq  int64
}

// MemoryUserRepository keeps users in process memory. It mirrors the
// MongoDB repository, including the unique email constraint.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	records map[primitive.ObjectID]*memoryRecord
	seq     int64
	now     func() time.Time
}

// NewMemoryUserRepository returns an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		records: make(map[primitive.ObjectID]*memoryRecord),
		now:     time.Now,
	}
}

// EnsureIndexes is a no-op; email uniqueness is checked on every write.
func (r *MemoryUserRepository) EnsureIndexes(context.Context) error { return nil }

// Create stores user with a new id, lowercased email and timestamps.
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := normalizeEmail(user.Email)
	if r.emailTaken(email, primitive.NilObjectID) {
		return models.ErrEmailTaken
	}

	now := r.now().UTC()
	user.ID = primitive.NewObjectID()
	user.Email = email
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	r.seq++
	r.records[user.ID] = &memoryRecord{user: *user, seq: r.seq}
	return nil
}

// FindByID returns the user without its password.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	oid, err := models.ParseID(id)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[oid]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return public(rec.user), nil
}

// FindByEmail looks up a user by lowercased email. withPassword keeps the digest.
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string, withPassword bool) (*models.User, error) {
	email = normalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.user.Email != email {
			continue
		}
		if withPassword {
			u := rec.user
			return &u, nil
		}
		return public(rec.user), nil
	}
	return nil, models.ErrUserNotFound
}

// FindPage returns one sorted page of the users matching q.
func (r *MemoryUserRepository) FindPage(_ context.Context, q models.UserQuery) ([]models.User, error) {
	r.mu.RLock()
	matched := r.match(q)
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b memoryRecord) int {
		c := compareField(&a.user, &b.user, q.SortBy)
		if c == 0 {
			c = cmp.Compare(a.seq, b.seq)
		}
		if !q.Ascending {
			c = -c
		}
		return c
	})

	start := min(q.Skip, int64(len(matched)))
	end := min(start+q.Limit, int64(len(matched)))

	users := make([]models.User, 0, end-start)
	for _, rec := range matched[start:end] {
		users = append(users, *public(rec.user))
	}
	return users, nil
}

// Count returns how many users match q.
func (r *MemoryUserRepository) Count(_ context.Context, q models.UserQuery) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.match(q))), nil
}

// Update applies the non-nil fields of upd and returns the stored user.
func (r *MemoryUserRepository) Update(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	oid, err := models.ParseID(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[oid]
	if !ok {
		return nil, models.ErrUserNotFound
	}

	u := rec.user
	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		if r.emailTaken(email, oid) {
			return nil, models.ErrEmailTaken
		}
		u.Email = email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Password != nil {
		u.Password = *upd.Password
	}
	if upd.PhoneNumber != nil {
		u.PhoneNumber = *upd.PhoneNumber
	}
	if upd.Address != nil {
		u.Address = *upd.Address
	}
	if upd.ProfilePicture != nil {
		u.ProfilePicture = *upd.ProfilePicture
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	u.UpdatedAt = r.now().UTC()

	rec.user = u
	return public(u), nil
}

// Delete removes the user with the given id.
func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	oid, err := models.ParseID(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[oid]; !ok {
		return models.ErrUserNotFound
	}
	delete(r.records, oid)
	return nil
}

// match copies the records selected by q. It must be called with the lock held.
func (r *MemoryUserRepository) match(q models.UserQuery) []memoryRecord {
	search := strings.ToLower(q.Search)

	var out []memoryRecord
	for _, rec := range r.records {
		if rec.user.Role != q.Role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(rec.user.Name), search) {
			continue
		}
		out = append(out, *rec)
	}
	return out
}

func (r *MemoryUserRepository) emailTaken(email string, except primitive.ObjectID) bool {
	for id, rec := range r.records {
		if id != except && rec.user.Email == email {
			return true
		}
	}
	return false
}

func compareField(a, b *models.User, field string) int {
	switch field {
	case "name":
		return cmp.Compare(a.Name, b.Name)
	case "email":
		return cmp.Compare(a.Email, b.Email)
	case "role":
		return cmp.Compare(a.Role, b.Role)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func public(u models.User) *models.User {
	u.Password = ""
	return &u
}
