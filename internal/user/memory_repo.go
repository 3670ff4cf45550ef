package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo keeps users in process memory. Every operation holds the lock
// for its whole read-modify-write, so concurrent writers never interleave.
type MemoryRepo struct {
	mu      sync.RWMutex
	users   map[string]User
	byEmail map[string]string
	order   []string
	now     func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:   make(map[string]User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryRepo) Create(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[u.Email]; taken {
		return ErrDuplicateEmail
	}

	now := r.now().UTC()
	u.ID = uuid.New().String()
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	r.users[u.ID] = *u
	r.byEmail[u.Email] = u.ID
	r.order = append(r.order, u.ID)
	return nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.users[id], nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0, len(r.order))
	for _, id := range r.order {
		u := r.users[id]
		u.PasswordHash = ""
		users = append(users, u)
	}
	return users, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id string, changes Changes) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}

	if changes.Email != nil && *changes.Email != u.Email {
		if _, taken := r.byEmail[*changes.Email]; taken {
			return User{}, ErrDuplicateEmail
		}
		delete(r.byEmail, u.Email)
		r.byEmail[*changes.Email] = id
	}

	changes.apply(&u)
	u.UpdatedAt = r.now().UTC()
	r.users[id] = u
	return u, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	delete(r.byEmail, u.Email)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepo) Ping(ctx context.Context) error {
	return nil
}
