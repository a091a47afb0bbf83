package memory

import (
	"context"
	"sync"

	"github.com/relaypoint/rollcall/internal/domain/user"
)

// UsersRepo is the in-memory credential store. It mirrors the postgres repo
// method set so the router can run on either.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Email == u.Email {
			return user.ErrEmailExists
		}
	}

	r.items[u.ID] = u
	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

// GetByEmailActive looks up by normalized email AND active status; inactive
// records cannot log in.
func (r *UsersRepo) GetByEmailActive(ctx context.Context, email string) (user.User, error) {
	email = user.NormalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email && u.IsActive() {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

// GetBySession resolves a bearer token by exact equality.
func (r *UsersRepo) GetBySession(ctx context.Context, token string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Session != nil && *u.Session == token {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

// SetSession overwrites the record's session token, invalidating whatever
// token was there before.
func (r *UsersRepo) SetSession(ctx context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return user.ErrNotFound
	}

	u.Session = &token
	r.items[id] = u
	return nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return user.ErrNotFound
	}

	delete(r.items, id)
	return nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.items))

	for _, u := range r.items {
		out = append(out, u)
	}

	return out, nil
}
