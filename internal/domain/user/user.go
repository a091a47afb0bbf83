package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleStaff = "staff"
	RoleAdmin = "admin"

	StatusActive = "active"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("email already exists")
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Roles        []string  `json:"roles"`
	Status       string    `json:"status"`
	Session      *string   `json:"-"` // current bearer token, nil when logged out
	CreatedAt    time.Time `json:"created_at"`
}

// New builds an active user with a fresh id. Roles default to staff.
func New(email, passwordHash string, roles []string) User {
	if len(roles) == 0 {
		roles = []string{RoleStaff}
	}

	return User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Roles:        roles,
		Status:       StatusActive,
		CreatedAt:    time.Now().UTC(),
	}
}

// NormalizeEmail is the single place email comparison semantics live:
// trimmed, lowercased. Uniqueness is enforced over the normalized form.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}

	return false
}

func (u User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

func (u User) IsActive() bool {
	return u.Status == StatusActive
}

// Public is the projection returned by create/login/me.
type Public struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

func (u User) Public() Public {
	return Public{ID: u.ID, Email: u.Email, Roles: u.Roles}
}

// Listing is the admin users-list projection. The password hash never leaves
// the store.
type Listing struct {
	ID     string   `json:"id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	Status string   `json:"status"`
}

func (u User) Listing() Listing {
	return Listing{ID: u.ID, Email: u.Email, Roles: u.Roles, Status: u.Status}
}
