package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/relaypoint/rollcall/internal/authz"
	"github.com/relaypoint/rollcall/internal/config"
	"github.com/relaypoint/rollcall/internal/domain/user"
	"github.com/relaypoint/rollcall/internal/http/middlewares"
	"github.com/relaypoint/rollcall/internal/security"
)

// UserStore is the full credential-store contract; the router satisfies it
// with either the postgres or the in-memory repo.
type UserStore interface {
	Create(ctx context.Context, u user.User) error
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmailActive(ctx context.Context, email string) (user.User, error)
	GetBySession(ctx context.Context, token string) (user.User, error)
	SetSession(ctx context.Context, id, token string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]user.User, error)
}

// UserCleanup is the consistency sweep triggered after a user delete.
type UserCleanup interface {
	UserDeleted(ctx context.Context, userID string)
}

type UsersHandler struct {
	users   UserStore
	cleanup UserCleanup
}

func NewUsersHandler(users UserStore, cleanup UserCleanup) *UsersHandler {
	return &UsersHandler{users: users, cleanup: cleanup}
}

type CreateUserRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		RespondBadRequest(ctx, "email_and_password_required", "Email and password are required")
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u := user.New(req.Email, hash, req.Roles)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err = h.users.Create(cctx, u)

	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			RespondConflict(ctx, "email_exists", "A user with that email already exists.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, u.Public())
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	users, err := h.users.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	out := make([]user.Listing, 0, len(users))

	for _, u := range users {
		out = append(out, u.Listing())
	}

	ctx.JSON(http.StatusOK, out)
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id := ctx.Param("id")
	caller := middlewares.CallerFromContext(ctx)

	// the route is admin-gated already; the policy adds the self-delete guard
	if !authz.CanDeleteUser(caller, id) {
		RespondForbidden(ctx)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.users.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not delete user")
		return
	}

	// best-effort cascade: dangling roster assignments are nulled; failures
	// are logged inside the sweeper, never reported here
	h.cleanup.UserDeleted(ctx.Request.Context(), id)

	ctx.Status(http.StatusNoContent)
}
