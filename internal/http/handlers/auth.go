package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/relaypoint/rollcall/internal/config"
	"github.com/relaypoint/rollcall/internal/domain/user"
	"github.com/relaypoint/rollcall/internal/http/middlewares"
	"github.com/relaypoint/rollcall/internal/security"
)

// CredentialStore is the slice of the users store the login path needs.
type CredentialStore interface {
	GetByEmailActive(ctx context.Context, email string) (user.User, error)
	SetSession(ctx context.Context, id, token string) error
}

type AuthHandler struct {
	users CredentialStore
}

func NewAuthHandler(users CredentialStore) *AuthHandler {
	return &AuthHandler{users: users}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		RespondBadRequest(ctx, "missing", "Email and password are required")
		return
	}

	// short timeout for the store lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmailActive(cctx, req.Email)

	if err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	token, err := security.NewSessionToken()

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	// overwriting the session field invalidates any earlier token: one live
	// session per user
	err = h.users.SetSession(cctx, foundUser.ID, token)

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  foundUser.Public(),
	})
}

// Me echoes the identity behind the presented token. The mobile client
// distinguishes a missing header from an unknown token, so both codes are
// kept.
func (h *AuthHandler) Me(ctx *gin.Context) {
	caller := middlewares.CallerFromContext(ctx)

	if caller == nil {
		if ctx.GetHeader("Authorization") == "" {
			RespondUnauthorized(ctx, "no_auth", "Missing Authorization header")
			return
		}

		RespondUnauthorized(ctx, "invalid", "Invalid session token")
		return
	}

	ctx.JSON(http.StatusOK, caller.Public())
}
