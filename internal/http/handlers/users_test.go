package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/relaypoint/rollcall/internal/domain/user"
	"github.com/relaypoint/rollcall/internal/http/handlers"
)

// Fake implementation of the handlers.UserStore interface

type fakeUserStore struct {
	createFn       func(ctx context.Context, u user.User) error
	getByIDFn      func(ctx context.Context, id string) (user.User, error)
	getByEmailFn   func(ctx context.Context, email string) (user.User, error)
	getBySessionFn func(ctx context.Context, token string) (user.User, error)
	setSessionFn   func(ctx context.Context, id, token string) error
	deleteFn       func(ctx context.Context, id string) error
	listFn         func(ctx context.Context) ([]user.User, error)
}

func (f *fakeUserStore) Create(ctx context.Context, u user.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}

	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}

	return user.User{}, user.ErrNotFound
}

func (f *fakeUserStore) GetByEmailActive(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}

	return user.User{}, user.ErrNotFound
}

func (f *fakeUserStore) GetBySession(ctx context.Context, token string) (user.User, error) {
	if f.getBySessionFn != nil {
		return f.getBySessionFn(ctx, token)
	}

	return user.User{}, user.ErrNotFound
}

func (f *fakeUserStore) SetSession(ctx context.Context, id, token string) error {
	if f.setSessionFn != nil {
		return f.setSessionFn(ctx, id, token)
	}

	return nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}

	return nil
}

func (f *fakeUserStore) List(ctx context.Context) ([]user.User, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}

	return nil, nil
}

type fakeUserCleanup struct {
	calls []string
}

func (f *fakeUserCleanup) UserDeleted(ctx context.Context, userID string) {
	f.calls = append(f.calls, userID)
}

func TestCreateUserHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		storeSetup     func(*fakeUserStore)
		wantStatusCode int
		wantCode       string
	}{
		{
			name:           "success",
			body:           `{"email": "New@Site.Test", "password": "hunter22"}`,
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "missing_password",
			body:           `{"email": "new@site.test"}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "email_and_password_required",
		},
		{
			name: "duplicate_email",
			body: `{"email": "taken@site.test", "password": "hunter22"}`,
			storeSetup: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, u user.User) error {
					return user.ErrEmailExists
				}
			},
			wantStatusCode: http.StatusConflict,
			wantCode:       "email_exists",
		},
		{
			name: "repo_error",
			body: `{"email": "new@site.test", "password": "hunter22"}`,
			storeSetup: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, u user.User) error {
					return errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUserStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewUsersHandler(store, &fakeUserCleanup{})

			r := setupRouter(http.MethodPost, "/admin/users/create", h.CreateUser)

			req := httptest.NewRequest(http.MethodPost, "/admin/users/create", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantCode != "" {
				var resp struct {
					Code string `json:"error"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Code != tt.wantCode {
					t.Fatalf("got error code %q, want %q", resp.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestCreateUserHandler_DefaultsAndNormalization(t *testing.T) {
	var created user.User

	store := &fakeUserStore{
		createFn: func(ctx context.Context, u user.User) error {
			created = u
			return nil
		},
	}

	h := handlers.NewUsersHandler(store, &fakeUserCleanup{})
	r := setupRouter(http.MethodPost, "/admin/users/create", h.CreateUser)

	req := httptest.NewRequest(http.MethodPost, "/admin/users/create", bytes.NewBufferString(`{"email": "  Mixed@Case.Test ", "password": "hunter22"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if created.Email != "mixed@case.test" {
		t.Fatalf("stored email %q, want normalized form", created.Email)
	}

	if len(created.Roles) != 1 || created.Roles[0] != user.RoleStaff {
		t.Fatalf("roles = %v, want default [staff]", created.Roles)
	}

	// the password must be stored derived, never verbatim
	if created.PasswordHash == "hunter22" || created.PasswordHash == "" {
		t.Fatalf("password not hashed: %q", created.PasswordHash)
	}
}

func TestListUsersHandler(t *testing.T) {
	store := &fakeUserStore{
		listFn: func(ctx context.Context) ([]user.User, error) {
			return []user.User{
				user.New("a@site.test", "x:y", nil),
				user.New("b@site.test", "x:y", []string{user.RoleAdmin}),
			}, nil
		},
	}

	h := handlers.NewUsersHandler(store, &fakeUserCleanup{})
	r := setupRouter(http.MethodGet, "/admin/users", h.ListUsers)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp []struct {
		Email  string `json:"email"`
		Status string `json:"status"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if len(resp) != 2 {
		t.Fatalf("got %d users, want 2", len(resp))
	}

	if resp[0].Status != user.StatusActive {
		t.Fatalf("listing missing status: %+v", resp[0])
	}
}

func TestDeleteUserHandler(t *testing.T) {
	admin := user.New("admin@site.test", "x:y", []string{user.RoleAdmin})

	tests := []struct {
		name           string
		url            string
		storeSetup     func(*fakeUserStore)
		wantStatusCode int
		wantCleanup    int
	}{
		{
			name: "success",
			url:  "/admin/users/other-id",
			storeSetup: func(f *fakeUserStore) {
				f.deleteFn = func(ctx context.Context, id string) error {
					return nil
				}
			},
			wantStatusCode: http.StatusNoContent,
			wantCleanup:    1,
		},
		{
			name:           "self_delete_refused",
			url:            "/admin/users/" + admin.ID,
			wantStatusCode: http.StatusForbidden,
		},
		{
			name: "not_found",
			url:  "/admin/users/missing-id",
			storeSetup: func(f *fakeUserStore) {
				f.deleteFn = func(ctx context.Context, id string) error {
					return user.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "repo_error",
			url:  "/admin/users/other-id",
			storeSetup: func(f *fakeUserStore) {
				f.deleteFn = func(ctx context.Context, id string) error {
					return errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUserStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			cleanup := &fakeUserCleanup{}

			h := handlers.NewUsersHandler(store, cleanup)

			r := setupRouterAs(http.MethodDelete, "/admin/users/:id", &admin, h.DeleteUser)

			req := httptest.NewRequest(http.MethodDelete, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if len(cleanup.calls) != tt.wantCleanup {
				t.Fatalf("cleanup called %d times, want %d", len(cleanup.calls), tt.wantCleanup)
			}
		})
	}
}
