package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/relaypoint/rollcall/internal/domain/roster"
	"github.com/relaypoint/rollcall/internal/domain/student"
	"github.com/relaypoint/rollcall/internal/domain/user"
	"github.com/relaypoint/rollcall/internal/http/handlers"
)

// Fake implementation of the handlers.StudentStore interface

type fakeStudentStore struct {
	createFn func(ctx context.Context, s student.Student) error
	getFn    func(ctx context.Context, id string) (student.Student, error)
	listFn   func(ctx context.Context) ([]student.Student, error)
	deleteFn func(ctx context.Context, id string) error
}

func (f *fakeStudentStore) Create(ctx context.Context, s student.Student) error {
	if f.createFn != nil {
		return f.createFn(ctx, s)
	}

	return nil
}

func (f *fakeStudentStore) GetByID(ctx context.Context, id string) (student.Student, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}

	return student.Student{}, student.ErrNotFound
}

func (f *fakeStudentStore) List(ctx context.Context) ([]student.Student, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}

	return nil, nil
}

func (f *fakeStudentStore) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}

	return nil
}

type fakeStudentCleanup struct {
	calls []string
}

func (f *fakeStudentCleanup) StudentDeleted(ctx context.Context, studentID string) {
	f.calls = append(f.calls, studentID)
}

func TestCreateStudentHandler(t *testing.T) {
	staff := user.New("staff@site.test", "x:y", nil)

	tests := []struct {
		name           string
		body           string
		storeSetup     func(*fakeStudentStore)
		wantStatusCode int
		wantCode       string
	}{
		{
			name:           "success",
			body:           `{"firstName": "Ada", "lastName": "Lovelace"}`,
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "missing_last_name",
			body:           `{"firstName": "Ada", "lastName": "  "}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "missing_name",
		},
		{
			name: "repo_error",
			body: `{"firstName": "Ada", "lastName": "Lovelace"}`,
			storeSetup: func(f *fakeStudentStore) {
				f.createFn = func(ctx context.Context, s student.Student) error {
					return errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStudentStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewStudentsHandler(store, &fakeRosterStore{}, &fakeStudentCleanup{}, discardLogger())

			r := setupRouterAs(http.MethodPost, "/students", &staff, h.CreateStudent)

			req := httptest.NewRequest(http.MethodPost, "/students", bytes.NewBufferString(tt.body))
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

func TestCreateStudentHandler_EnrollsIntoRoster(t *testing.T) {
	staff := user.New("staff@site.test", "x:y", nil)

	ros := roster.New("East Wing", nil)

	var saved *roster.Roster

	rosters := &fakeRosterStore{
		getFn: func(ctx context.Context, id string) (roster.Roster, error) {
			if id != ros.ID {
				return roster.Roster{}, roster.ErrNotFound
			}
			return ros, nil
		},
		saveFn: func(ctx context.Context, r roster.Roster) error {
			saved = &r
			return nil
		},
	}

	h := handlers.NewStudentsHandler(&fakeStudentStore{}, rosters, &fakeStudentCleanup{}, discardLogger())
	r := setupRouterAs(http.MethodPost, "/students", &staff, h.CreateStudent)

	body := `{"firstName": "Ada", "lastName": "Lovelace", "rosterId": "` + ros.ID + `"}`

	req := httptest.NewRequest(http.MethodPost, "/students", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var created student.Student

	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if saved == nil || len(saved.Students) != 1 {
		t.Fatalf("roster enrollment not persisted: %+v", saved)
	}

	m := saved.Students[0]

	// the membership reuses the catalog id and the denormalized full name
	if m.ID != created.ID {
		t.Fatalf("membership id %q, want catalog id %q", m.ID, created.ID)
	}

	if m.Name != "Ada Lovelace" {
		t.Fatalf("membership name %q, want display name", m.Name)
	}
}

func TestCreateStudentHandler_UnknownRosterStillCreates(t *testing.T) {
	staff := user.New("staff@site.test", "x:y", nil)

	h := handlers.NewStudentsHandler(&fakeStudentStore{}, &fakeRosterStore{}, &fakeStudentCleanup{}, discardLogger())
	r := setupRouterAs(http.MethodPost, "/students", &staff, h.CreateStudent)

	body := `{"firstName": "Ada", "lastName": "Lovelace", "rosterId": "missing-id"}`

	req := httptest.NewRequest(http.MethodPost, "/students", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// the catalog write stands even though the enrollment was skipped
	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestListStudentsHandler(t *testing.T) {
	staff := user.New("staff@site.test", "x:y", nil)

	store := &fakeStudentStore{
		listFn: func(ctx context.Context) ([]student.Student, error) {
			return []student.Student{
				student.New("Ada", "Lovelace", ""),
				student.New("Grace", "Hopper", ""),
			}, nil
		},
	}

	h := handlers.NewStudentsHandler(store, &fakeRosterStore{}, &fakeStudentCleanup{}, discardLogger())
	r := setupRouterAs(http.MethodGet, "/students", &staff, h.ListStudents)

	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp []student.Listing

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if len(resp) != 2 {
		t.Fatalf("got %d students, want 2", len(resp))
	}
}

func TestDeleteStudentHandler(t *testing.T) {
	admin := user.New("admin@site.test", "x:y", []string{user.RoleAdmin})

	tests := []struct {
		name           string
		storeSetup     func(*fakeStudentStore)
		wantStatusCode int
		wantCleanup    int
	}{
		{
			name: "success",
			storeSetup: func(f *fakeStudentStore) {
				f.deleteFn = func(ctx context.Context, id string) error {
					return nil
				}
			},
			wantStatusCode: http.StatusNoContent,
			wantCleanup:    1,
		},
		{
			name: "not_found",
			storeSetup: func(f *fakeStudentStore) {
				f.deleteFn = func(ctx context.Context, id string) error {
					return student.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "repo_error",
			storeSetup: func(f *fakeStudentStore) {
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
			store := &fakeStudentStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			cleanup := &fakeStudentCleanup{}

			h := handlers.NewStudentsHandler(store, &fakeRosterStore{}, cleanup, discardLogger())

			r := setupRouterAs(http.MethodDelete, "/students/:id", &admin, h.DeleteStudent)

			req := httptest.NewRequest(http.MethodDelete, "/students/some-id", nil)
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
