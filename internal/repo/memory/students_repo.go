package memory

import (
	"context"
	"sync"

	"github.com/relaypoint/rollcall/internal/domain/student"
)

type StudentsRepo struct {
	mu    sync.RWMutex
	items map[string]student.Student
}

func NewStudentsRepo() *StudentsRepo {
	return &StudentsRepo{
		items: make(map[string]student.Student),
	}
}

func (r *StudentsRepo) Create(ctx context.Context, s student.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[s.ID] = s
	return nil
}

func (r *StudentsRepo) GetByID(ctx context.Context, id string) (student.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[id]

	if !ok {
		return student.Student{}, student.ErrNotFound
	}

	return s, nil
}

func (r *StudentsRepo) List(ctx context.Context) ([]student.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]student.Student, 0, len(r.items))

	for _, s := range r.items {
		out = append(out, s)
	}

	return out, nil
}

func (r *StudentsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return student.ErrNotFound
	}

	delete(r.items, id)
	return nil
}
