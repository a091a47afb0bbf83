package memory

import (
	"context"
	"sync"

	"github.com/relaypoint/rollcall/internal/domain/roster"
)

type RostersRepo struct {
	mu    sync.RWMutex
	items map[string]roster.Roster
}

func NewRostersRepo() *RostersRepo {
	return &RostersRepo{
		items: make(map[string]roster.Roster),
	}
}

// clone detaches the embedded membership slice; callers mutate it between
// Get and Save.
func clone(r roster.Roster) roster.Roster {
	students := make([]roster.Membership, len(r.Students))
	copy(students, r.Students)
	r.Students = students
	return r
}

func (r *RostersRepo) Create(ctx context.Context, ros roster.Roster) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[ros.ID] = clone(ros)
	return nil
}

func (r *RostersRepo) GetByID(ctx context.Context, id string) (roster.Roster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ros, ok := r.items[id]

	if !ok {
		return roster.Roster{}, roster.ErrNotFound
	}

	return clone(ros), nil
}

func (r *RostersRepo) List(ctx context.Context) ([]roster.Roster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]roster.Roster, 0, len(r.items))

	for _, ros := range r.items {
		out = append(out, clone(ros))
	}

	return out, nil
}

func (r *RostersRepo) ListAssignedTo(ctx context.Context, userID string) ([]roster.Roster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]roster.Roster, 0)

	for _, ros := range r.items {
		if ros.IsAssignedTo(userID) {
			out = append(out, clone(ros))
		}
	}

	return out, nil
}

// Save writes the whole document back: the roster row is the update unit,
// last write wins.
func (r *RostersRepo) Save(ctx context.Context, ros roster.Roster) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[ros.ID]; !ok {
		return roster.ErrNotFound
	}

	r.items[ros.ID] = clone(ros)
	return nil
}

func (r *RostersRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return roster.ErrNotFound
	}

	delete(r.items, id)
	return nil
}

// ClearAssignedTo nulls the weak staff reference on every roster pointing at
// the given user id and reports how many it touched.
func (r *RostersRepo) ClearAssignedTo(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0

	for id, ros := range r.items {
		if ros.IsAssignedTo(userID) {
			ros.AssignedTo = nil
			r.items[id] = ros
			n++
		}
	}

	return n, nil
}
