package roster

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("roster not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrStaffNotFound      = errors.New("staff not found")
)

// Membership is an embedded per-roster record, not the catalog Student
// identity: adding a catalog student copies name/image into a new entry.
type Membership struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Accounted bool   `json:"accounted"`
}

// NewMembership mints an entry with its own id, unrelated to any catalog
// student id.
func NewMembership(name, imageURL string) Membership {
	return Membership{
		ID:       uuid.NewString(),
		Name:     name,
		ImageURL: imageURL,
	}
}

type Roster struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Students   []Membership `json:"students"`
	AssignedTo *string      `json:"assignedTo"`
	CreatedAt  time.Time    `json:"created_at"`
}

func New(name string, assignedTo *string) Roster {
	return Roster{
		ID:         uuid.NewString(),
		Name:       name,
		Students:   []Membership{},
		AssignedTo: assignedTo,
		CreatedAt:  time.Now().UTC(),
	}
}

// IsAssignedTo reports whether the roster's weak staff reference points at
// the given user id.
func (r Roster) IsAssignedTo(userID string) bool {
	return r.AssignedTo != nil && *r.AssignedTo == userID
}

// FindMembership returns the index of the entry with the given id. Insertion
// order is preserved for listing, so lookups are a linear scan.
func (r Roster) FindMembership(id string) (int, bool) {
	for i, m := range r.Students {
		if m.ID == id {
			return i, true
		}
	}

	return 0, false
}

// RemoveMembership deletes the entry with the given id in place, keeping
// order. Returns false when the id is absent.
func (r *Roster) RemoveMembership(id string) bool {
	i, ok := r.FindMembership(id)

	if !ok {
		return false
	}

	r.Students = append(r.Students[:i], r.Students[i+1:]...)
	return true
}

// ListItem is the roster-list projection with the assignee email denormalized
// at read time (best effort; empty when the referent is gone).
type ListItem struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	AssignedTo      *string   `json:"assignedTo"`
	AssignedToEmail string    `json:"assignedToEmail,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
