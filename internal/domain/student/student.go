package student

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("student not found")

// Student is the catalog entity. Roster memberships carry their own ids;
// see the roster package.
type Student struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func New(firstName, lastName, imageURL string) Student {
	return Student{
		ID:        uuid.NewString(),
		FirstName: firstName,
		LastName:  lastName,
		ImageURL:  imageURL,
		CreatedAt: time.Now().UTC(),
	}
}

// DisplayName is the denormalized string copied into roster memberships.
func (s Student) DisplayName() string {
	return s.FirstName + " " + s.LastName
}

// Listing is the catalog list projection.
type Listing struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

func (s Student) Listing() Listing {
	return Listing{ID: s.ID, FirstName: s.FirstName, LastName: s.LastName, ImageURL: s.ImageURL}
}
