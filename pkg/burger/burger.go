package burger

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/mo"
)

// Burger is the single resource served by the API.
type Burger struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`

	// Version is bumped by every update. It travels as the ETag header, not in the body.
	Version int64 `json:"-"`
}

// Repository defines behavior for persisting burgers.
//
// Absence is not an error for GetByID and Delete: both report it with mo.None.
// Update reports a missing row with ErrNotFound and never creates one.
type Repository interface {
	ListAll(ctx context.Context) ([]Burger, error)
	GetByID(ctx context.Context, id int64) (mo.Option[Burger], error)
	Insert(ctx context.Context, b Burger) (Burger, error)
	Update(ctx context.Context, b Burger) (Burger, error)
	Delete(ctx context.Context, id int64) (mo.Option[Burger], error)
}

// Pinger is implemented by repositories backed by a remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	// ErrNotFound indicates the burger to update does not exist.
	ErrNotFound = errors.New("burger not found")

	// ErrConflict indicates the stored burger changed or vanished between read and write.
	ErrConflict = errors.New("burger was modified concurrently")

	// ErrIDMismatch indicates the id in the path differs from the id in the body.
	ErrIDMismatch = errors.New("path id does not match body id")
)

// CheckID validates that b is addressed by pathID.
func CheckID(pathID int64, b Burger) error {
	if b.ID != pathID {
		return fmt.Errorf("%w: path %d, body %d", ErrIDMismatch, pathID, b.ID)
	}
	return nil
}
