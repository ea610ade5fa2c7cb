package records

import (
	"context"
	"errors"
	"time"

	"campussecurity/internal/model"
)

var (
	ErrNotFound       = errors.New("records: not found")
	ErrInvalid        = errors.New("records: invalid input")
	ErrDuplicateEmail = errors.New("records: email already registered")
)

// Lookups return (nil, nil) when the id is unknown. Add assigns an id when the
// record has none and returns the stored copy.

// StudentRepository is read-only; the roster comes from the seed.
type StudentRepository interface {
	List(ctx context.Context) ([]model.Student, error)
	Get(ctx context.Context, id string) (*model.Student, error)
}

type VisitorRepository interface {
	List(ctx context.Context) ([]model.Visitor, error)
	Get(ctx context.Context, id string) (*model.Visitor, error)
	Add(ctx context.Context, v model.Visitor) (model.Visitor, error)
}

type VehicleRepository interface {
	List(ctx context.Context) ([]model.Vehicle, error)
	Get(ctx context.Context, id string) (*model.Vehicle, error)
	Add(ctx context.Context, v model.Vehicle) (model.Vehicle, error)
}

type LostItemRepository interface {
	List(ctx context.Context) ([]model.LostItem, error)
	Get(ctx context.Context, id string) (*model.LostItem, error)
	Add(ctx context.Context, item model.LostItem) (model.LostItem, error)
}

// EventRepository is append-only.
type EventRepository interface {
	List(ctx context.Context) ([]model.SecurityEvent, error)
	Get(ctx context.Context, id string) (*model.SecurityEvent, error)
	Add(ctx context.Context, e model.SecurityEvent) (model.SecurityEvent, error)
}

// UserRepository is the only table with edit and delete. Add and Update
// return ErrDuplicateEmail when the email belongs to another user. Update
// never changes LastLogin; StampLogin is the only writer of that field.
type UserRepository interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Add(ctx context.Context, u model.User) (model.User, error)
	Update(ctx context.Context, u model.User) (model.User, error)
	StampLogin(ctx context.Context, id string, at time.Time) (model.User, error)
	Delete(ctx context.Context, id string) error
}

// Repositories holds one repository per entity kind.
type Repositories struct {
	Students  StudentRepository
	Visitors  VisitorRepository
	Vehicles  VehicleRepository
	LostItems LostItemRepository
	Events    EventRepository
	Users     UserRepository
}
