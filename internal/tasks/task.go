// Package tasks stores to-do items scoped to the account that created them.
package tasks

import (
	"context"
	"errors"
)

var (
	ErrTitleEmpty = errors.New("title cannot be empty")
	ErrNotFound   = errors.New("task not found")
	ErrForbidden  = errors.New("forbidden")
	// ErrInvalidPage is returned by List for a page or limit that is not
	// positive or whose offset does not fit an int.
	ErrInvalidPage = errors.New("invalid page")
)

type Task struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"-"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Patch holds optional field updates. Nil leaves the field unchanged.
type Patch struct {
	Title       *string
	Description *string
}

// Page is one slice of an owner's tasks plus the owner's total count.
type Page struct {
	Items []Task
	Page  int
	Limit int
	Total int64
}

// Repository persists tasks. Get returns ErrNotFound for a missing id
// regardless of owner; ownership is checked by Service.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id int64) (*Task, error)
	List(ctx context.Context, ownerID int64, offset, limit int) ([]Task, error)
	Count(ctx context.Context, ownerID int64) (int64, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id int64) error
	DeleteByOwner(ctx context.Context, ownerID int64) (int64, error)
}
