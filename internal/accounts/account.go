// Package accounts registers users and checks their passwords.
package accounts

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrEmptyName          = errors.New("name cannot be empty")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("user does not exist")
)

// User is a stored account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Repository persists users. Implementations return ErrEmailInUse on a
// duplicate email and ErrNotFound when no row matches.
type Repository interface {
	Create(ctx context.Context, user *User) (int64, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Delete(ctx context.Context, id int64) error
}
