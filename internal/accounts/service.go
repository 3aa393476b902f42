package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/MrEthical07/taskauth/password"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)

// Hasher is satisfied by *password.Argon2.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// Service implements registration, credential checks and self-deletion.
type Service struct {
	repo      Repository
	hasher    Hasher
	dummyHash string
}

// NewService builds a Service. A throwaway hash is computed up front so a
// login for an unknown email costs the same as a wrong password.
func NewService(repo Repository, hasher Hasher) (*Service, error) {
	dummy, err := hasher.Hash("taskauth-unknown-account")
	if err != nil {
		return nil, fmt.Errorf("accounts: dummy hash: %w", err)
	}
	return &Service{repo: repo, hasher: hasher, dummyHash: dummy}, nil
}

// ValidEmail reports whether email has an acceptable shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Register creates an account and returns its id.
func (s *Service) Register(ctx context.Context, name, email, pw string) (int64, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return 0, ErrEmptyName
	}
	if !ValidEmail(email) {
		return 0, ErrInvalidEmail
	}

	hash, err := s.hasher.Hash(pw)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) || errors.Is(err, password.ErrTooLong) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidPassword, err)
		}
		return 0, err
	}

	return s.repo.Create(ctx, &User{Name: name, Email: email, PasswordHash: hash})
}

// Authenticate returns the id of the account matching email and password.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, pw string) (int64, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_, _ = s.hasher.Verify(pw, s.dummyHash)
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}
	if err := s.check(user, pw); err != nil {
		return 0, err
	}
	return user.ID, nil
}

// DeleteSelf removes the account after re-checking its password.
func (s *Service) DeleteSelf(ctx context.Context, id int64, pw string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.check(user, pw); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) check(user *User, pw string) error {
	ok, err := s.hasher.Verify(pw, user.PasswordHash)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("accounts: verify: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}
