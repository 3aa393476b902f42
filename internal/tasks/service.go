package tasks

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Service applies ownership and validation rules over a Repository.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, ownerID int64, title, description string) (*Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleEmpty
	}
	t := &Task{OwnerID: ownerID, Title: title, Description: description}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns page (1-based) of the owner's tasks ordered by id.
func (s *Service) List(ctx context.Context, ownerID int64, page, limit int) (Page, error) {
	if page < 1 || limit < 1 {
		return Page{}, fmt.Errorf("%w: page and limit must be positive, got %d/%d", ErrInvalidPage, page, limit)
	}
	if page-1 > math.MaxInt/limit {
		return Page{}, fmt.Errorf("%w: page %d overflows the offset", ErrInvalidPage, page)
	}
	items, err := s.repo.List(ctx, ownerID, (page-1)*limit, limit)
	if err != nil {
		return Page{}, err
	}
	total, err := s.repo.Count(ctx, ownerID)
	if err != nil {
		return Page{}, err
	}
	if items == nil {
		items = []Task{}
	}
	return Page{Items: items, Page: page, Limit: limit, Total: total}, nil
}

func (s *Service) Update(ctx context.Context, ownerID, id int64, p Patch) (*Task, error) {
	t, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return nil, ErrTitleEmpty
		}
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// DeleteAll removes every task of ownerID.
func (s *Service) DeleteAll(ctx context.Context, ownerID int64) (int64, error) {
	return s.repo.DeleteByOwner(ctx, ownerID)
}

func (s *Service) owned(ctx context.Context, ownerID, id int64) (*Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return t, nil
}
