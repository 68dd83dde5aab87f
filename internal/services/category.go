package services

import (
	"context"
	"errors"
	"strings"

	"github.com/wicart/storefront/internal/store"
	"github.com/wicart/storefront/types"
)

var (
	ErrCategoryExists = errors.New("category already exists")
	ErrMissingTitle   = errors.New("title is required")
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]types.Category, error)
	Get(ctx context.Context, id int) (types.Category, error)
	Create(ctx context.Context, category types.Category) (types.Category, error)
	Update(ctx context.Context, category types.Category) (types.Category, error)
	Delete(ctx context.Context, id int) error
}

// CategoryService encapsulates category use-cases.
type CategoryService struct {
	repo CategoryRepository
}

func NewCategoryService(repo CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context) ([]types.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id int) (types.Category, error) {
	return s.repo.Get(ctx, id)
}

func (s *CategoryService) Create(ctx context.Context, title string) (types.Category, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return types.Category{}, ErrMissingTitle
	}
	created, err := s.repo.Create(ctx, types.Category{Title: title})
	if errors.Is(err, store.ErrConflict) {
		return types.Category{}, ErrCategoryExists
	}
	return created, err
}

func (s *CategoryService) Update(ctx context.Context, id int, title string) (types.Category, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return types.Category{}, ErrMissingTitle
	}
	updated, err := s.repo.Update(ctx, types.Category{ID: id, Title: title})
	if errors.Is(err, store.ErrConflict) {
		return types.Category{}, ErrCategoryExists
	}
	return updated, err
}

func (s *CategoryService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
