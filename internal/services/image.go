package services

import (
	"context"
	"errors"
	"strings"

	"github.com/wicart/storefront/types"
)

var ErrMissingImageFields = errors.New("title and url are required")

// ImageRepository defines persistence operations for image records.
type ImageRepository interface {
	Create(ctx context.Context, image types.Image) (types.Image, error)
	List(ctx context.Context) ([]types.Image, error)
	Get(ctx context.Context, id int) (types.Image, error)
}

// ImageService records images hosted elsewhere by title and URL.
type ImageService struct {
	repo ImageRepository
}

func NewImageService(repo ImageRepository) *ImageService {
	return &ImageService{repo: repo}
}

func (s *ImageService) Create(ctx context.Context, title, url string) (types.Image, error) {
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)
	if title == "" || url == "" {
		return types.Image{}, ErrMissingImageFields
	}
	return s.repo.Create(ctx, types.Image{Title: title, URL: url})
}

func (s *ImageService) List(ctx context.Context) ([]types.Image, error) {
	return s.repo.List(ctx)
}

func (s *ImageService) Get(ctx context.Context, id int) (types.Image, error) {
	return s.repo.Get(ctx, id)
}
