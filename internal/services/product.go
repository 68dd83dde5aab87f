package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/wicart/storefront/internal/logger"
	"github.com/wicart/storefront/internal/mq"
	"github.com/wicart/storefront/internal/store"
	"github.com/wicart/storefront/types"
	"go.uber.org/zap"
)

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrMissingName     = errors.New("name is required")
)

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	List(ctx context.Context, categoryIDs []int64) ([]types.Product, error)
	Featured(ctx context.Context, limit int) ([]types.Product, error)
	Get(ctx context.Context, id int) (types.Product, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, product types.Product) (types.Product, error)
	Update(ctx context.Context, product types.Product) (types.Product, error)
	Delete(ctx context.Context, id int) error
}

// ProductFields carries client-supplied product attributes. Nil fields are
// left unchanged on update.
type ProductFields struct {
	Name            *string
	Description     *string
	RichDescription *string
	Brand           *string
	Price           *int64
	CategoryID      *int
	CountInStock    *int
	Rating          *float64
	NumReviews      *int
	IsFeatured      *bool
}

func (f ProductFields) apply(p *types.Product) {
	if f.Name != nil {
		p.Name = *f.Name
	}
	if f.Description != nil {
		p.Description = *f.Description
	}
	if f.RichDescription != nil {
		p.RichDescription = *f.RichDescription
	}
	if f.Brand != nil {
		p.Brand = *f.Brand
	}
	if f.Price != nil {
		p.Price = *f.Price
	}
	if f.CategoryID != nil {
		p.CategoryID = *f.CategoryID
	}
	if f.CountInStock != nil {
		p.CountInStock = *f.CountInStock
	}
	if f.Rating != nil {
		p.Rating = *f.Rating
	}
	if f.NumReviews != nil {
		p.NumReviews = *f.NumReviews
	}
	if f.IsFeatured != nil {
		p.IsFeatured = *f.IsFeatured
	}
}

// ProductService encapsulates catalogue use-cases.
type ProductService struct {
	repo       ProductRepository
	categories CategoryRepository
	images     ImageStore
	events     EventPublisher
}

// NewProductService wires the product use-cases. images may be nil, in which
// case every request that carries a file fails with ErrUploadsDisabled.
func NewProductService(repo ProductRepository, categories CategoryRepository, images ImageStore, events EventPublisher) *ProductService {
	return &ProductService{
		repo:       repo,
		categories: categories,
		images:     images,
		events:     events,
	}
}

func (s *ProductService) List(ctx context.Context, categoryIDs []int64) ([]types.Product, error) {
	return s.repo.List(ctx, categoryIDs)
}

func (s *ProductService) Get(ctx context.Context, id int) (types.Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *ProductService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *ProductService) Featured(ctx context.Context, count int) ([]types.Product, error) {
	if count <= 0 {
		return []types.Product{}, nil
	}
	if count > 100 {
		count = 100
	}
	return s.repo.Featured(ctx, count)
}

// Create stores a product and its main image.
func (s *ProductService) Create(ctx context.Context, fields ProductFields, image *Upload) (types.Product, error) {
	var product types.Product
	fields.apply(&product)
	if product.Name == "" {
		return types.Product{}, ErrMissingName
	}

	category, err := s.category(ctx, fields.CategoryID)
	if err != nil {
		return types.Product{}, err
	}
	if image == nil {
		return types.Product{}, ErrMissingImage
	}

	product.Image, err = putUpload(ctx, s.images, *image)
	if err != nil {
		return types.Product{}, err
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		s.cleanup(ctx, product.Image)
		return types.Product{}, fmt.Errorf("create product: %w", err)
	}
	created.Category = &category

	publishEvent(ctx, s.events, mq.ChannelProductCreated, map[string]any{
		"id":         created.ID,
		"name":       created.Name,
		"categoryId": created.CategoryID,
		"price":      created.Price,
	})
	return created, nil
}

// Update applies fields to an existing product and optionally replaces its
// main image. The previous image object is removed once the row points at the
// new one.
func (s *ProductService) Update(ctx context.Context, id int, fields ProductFields, image *Upload) (types.Product, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Product{}, err
	}

	if fields.CategoryID != nil {
		category, err := s.category(ctx, fields.CategoryID)
		if err != nil {
			return types.Product{}, err
		}
		product.Category = &category
	}
	fields.apply(&product)
	if product.Name == "" {
		return types.Product{}, ErrMissingName
	}

	previousImage := product.Image
	if image != nil {
		product.Image, err = putUpload(ctx, s.images, *image)
		if err != nil {
			return types.Product{}, err
		}
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		if image != nil {
			s.cleanup(ctx, product.Image)
		}
		return types.Product{}, err
	}
	if image != nil && previousImage != "" {
		s.cleanup(ctx, previousImage)
	}
	return updated, nil
}

// UpdateGallery replaces the gallery images of a product.
func (s *ProductService) UpdateGallery(ctx context.Context, id int, uploads []Upload) (types.Product, error) {
	if len(uploads) == 0 {
		return types.Product{}, ErrMissingImage
	}
	if len(uploads) > MaxGalleryImages {
		return types.Product{}, ErrTooManyImages
	}

	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Product{}, err
	}

	urls := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		url, err := putUpload(ctx, s.images, upload)
		if err != nil {
			s.cleanup(ctx, urls...)
			return types.Product{}, err
		}
		urls = append(urls, url)
	}

	previous := product.Images
	product.Images = urls
	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		s.cleanup(ctx, urls...)
		return types.Product{}, err
	}
	s.cleanup(ctx, previous...)
	return updated, nil
}

// Delete removes a product and then its stored images.
func (s *ProductService) Delete(ctx context.Context, id int) error {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cleanup(ctx, append([]string{product.Image}, product.Images...)...)
	return nil
}

func (s *ProductService) category(ctx context.Context, id *int) (types.Category, error) {
	if id == nil {
		return types.Category{}, ErrInvalidCategory
	}
	category, err := s.categories.Get(ctx, *id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Category{}, ErrInvalidCategory
		}
		return types.Category{}, fmt.Errorf("lookup category: %w", err)
	}
	return category, nil
}

func (s *ProductService) cleanup(ctx context.Context, urls ...string) {
	for _, err := range removeUploads(ctx, s.images, urls...) {
		logger.From(ctx).Warn("image cleanup failed", zap.Error(err))
	}
}
