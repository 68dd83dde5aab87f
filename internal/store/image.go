package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wicart/storefront/types"
)

// ImageRepository handles persistence for image references.
type ImageRepository struct {
	db *sql.DB
}

func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Create(ctx context.Context, image types.Image) (types.Image, error) {
	image.CreatedAt = time.Now()

	const query = `
		INSERT INTO images (title, url, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, image.Title, image.URL, image.CreatedAt).Scan(&image.ID); err != nil {
		return types.Image{}, err
	}
	return image, nil
}

func (r *ImageRepository) List(ctx context.Context) ([]types.Image, error) {
	const query = `SELECT id, title, url, created_at FROM images ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := make([]types.Image, 0)
	for rows.Next() {
		var image types.Image
		if err := rows.Scan(&image.ID, &image.Title, &image.URL, &image.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return images, nil
}

func (r *ImageRepository) Get(ctx context.Context, id int) (types.Image, error) {
	const query = `SELECT id, title, url, created_at FROM images WHERE id = $1`
	var image types.Image
	err := r.db.QueryRowContext(ctx, query, id).Scan(&image.ID, &image.Title, &image.URL, &image.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Image{}, ErrNotFound
		}
		return types.Image{}, err
	}
	return image, nil
}
