package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/wicart/storefront/types"
)

// ProductRepository handles persistence for products.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productSelect = `
		SELECT p.id, p.name, p.description, p.rich_description, p.image, p.images, p.brand,
		       p.price, p.category_id, p.count_in_stock, p.rating, p.num_reviews, p.is_featured,
		       p.created_at, p.updated_at,
		       c.id, c.title, c.created_at, c.updated_at
		FROM products p
		JOIN categories c ON c.id = p.category_id`

func scanProduct(row rowScanner) (types.Product, error) {
	var product types.Product
	var category types.Category
	var imagesJSON []byte
	if err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.RichDescription,
		&product.Image,
		&imagesJSON,
		&product.Brand,
		&product.Price,
		&product.CategoryID,
		&product.CountInStock,
		&product.Rating,
		&product.NumReviews,
		&product.IsFeatured,
		&product.CreatedAt,
		&product.UpdatedAt,
		&category.ID,
		&category.Title,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return types.Product{}, err
	}
	_ = json.Unmarshal(imagesJSON, &product.Images)
	if product.Images == nil {
		product.Images = []string{}
	}
	product.Category = &category
	return product, nil
}

func collectProducts(rows *sql.Rows) ([]types.Product, error) {
	defer rows.Close()

	products := make([]types.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// List returns products with their category. When categoryIDs is non-empty
// only products in those categories are returned.
func (r *ProductRepository) List(ctx context.Context, categoryIDs []int64) ([]types.Product, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if len(categoryIDs) == 0 {
		rows, err = r.db.QueryContext(ctx, productSelect+` ORDER BY p.id`)
	} else {
		rows, err = r.db.QueryContext(ctx, productSelect+` WHERE p.category_id = ANY($1) ORDER BY p.id`, pq.Array(categoryIDs))
	}
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// Featured returns up to limit featured products.
func (r *ProductRepository) Featured(ctx context.Context, limit int) ([]types.Product, error) {
	rows, err := r.db.QueryContext(ctx, productSelect+` WHERE p.is_featured ORDER BY p.id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *ProductRepository) Get(ctx context.Context, id int) (types.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Product{}, ErrNotFound
		}
		return types.Product{}, err
	}
	return product, nil
}

func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(1) FROM products`
	var total int
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *ProductRepository) Create(ctx context.Context, product types.Product) (types.Product, error) {
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	if product.Images == nil {
		product.Images = []string{}
	}

	imagesJSON, err := json.Marshal(product.Images)
	if err != nil {
		return types.Product{}, err
	}

	const query = `
		INSERT INTO products (
			name, description, rich_description, image, images, brand, price, category_id,
			count_in_stock, rating, num_reviews, is_featured, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.RichDescription,
		product.Image,
		imagesJSON,
		product.Brand,
		product.Price,
		product.CategoryID,
		product.CountInStock,
		product.Rating,
		product.NumReviews,
		product.IsFeatured,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID); err != nil {
		return types.Product{}, err
	}
	return product, nil
}

func (r *ProductRepository) Update(ctx context.Context, product types.Product) (types.Product, error) {
	product.UpdatedAt = time.Now()
	if product.Images == nil {
		product.Images = []string{}
	}

	imagesJSON, err := json.Marshal(product.Images)
	if err != nil {
		return types.Product{}, err
	}

	const query = `
		UPDATE products
		SET name = $1,
			description = $2,
			rich_description = $3,
			image = $4,
			images = $5,
			brand = $6,
			price = $7,
			category_id = $8,
			count_in_stock = $9,
			rating = $10,
			num_reviews = $11,
			is_featured = $12,
			updated_at = $13
		WHERE id = $14`
	result, err := r.db.ExecContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.RichDescription,
		product.Image,
		imagesJSON,
		product.Brand,
		product.Price,
		product.CategoryID,
		product.CountInStock,
		product.Rating,
		product.NumReviews,
		product.IsFeatured,
		product.UpdatedAt,
		product.ID,
	)
	if err != nil {
		return types.Product{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Product{}, err
	}
	if affected == 0 {
		return types.Product{}, ErrNotFound
	}
	return product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM products WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
