package types

import "time"

// Product is a catalogue item.
type Product struct {
	// ID is the unique identifier of the product.
	ID int `json:"id" db:"id"`

	Name            string `json:"name" db:"name"`
	Description     string `json:"description" db:"description"`
	RichDescription string `json:"richDescription" db:"rich_description"`

	// Image is the public URL of the main product image.
	Image string `json:"image" db:"image"`

	// Images are the public URLs of the gallery images.
	Images []string `json:"images" db:"images"`

	Brand string `json:"brand" db:"brand"`

	// Price is expressed in the smallest currency unit.
	Price int64 `json:"price" db:"price"`

	CategoryID   int       `json:"categoryId" db:"category_id"`
	Category     *Category `json:"category,omitempty" db:"-"`
	CountInStock int       `json:"countInStock" db:"count_in_stock"`
	Rating       float64   `json:"rating" db:"rating"`
	NumReviews   int       `json:"numReviews" db:"num_reviews"`
	IsFeatured   bool      `json:"isFeatured" db:"is_featured"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
