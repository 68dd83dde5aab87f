package types

import "time"

// Image is a titled reference to an externally hosted picture.
type Image struct {
	ID        int       `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	URL       string    `json:"url" db:"url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
