package types

import "time"

// User represents a storefront customer account.
type User struct {
	// ID is the storage-assigned primary key.
	ID string `json:"id" db:"id"`

	// UserID is the human-readable identifier ("WI" followed by a sequence
	// number). It is assigned once at signup and never changes.
	UserID string `json:"userId" db:"user_id"`

	// Email is unique across users and is the login key.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	Profile

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Profile holds the optional, user-editable part of an account.
type Profile struct {
	Name        string `json:"name" db:"name"`
	PhoneNumber string `json:"phoneNumber" db:"phone_number"`
	DateOfBirth string `json:"dateOfBirth" db:"date_of_birth"`
	Gender      string `json:"gender" db:"gender"`
	ProfileImg  string `json:"profileImg" db:"profile_img"`
	Address     string `json:"address" db:"address"`
	City        string `json:"city" db:"city"`
	State       string `json:"state" db:"state"`
	Country     string `json:"country" db:"country"`
	Pincode     string `json:"pincode" db:"pincode"`
}
