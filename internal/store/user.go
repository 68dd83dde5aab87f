package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wicart/storefront/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, user_id, email, password_hash, name, phone_number, date_of_birth,
		       gender, profile_img, address, city, state, country, pincode, created_at, updated_at`

// Everything except password_hash, for read paths that leave the service.
const publicUserColumns = `id, user_id, email, name, phone_number, date_of_birth,
		       gender, profile_img, address, city, state, country, pincode, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, withHash bool) (types.User, error) {
	var user types.User
	dest := []any{&user.ID, &user.UserID, &user.Email}
	if withHash {
		dest = append(dest, &user.PasswordHash)
	}
	dest = append(dest,
		&user.Name,
		&user.PhoneNumber,
		&user.DateOfBirth,
		&user.Gender,
		&user.ProfileImg,
		&user.Address,
		&user.City,
		&user.State,
		&user.Country,
		&user.Pincode,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	err := row.Scan(dest...)
	return user, err
}

// GetByEmail returns the user with the given email, including its password
// hash.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// GetByUserID looks a user up by its human-readable identifier. The password
// hash is not loaded.
func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (types.User, error) {
	query := `SELECT ` + publicUserColumns + ` FROM users WHERE user_id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// List returns every user ordered by creation. The password hash is never
// selected.
func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	query := `SELECT ` + publicUserColumns + ` FROM users ORDER BY created_at, user_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows, false)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// Create inserts a user. A duplicate email or user ID yields ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (
			user_id, email, password_hash, name, phone_number, date_of_birth,
			gender, profile_img, address, city, state, country, pincode,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.UserID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.PhoneNumber,
		user.DateOfBirth,
		user.Gender,
		user.ProfileImg,
		user.Address,
		user.City,
		user.State,
		user.Country,
		user.Pincode,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrConflict
		}
		return types.User{}, err
	}
	return user, nil
}

// UpdateProfile replaces the profile fields of the user and returns the
// stored record without its password hash.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID string, profile types.Profile) (types.User, error) {
	query := `
		UPDATE users
		SET name = $1,
			phone_number = $2,
			date_of_birth = $3,
			gender = $4,
			profile_img = $5,
			address = $6,
			city = $7,
			state = $8,
			country = $9,
			pincode = $10,
			updated_at = $11
		WHERE user_id = $12
		RETURNING ` + publicUserColumns
	user, err := scanUser(r.db.QueryRowContext(
		ctx,
		query,
		profile.Name,
		profile.PhoneNumber,
		profile.DateOfBirth,
		profile.Gender,
		profile.ProfileImg,
		profile.Address,
		profile.City,
		profile.State,
		profile.Country,
		profile.Pincode,
		time.Now(),
		userID,
	), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}
