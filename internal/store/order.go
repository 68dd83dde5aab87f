package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/wicart/storefront/types"
)

// OrderRepository handles persistence for orders.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, user_id, items, shipping_address, city, country, phone, status, total_price, created_at`

func scanOrder(row rowScanner) (types.Order, error) {
	var order types.Order
	var itemsJSON []byte
	if err := row.Scan(
		&order.ID,
		&order.UserID,
		&itemsJSON,
		&order.ShippingAddress,
		&order.City,
		&order.Country,
		&order.Phone,
		&order.Status,
		&order.TotalPrice,
		&order.CreatedAt,
	); err != nil {
		return types.Order{}, err
	}
	_ = json.Unmarshal(itemsJSON, &order.Items)
	return order, nil
}

func (r *OrderRepository) Create(ctx context.Context, order types.Order) (types.Order, error) {
	order.CreatedAt = time.Now()

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return types.Order{}, err
	}

	const query = `
		INSERT INTO orders (user_id, items, shipping_address, city, country, phone, status, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		order.UserID,
		itemsJSON,
		order.ShippingAddress,
		order.City,
		order.Country,
		order.Phone,
		order.Status,
		order.TotalPrice,
		order.CreatedAt,
	).Scan(&order.ID); err != nil {
		return types.Order{}, err
	}
	return order, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]types.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]types.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetForUser returns the order only when it belongs to userID.
func (r *OrderRepository) GetForUser(ctx context.Context, id int64, userID string) (types.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Order{}, ErrNotFound
		}
		return types.Order{}, err
	}
	return order, nil
}
