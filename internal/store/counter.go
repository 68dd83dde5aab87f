package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CounterRepository allocates values from named, monotonically increasing
// sequences kept in the counters table.
type CounterRepository struct {
	db *sql.DB
}

func NewCounterRepository(db *sql.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// Next increments the named counter by one and returns the new value. The
// counter row is created on first use. The read and the increment happen in
// a single statement, so concurrent callers always receive distinct values.
func (r *CounterRepository) Next(ctx context.Context, key string) (int64, error) {
	const query = `
		INSERT INTO counters (key, seq)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET seq = counters.seq + 1
		RETURNING seq`
	var seq int64
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&seq); err != nil {
		return 0, fmt.Errorf("allocate %s: %w", key, err)
	}
	return seq, nil
}
