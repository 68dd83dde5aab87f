package handlers

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/wicart/storefront/internal/store"
	"github.com/wicart/storefront/types"
)

type memUsers struct {
	mu    sync.Mutex
	users []types.User
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) GetByUserID(_ context.Context, userID string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.UserID == userID {
			u.PasswordHash = ""
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) List(context.Context) ([]types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.User, 0, len(m.users))
	for _, u := range m.users {
		u.PasswordHash = ""
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	user.ID = "id-" + user.UserID
	m.users = append(m.users, user)
	return user, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, userID string, profile types.Profile) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, u := range m.users {
		if u.UserID == userID {
			m.users[i].Profile = profile
			out := m.users[i]
			out.PasswordHash = ""
			return out, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

type memCounter struct {
	mu  sync.Mutex
	seq int64
}

func (c *memCounter) Next(context.Context, string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq, nil
}

type memCategories struct {
	items []types.Category
}

func (m *memCategories) List(context.Context) ([]types.Category, error) {
	return append([]types.Category{}, m.items...), nil
}

func (m *memCategories) Get(_ context.Context, id int) (types.Category, error) {
	for _, c := range m.items {
		if c.ID == id {
			return c, nil
		}
	}
	return types.Category{}, store.ErrNotFound
}

func (m *memCategories) Create(_ context.Context, category types.Category) (types.Category, error) {
	for _, c := range m.items {
		if c.Title == category.Title {
			return types.Category{}, store.ErrConflict
		}
	}
	category.ID = len(m.items) + 1
	m.items = append(m.items, category)
	return category, nil
}

func (m *memCategories) Update(_ context.Context, category types.Category) (types.Category, error) {
	for i, c := range m.items {
		if c.ID == category.ID {
			m.items[i] = category
			return category, nil
		}
	}
	return types.Category{}, store.ErrNotFound
}

func (m *memCategories) Delete(_ context.Context, id int) error {
	for i, c := range m.items {
		if c.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type memProducts struct {
	items []types.Product
}

func (m *memProducts) List(_ context.Context, categoryIDs []int64) ([]types.Product, error) {
	out := []types.Product{}
	for _, p := range m.items {
		if len(categoryIDs) == 0 {
			out = append(out, p)
			continue
		}
		for _, id := range categoryIDs {
			if int64(p.CategoryID) == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (m *memProducts) Featured(_ context.Context, limit int) ([]types.Product, error) {
	out := []types.Product{}
	for _, p := range m.items {
		if p.IsFeatured && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) Get(_ context.Context, id int) (types.Product, error) {
	for _, p := range m.items {
		if p.ID == id {
			return p, nil
		}
	}
	return types.Product{}, store.ErrNotFound
}

func (m *memProducts) Count(context.Context) (int, error) {
	return len(m.items), nil
}

func (m *memProducts) Create(_ context.Context, product types.Product) (types.Product, error) {
	product.ID = len(m.items) + 1
	m.items = append(m.items, product)
	return product, nil
}

func (m *memProducts) Update(_ context.Context, product types.Product) (types.Product, error) {
	for i, p := range m.items {
		if p.ID == product.ID {
			m.items[i] = product
			return product, nil
		}
	}
	return types.Product{}, store.ErrNotFound
}

func (m *memProducts) Delete(_ context.Context, id int) error {
	for i, p := range m.items {
		if p.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

const testImageBase = "http://cdn.test/shop/"

type memImageStore struct {
	objects map[string]string
}

func (m *memImageStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	m.objects[key] = contentType
	return testImageBase + key, nil
}

func (m *memImageStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memImageStore) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, testImageBase) {
		return "", false
	}
	return strings.TrimPrefix(url, testImageBase), true
}

type memOrders struct {
	items []types.Order
}

func (m *memOrders) Create(_ context.Context, order types.Order) (types.Order, error) {
	order.ID = int64(len(m.items) + 1)
	m.items = append(m.items, order)
	return order, nil
}

func (m *memOrders) ListByUser(_ context.Context, userID string) ([]types.Order, error) {
	out := []types.Order{}
	for _, o := range m.items {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) GetForUser(_ context.Context, id int64, userID string) (types.Order, error) {
	for _, o := range m.items {
		if o.ID == id && o.UserID == userID {
			return o, nil
		}
	}
	return types.Order{}, store.ErrNotFound
}
