package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/wicart/storefront/internal/store"
	"github.com/wicart/storefront/types"
)

type memUsers struct {
	mu       sync.Mutex
	byEmail  map[string]types.User
	creates  int
	createFn func(types.User) error
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]types.User{}}
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byEmail[email]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memUsers) GetByUserID(_ context.Context, userID string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byEmail {
		if user.UserID == userID {
			user.PasswordHash = ""
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) List(context.Context) ([]types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]types.User, 0, len(m.byEmail))
	for _, user := range m.byEmail {
		user.PasswordHash = ""
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users, nil
}

func (m *memUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createFn != nil {
		if err := m.createFn(user); err != nil {
			return types.User{}, err
		}
	}
	if _, ok := m.byEmail[user.Email]; ok {
		return types.User{}, store.ErrConflict
	}
	user.ID = user.UserID
	m.byEmail[user.Email] = user
	return user, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, userID string, profile types.Profile) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, user := range m.byEmail {
		if user.UserID == userID {
			user.Profile = profile
			m.byEmail[email] = user
			user.PasswordHash = ""
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

type memCounter struct {
	mu    sync.Mutex
	seq   map[string]int64
	calls int
	err   error
}

func newMemCounter() *memCounter {
	return &memCounter{seq: map[string]int64{}}
}

func (c *memCounter) Next(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return 0, c.err
	}
	c.seq[key]++
	return c.seq[key], nil
}

type publishedEvent struct {
	channel string
	payload any
}

type recordingEvents struct {
	ch chan publishedEvent
}

func newRecordingEvents() *recordingEvents {
	return &recordingEvents{ch: make(chan publishedEvent, 16)}
}

func (r *recordingEvents) PublishEvent(_ context.Context, channel string, payload any) (string, error) {
	r.ch <- publishedEvent{channel: channel, payload: payload}
	return "id", nil
}

type memCategories struct {
	items map[int]types.Category
	next  int
}

func newMemCategories(titles ...string) *memCategories {
	m := &memCategories{items: map[int]types.Category{}}
	for _, title := range titles {
		_, _ = m.Create(context.Background(), types.Category{Title: title})
	}
	return m
}

func (m *memCategories) List(context.Context) ([]types.Category, error) {
	out := make([]types.Category, 0, len(m.items))
	for _, c := range m.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memCategories) Get(_ context.Context, id int) (types.Category, error) {
	c, ok := m.items[id]
	if !ok {
		return types.Category{}, store.ErrNotFound
	}
	return c, nil
}

func (m *memCategories) Create(_ context.Context, category types.Category) (types.Category, error) {
	for _, c := range m.items {
		if c.Title == category.Title {
			return types.Category{}, store.ErrConflict
		}
	}
	m.next++
	category.ID = m.next
	m.items[category.ID] = category
	return category, nil
}

func (m *memCategories) Update(_ context.Context, category types.Category) (types.Category, error) {
	if _, ok := m.items[category.ID]; !ok {
		return types.Category{}, store.ErrNotFound
	}
	m.items[category.ID] = category
	return category, nil
}

func (m *memCategories) Delete(_ context.Context, id int) error {
	if _, ok := m.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memProducts struct {
	items     map[int]types.Product
	next      int
	updateErr error
}

func newMemProducts() *memProducts {
	return &memProducts{items: map[int]types.Product{}}
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
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memProducts) Featured(ctx context.Context, limit int) ([]types.Product, error) {
	all, _ := m.List(ctx, nil)
	out := []types.Product{}
	for _, p := range all {
		if p.IsFeatured && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) Get(_ context.Context, id int) (types.Product, error) {
	p, ok := m.items[id]
	if !ok {
		return types.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memProducts) Count(context.Context) (int, error) {
	return len(m.items), nil
}

func (m *memProducts) Create(_ context.Context, product types.Product) (types.Product, error) {
	m.next++
	product.ID = m.next
	m.items[product.ID] = product
	return product, nil
}

func (m *memProducts) Update(_ context.Context, product types.Product) (types.Product, error) {
	if m.updateErr != nil {
		return types.Product{}, m.updateErr
	}
	if _, ok := m.items[product.ID]; !ok {
		return types.Product{}, store.ErrNotFound
	}
	m.items[product.ID] = product
	return product, nil
}

func (m *memProducts) Delete(_ context.Context, id int) error {
	if _, ok := m.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

const testImageBase = "http://cdn.test/shop/"

type memImageStore struct {
	objects map[string][]byte
	putErr  error
}

func newMemImageStore() *memImageStore {
	return &memImageStore{objects: map[string][]byte{}}
}

func (m *memImageStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[key] = data
	return testImageBase + key, nil
}

func (m *memImageStore) Delete(_ context.Context, key string) error {
	if _, ok := m.objects[key]; !ok {
		return errors.New("no such object")
	}
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
