package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/wicart/storefront/internal/auth"
	"github.com/wicart/storefront/internal/metrics"
	"github.com/wicart/storefront/internal/rate"
	"github.com/wicart/storefront/internal/services"
	"github.com/wicart/storefront/types"
	"golang.org/x/crypto/bcrypt"
)

type testAPI struct {
	router   chi.Router
	tokens   *auth.Tokens
	users    *memUsers
	products *memProducts
	images   *memImageStore
	metrics  *metrics.Metrics
}

type apiOption func(*apiConfig)

type apiConfig struct {
	limiter rate.Limiter
	noStore bool
}

func withLimiter(l rate.Limiter) apiOption {
	return func(c *apiConfig) { c.limiter = l }
}

func withoutImageStore() apiOption {
	return func(c *apiConfig) { c.noStore = true }
}

func newTestAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()
	var cfg apiConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	tokens, err := auth.NewTokens("handler-test-secret")
	require.NoError(t, err)
	m, err := metrics.New()
	require.NoError(t, err)

	api := &testAPI{
		tokens:   tokens,
		users:    &memUsers{},
		products: &memProducts{},
		images:   &memImageStore{objects: map[string]string{}},
		metrics:  m,
	}
	categories := &memCategories{items: []types.Category{{ID: 1, Title: "Shoes"}}}

	var imageStore services.ImageStore
	if !cfg.noStore {
		imageStore = api.images
	}

	userService := services.NewUserService(api.users, &memCounter{}, auth.NewHasher(bcrypt.MinCost), tokens, nil)
	categoryService := services.NewCategoryService(categories)
	productService := services.NewProductService(api.products, categories, imageStore, nil)
	orderService := services.NewOrderService(&memOrders{}, api.products, nil)

	authMiddleware := RequireAuth(tokens, m)
	r := chi.NewRouter()
	r.NotFound(NotFound)
	r.Route("/user", func(r chi.Router) {
		UserRouter(r, userService, cfg.limiter, m, authMiddleware)
	})
	r.Route("/categories", func(r chi.Router) {
		CategoryRouter(r, categoryService, authMiddleware)
	})
	r.Route("/products", func(r chi.Router) {
		ProductRouter(r, productService, authMiddleware)
	})
	r.Route("/orders", func(r chi.Router) {
		OrderRouter(r, orderService, authMiddleware)
	})
	api.router = r
	return api
}

func (a *testAPI) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) token(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := a.tokens.Issue(auth.Identity{Email: userID + "@x.com", UserID: userID})
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func expiredToken(t *testing.T) string {
	t.Helper()
	past := time.Now().Add(-48 * time.Hour)
	tokens, err := auth.NewTokens("handler-test-secret", auth.WithClock(func() time.Time { return past }))
	require.NoError(t, err)
	token, _, err := tokens.Issue(auth.Identity{Email: "a@x.com", UserID: "WI1"})
	require.NoError(t, err)
	return token
}
