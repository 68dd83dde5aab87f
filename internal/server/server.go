package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	rdb "github.com/redis/go-redis/v9"
	"github.com/wicart/storefront/config"
	"github.com/wicart/storefront/internal/auth"
	"github.com/wicart/storefront/internal/db"
	"github.com/wicart/storefront/internal/handlers"
	"github.com/wicart/storefront/internal/logger"
	"github.com/wicart/storefront/internal/metrics"
	"github.com/wicart/storefront/internal/mq"
	"github.com/wicart/storefront/internal/rate"
	"github.com/wicart/storefront/internal/services"
	"github.com/wicart/storefront/internal/storage"
	"github.com/wicart/storefront/internal/store"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     chi.Router
	db         *sql.DB
	events     *mq.MQ
	redis      *rdb.Client
}

// Dependencies are the collaborators mounted by NewRouter.
type Dependencies struct {
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Verifier   handlers.TokenVerifier
	Limiter    rate.Limiter
	DB         handlers.Pinger
	Users      *services.UserService
	Categories *services.CategoryService
	Products   *services.ProductService
	Images     *services.ImageService
	Orders     *services.OrderService
}

// New opens every backing service named in cfg and builds the router. A
// missing JWT secret is an error.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logger.Named("server")

	tokens, err := auth.NewTokens(cfg.JWTSecret, auth.WithTTL(cfg.TokenTTL))
	if err != nil {
		return nil, errors.New("JWT_SECRET is required")
	}

	m, err := metrics.New()
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	srv := &Server{db: dbConn}

	var imageStore services.ImageStore
	objects, err := storage.New(ctx, cfg.Storage, cfg.PublicBaseURL)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		log.Info("object storage disabled, image uploads will be rejected")
	case err != nil:
		srv.Shutdown()
		return nil, fmt.Errorf("init storage: %w", err)
	default:
		if err := objects.EnsureBucket(ctx); err != nil {
			srv.Shutdown()
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
		imageStore = objects
	}

	srv.events, err = mq.Open(ctx, cfg.MQ)
	if err != nil {
		srv.Shutdown()
		return nil, fmt.Errorf("init mq: %w", err)
	}

	limiter := newLoginLimiter(cfg.RateLimit, srv)

	userRepo := store.NewUserRepository(dbConn)
	counterRepo := store.NewCounterRepository(dbConn)
	categoryRepo := store.NewCategoryRepository(dbConn)
	productRepo := store.NewProductRepository(dbConn)
	imageRepo := store.NewImageRepository(dbConn)
	orderRepo := store.NewOrderRepository(dbConn)

	srv.router = NewRouter(Dependencies{
		Logger:     logger.L(),
		Metrics:    m,
		Verifier:   tokens,
		Limiter:    limiter,
		DB:         dbConn,
		Users:      services.NewUserService(userRepo, counterRepo, auth.NewHasher(cfg.BcryptCost), tokens, srv.events),
		Categories: services.NewCategoryService(categoryRepo),
		Products:   services.NewProductService(productRepo, categoryRepo, imageStore, srv.events),
		Images:     services.NewImageService(imageRepo),
		Orders:     services.NewOrderService(orderRepo, productRepo, srv.events),
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv, nil
}

// newLoginLimiter returns nil when login throttling is off (a non-positive
// limit), a Redis limiter when REDIS_ADDR is set and a memory limiter
// otherwise.
func newLoginLimiter(cfg config.RateLimitConfig, srv *Server) rate.Limiter {
	if cfg.Max <= 0 {
		return nil
	}
	if cfg.RedisAddr != "" {
		srv.redis = rdb.NewClient(&rdb.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		return rate.NewRedisLimiter(srv.redis, "rl:", cfg.Max, cfg.Window)
	}
	return rate.NewMemoryLimiter(cfg.Max, cfg.Window)
}

// NewRouter mounts every route on a fresh chi router.
func NewRouter(deps Dependencies) chi.Router {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	authMiddleware := handlers.RequireAuth(deps.Verifier, deps.Metrics)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		handlers.RequestLogger(log),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}),
		middleware.Timeout(60*time.Second),
	)
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware)
		router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	router.NotFound(handlers.NotFound)
	router.Get("/healthz", handlers.Healthz(deps.DB))
	router.Route("/user", func(r chi.Router) {
		handlers.UserRouter(r, deps.Users, deps.Limiter, deps.Metrics, authMiddleware)
	})
	router.Route("/categories", func(r chi.Router) {
		handlers.CategoryRouter(r, deps.Categories, authMiddleware)
	})
	router.Route("/products", func(r chi.Router) {
		handlers.ProductRouter(r, deps.Products, authMiddleware)
	})
	router.Route("/img", func(r chi.Router) {
		handlers.ImageRouter(r, deps.Images, authMiddleware)
	})
	router.Route("/orders", func(r chi.Router) {
		handlers.OrderRouter(r, deps.Orders, authMiddleware)
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() chi.Router {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases backing connections.
func (s *Server) Shutdown() error {
	var errs []error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		errs = append(errs, s.httpServer.Shutdown(ctx))
	}
	if s.events != nil {
		errs = append(errs, s.events.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}
