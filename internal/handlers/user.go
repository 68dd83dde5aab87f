package handlers

import (
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wicart/storefront/internal/logger"
	"github.com/wicart/storefront/internal/metrics"
	"github.com/wicart/storefront/internal/rate"
	"github.com/wicart/storefront/internal/services"
	"github.com/wicart/storefront/internal/store"
	"github.com/wicart/storefront/types"
	"go.uber.org/zap"
)

// UserHandler serves signup, login and profile endpoints.
type UserHandler struct {
	userService *services.UserService
	limiter     rate.Limiter
	metrics     *metrics.Metrics
}

// NewUserHandler constructs a UserHandler. limiter may be nil to disable login
// throttling.
func NewUserHandler(userService *services.UserService, limiter rate.Limiter, m *metrics.Metrics) *UserHandler {
	return &UserHandler{
		userService: userService,
		limiter:     limiter,
		metrics:     m,
	}
}

// UserRouter registers user routes on the given router.
func UserRouter(
	r chi.Router,
	userService *services.UserService,
	limiter rate.Limiter,
	m *metrics.Metrics,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewUserHandler(userService, limiter, m)

	r.Post("/signup", handler.Signup)
	r.Post("/login", handler.Login)
	r.Get("/all", handler.ListUsers)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/me", handler.Me)
		r.Put("/me", handler.UpdateMe)
	})
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupResponse struct {
	NewUser types.User `json:"new_user"`
}

func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.metrics.Signup("invalid")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingCredentials):
			h.metrics.Signup("invalid")
			writeError(w, http.StatusBadRequest, "email and password are required")
		case errors.Is(err, services.ErrEmailTaken):
			h.metrics.Signup("conflict")
			writeError(w, http.StatusConflict, "Email not available")
		default:
			h.metrics.Signup("error")
			logger.From(r.Context()).Error("signup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	h.metrics.Signup("ok")
	writeJSON(w, http.StatusOK, SignupResponse{NewUser: user})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.allowLogin(w, r) {
		return
	}

	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingCredentials):
			writeError(w, http.StatusBadRequest, "email and password are required")
		case errors.Is(err, services.ErrInvalidCredentials):
			h.metrics.Login("invalid_credentials")
			writeError(w, http.StatusUnauthorized, authFailedMessage)
		default:
			h.metrics.Login("error")
			logger.From(r.Context()).Error("login failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to authenticate")
		}
		return
	}

	h.metrics.Login("ok")
	writeJSON(w, http.StatusOK, result)
}

// allowLogin applies the per-client login limit. Limiter failures let the
// request through.
func (h *UserHandler) allowLogin(w http.ResponseWriter, r *http.Request) bool {
	if h.limiter == nil {
		return true
	}
	res, err := h.limiter.Allow(r.Context(), "login:"+clientIP(r))
	if err != nil {
		logger.From(r.Context()).Warn("login rate limiter unavailable", zap.Error(err))
		return true
	}
	if res.Allowed {
		return true
	}
	h.metrics.Login("rate_limited")
	seconds := int(res.RetryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	writeError(w, http.StatusTooManyRequests, "too many login attempts")
	return false
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		logger.From(r.Context()).Error("list users failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, authFailedMessage)
		return
	}

	user, err := h.userService.GetByUserID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, authFailedMessage)
			return
		}
		logger.From(r.Context()).Error("load user failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, authFailedMessage)
		return
	}

	var profile types.Profile
	if err := decodeJSON(w, r, &profile); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), identity.UserID, profile)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, authFailedMessage)
			return
		}
		logger.From(r.Context()).Error("update profile failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
