package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wicart/storefront/internal/logger"
	"github.com/wicart/storefront/internal/services"
	"github.com/wicart/storefront/internal/store"
	"go.uber.org/zap"
)

// OrderHandler serves the caller's orders. Every route requires a token.
type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// OrderRouter registers order routes on the given router.
func OrderRouter(r chi.Router, orderService *services.OrderService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewOrderHandler(orderService)

	r.Use(authMiddleware)
	r.Post("/", handler.PlaceOrder)
	r.Get("/", handler.ListOrders)
	r.Get("/{orderID}", handler.GetOrder)
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, authFailedMessage)
		return
	}

	var req services.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderService.Place(r.Context(), identity.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyOrder),
			errors.Is(err, services.ErrInvalidQuantity),
			errors.Is(err, services.ErrUnknownProduct),
			errors.Is(err, services.ErrOrderTooLarge):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			logger.From(r.Context()).Error("place order failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to place order")
		}
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, authFailedMessage)
		return
	}

	orders, err := h.orderService.List(r.Context(), identity.UserID)
	if err != nil {
		logger.From(r.Context()).Error("list orders failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, authFailedMessage)
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "orderID")), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid orderID")
		return
	}

	order, err := h.orderService.Get(r.Context(), id, identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		logger.From(r.Context()).Error("get order failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}
