package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wicart/storefront/internal/logger"
	"github.com/wicart/storefront/internal/services"
	"github.com/wicart/storefront/internal/store"
	"github.com/wicart/storefront/types"
	"go.uber.org/zap"
)

// CategoryHandler provides HTTP handlers for categories.
type CategoryHandler struct {
	categoryService *services.CategoryService
}

func NewCategoryHandler(categoryService *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CategoryRouter registers category routes on the given router. Reads are
// public; mutations go through authMiddleware.
func CategoryRouter(r chi.Router, categoryService *services.CategoryService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewCategoryHandler(categoryService)

	r.Get("/", handler.ListCategories)
	r.Get("/{categoryID}", handler.GetCategory)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", handler.CreateCategory)
		r.Put("/{categoryID}", handler.UpdateCategory)
		r.Delete("/{categoryID}", handler.DeleteCategory)
	})
}

type CategoryRequest struct {
	Title string `json:"title"`
}

type CategoryResponse struct {
	Success  bool           `json:"success"`
	Category types.Category `json:"category"`
}

type CategoryListResponse struct {
	Success    bool             `json:"success"`
	Categories []types.Category `json:"categories"`
}

func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		logger.From(r.Context()).Error("list categories failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, CategoryListResponse{Success: true, Categories: categories})
}

func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category, err := h.categoryService.Get(r.Context(), id)
	if err != nil {
		h.writeCategoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CategoryResponse{Success: true, Category: category})
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category, err := h.categoryService.Create(r.Context(), req.Title)
	if err != nil {
		h.writeCategoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CategoryResponse{Success: true, Category: category})
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category, err := h.categoryService.Update(r.Context(), id, req.Title)
	if err != nil {
		h.writeCategoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CategoryResponse{Success: true, Category: category})
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.categoryService.Delete(r.Context(), id); err != nil {
		h.writeCategoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "the category is deleted!"})
}

func (h *CategoryHandler) writeCategoryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, services.ErrCategoryExists):
		writeError(w, http.StatusBadRequest, "Category already exists!")
	case errors.Is(err, store.ErrInUse):
		writeError(w, http.StatusBadRequest, "category has products")
	case errors.Is(err, services.ErrMissingTitle):
		writeError(w, http.StatusBadRequest, "title is required")
	default:
		logger.From(r.Context()).Error("category request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "category request failed")
	}
}
