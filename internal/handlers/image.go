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

// ImageHandler serves the image registry.
type ImageHandler struct {
	imageService *services.ImageService
}

func NewImageHandler(imageService *services.ImageService) *ImageHandler {
	return &ImageHandler{imageService: imageService}
}

// ImageRouter registers image routes on the given router.
func ImageRouter(r chi.Router, imageService *services.ImageService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewImageHandler(imageService)

	r.Get("/images", handler.ListImages)
	r.Get("/images/{imageID}", handler.GetImage)
	r.With(authMiddleware).Post("/upload", handler.CreateImage)
}

type ImageRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type ImageCreatedResponse struct {
	Message string      `json:"message"`
	Image   types.Image `json:"image"`
}

func (h *ImageHandler) CreateImage(w http.ResponseWriter, r *http.Request) {
	var req ImageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	image, err := h.imageService.Create(r.Context(), req.Title, req.URL)
	if err != nil {
		if errors.Is(err, services.ErrMissingImageFields) {
			writeError(w, http.StatusBadRequest, "Title and URL are required")
			return
		}
		logger.From(r.Context()).Error("create image failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save image")
		return
	}
	writeJSON(w, http.StatusCreated, ImageCreatedResponse{Message: "Image uploaded successfully", Image: image})
}

func (h *ImageHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.imageService.List(r.Context())
	if err != nil {
		logger.From(r.Context()).Error("list images failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list images")
		return
	}
	writeJSON(w, http.StatusOK, images)
}

func (h *ImageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "imageID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	image, err := h.imageService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Image not found")
			return
		}
		logger.From(r.Context()).Error("get image failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch image")
		return
	}
	writeJSON(w, http.StatusOK, image)
}
