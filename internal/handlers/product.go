package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wicart/storefront/internal/logger"
	"github.com/wicart/storefront/internal/services"
	"github.com/wicart/storefront/internal/store"
	"go.uber.org/zap"
)

const (
	maxMultipartMemory   = 32 << 20
	maxImageBytes        = 10 << 20
	formFieldImage       = "image"
	formFieldImages      = "images"
	formFieldName        = "name"
	formFieldDesc        = "description"
	formFieldRichDesc    = "richDescription"
	formFieldBrand       = "brand"
	formFieldPrice       = "price"
	formFieldCategory    = "category"
	formFieldCountStock  = "countInStock"
	formFieldRating      = "rating"
	formFieldNumReviews  = "numReviews"
	formFieldIsFeatured  = "isFeatured"
	queryFieldCategories = "categories"
)

// ProductHandler provides HTTP handlers for products.
type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ProductRouter registers product routes on the given router.
func ProductRouter(r chi.Router, productService *services.ProductService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewProductHandler(productService)

	r.Get("/", handler.ListProducts)
	r.Get("/get/count", handler.CountProducts)
	r.Get("/get/featured/{count}", handler.FeaturedProducts)
	r.Get("/{productID}", handler.GetProduct)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", handler.CreateProduct)
		r.Put("/gallery-images/{productID}", handler.UpdateGallery)
		r.Put("/{productID}", handler.UpdateProduct)
		r.Delete("/{productID}", handler.DeleteProduct)
	})
}

type ProductCountResponse struct {
	ProductCount int `json:"productCount"`
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	categoryIDs, err := parseCategoryFilter(r.URL.Query().Get(queryFieldCategories))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.productService.List(r.Context(), categoryIDs)
	if err != nil {
		logger.From(r.Context()).Error("list products failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) CountProducts(w http.ResponseWriter, r *http.Request) {
	count, err := h.productService.Count(r.Context())
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProductCountResponse{ProductCount: count})
}

func (h *ProductHandler) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	count, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "count")))
	if err != nil || count < 0 {
		writeError(w, http.StatusBadRequest, "invalid count")
		return
	}

	products, err := h.productService.Featured(r.Context(), count)
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	fields, image, err := parseProductForm(r)
	if err != nil {
		writeFormError(w, err)
		return
	}

	created, err := h.productService.Create(r.Context(), fields, image)
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fields, image, err := parseProductForm(r)
	if err != nil {
		writeFormError(w, err)
		return
	}

	updated, err := h.productService.Update(r.Context(), id, fields, image)
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) UpdateGallery(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	files := r.MultipartForm.File[formFieldImages]
	if len(files) > services.MaxGalleryImages {
		writeError(w, http.StatusBadRequest, services.ErrTooManyImages.Error())
		return
	}
	uploads := make([]services.Upload, 0, len(files))
	for _, fileHeader := range files {
		upload, err := readUpload(fileHeader)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		uploads = append(uploads, upload)
	}

	updated, err := h.productService.UpdateGallery(r.Context(), id, uploads)
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		h.writeProductError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "the product is deleted!"})
}

func (h *ProductHandler) writeProductError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, services.ErrInvalidCategory):
		writeError(w, http.StatusBadRequest, "Invalid Category")
	case errors.Is(err, services.ErrMissingImage):
		writeError(w, http.StatusBadRequest, "No image in the request")
	case errors.Is(err, services.ErrMissingName),
		errors.Is(err, services.ErrInvalidImageType),
		errors.Is(err, services.ErrTooManyImages):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUploadsDisabled):
		writeError(w, http.StatusServiceUnavailable, "image uploads are not available")
	default:
		logger.From(r.Context()).Error("product request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "product request failed")
	}
}

func writeFormError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrInvalidCategory) {
		writeError(w, http.StatusBadRequest, "Invalid Category")
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// parseProductForm reads product fields and the optional main image. Blank
// fields are returned as nil so updates keep the stored value.
func parseProductForm(r *http.Request) (services.ProductFields, *services.Upload, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return services.ProductFields{}, nil, errors.New("invalid multipart form")
	}

	var (
		fields services.ProductFields
		err    error
	)
	fields.Name = optionalString(r.FormValue(formFieldName))
	fields.Description = optionalString(r.FormValue(formFieldDesc))
	fields.RichDescription = optionalString(r.FormValue(formFieldRichDesc))
	fields.Brand = optionalString(r.FormValue(formFieldBrand))

	if fields.Price, err = optionalInt64(r.FormValue(formFieldPrice)); err != nil {
		return services.ProductFields{}, nil, errors.New("invalid price")
	}
	if fields.CategoryID, err = optionalInt(r.FormValue(formFieldCategory)); err != nil {
		return services.ProductFields{}, nil, services.ErrInvalidCategory
	}
	if fields.CountInStock, err = optionalInt(r.FormValue(formFieldCountStock)); err != nil {
		return services.ProductFields{}, nil, errors.New("invalid countInStock")
	}
	if fields.NumReviews, err = optionalInt(r.FormValue(formFieldNumReviews)); err != nil {
		return services.ProductFields{}, nil, errors.New("invalid numReviews")
	}
	if raw := strings.TrimSpace(r.FormValue(formFieldRating)); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return services.ProductFields{}, nil, errors.New("invalid rating")
		}
		fields.Rating = &rating
	}
	if raw := strings.TrimSpace(r.FormValue(formFieldIsFeatured)); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return services.ProductFields{}, nil, errors.New("invalid isFeatured")
		}
		fields.IsFeatured = &featured
	}

	image, err := parseImageFile(r.MultipartForm)
	if err != nil {
		return services.ProductFields{}, nil, err
	}
	return fields, image, nil
}

func parseImageFile(form *multipart.Form) (*services.Upload, error) {
	if form == nil {
		return nil, nil
	}
	files := form.File[formFieldImage]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, errors.New("only one image file is allowed")
	}
	upload, err := readUpload(files[0])
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func readUpload(fileHeader *multipart.FileHeader) (services.Upload, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return services.Upload{}, fmt.Errorf("failed to read image file: %w", err)
	}
	data, err := readFileLimited(file, maxImageBytes)
	_ = file.Close()
	if err != nil {
		return services.Upload{}, err
	}
	return services.Upload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}

func parseCategoryFilter(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id < 1 {
			return nil, errors.New("invalid categories filter")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func optionalInt(value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func optionalInt64(value string) (*int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
