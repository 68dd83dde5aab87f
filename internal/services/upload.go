package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// MaxGalleryImages caps the number of files in one gallery upload.
const MaxGalleryImages = 10

var (
	ErrUploadsDisabled  = errors.New("image uploads are not configured")
	ErrMissingImage     = errors.New("no image in the request")
	ErrInvalidImageType = errors.New("invalid image type")
	ErrTooManyImages    = fmt.Errorf("at most %d gallery images are allowed", MaxGalleryImages)
)

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/jpg":  "jpg",
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Upload is an image file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImageStore persists uploaded files and maps them to public URLs.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

// ImageObjectKey builds the storage key for an uploaded product image. The
// extension comes from the content type, never from the client filename.
func ImageObjectKey(filename, contentType string) (string, error) {
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", ErrInvalidImageType
	}

	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	base = strings.Join(strings.Fields(base), "-")
	base = strings.Trim(unsafeNameChars.ReplaceAllString(base, ""), ".-")
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("products/%s-%s.%s", uuid.NewString(), base, ext), nil
}

func putUpload(ctx context.Context, images ImageStore, upload Upload) (string, error) {
	if images == nil {
		return "", ErrUploadsDisabled
	}
	if len(upload.Data) == 0 {
		return "", ErrMissingImage
	}
	key, err := ImageObjectKey(upload.Filename, upload.ContentType)
	if err != nil {
		return "", err
	}
	url, err := images.Put(ctx, key, bytes.NewReader(upload.Data), int64(len(upload.Data)), strings.ToLower(upload.ContentType))
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return url, nil
}

// removeUploads deletes stored objects behind urls. It is called after the
// database no longer references them, so failures only leave orphans.
func removeUploads(ctx context.Context, images ImageStore, urls ...string) []error {
	if images == nil {
		return nil
	}
	var errs []error
	for _, url := range urls {
		key, ok := images.KeyFromURL(url)
		if !ok {
			continue
		}
		if err := images.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errs
}
