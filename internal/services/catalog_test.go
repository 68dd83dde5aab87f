package services

import (
	"context"
	"errors"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wicart/storefront/internal/mq"
	"github.com/wicart/storefront/internal/store"
	"github.com/wicart/storefront/types"
)

func ptr[T any](v T) *T { return &v }

func pngUpload(name string) *Upload {
	return &Upload{Filename: name, ContentType: "image/png", Data: []byte("\x89PNG fake")}
}

func TestImageObjectKey(t *testing.T) {
	key, err := ImageObjectKey("my summer hat.PNG", "image/png")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^products/[0-9a-f-]{36}-my-summer-hat\.png$`), key)

	key, err = ImageObjectKey("../../etc/passwd", "image/jpeg")
	require.NoError(t, err)
	assert.Regexp(t, `^products/[0-9a-f-]{36}-passwd\.jpeg$`, key)

	key, err = ImageObjectKey("", "image/jpg")
	require.NoError(t, err)
	assert.Regexp(t, `-image\.jpg$`, key)

	_, err = ImageObjectKey("x.gif", "image/gif")
	require.ErrorIs(t, err, ErrInvalidImageType)
}

func TestCategoryCreateMapsConflict(t *testing.T) {
	svc := NewCategoryService(newMemCategories("Shoes"))

	_, err := svc.Create(context.Background(), "Shoes")
	require.ErrorIs(t, err, ErrCategoryExists)

	_, err = svc.Create(context.Background(), "   ")
	require.ErrorIs(t, err, ErrMissingTitle)

	created, err := svc.Create(context.Background(), " Hats ")
	require.NoError(t, err)
	assert.Equal(t, "Hats", created.Title)
}

type productFixture struct {
	svc      *ProductService
	products *memProducts
	images   *memImageStore
	events   *recordingEvents
}

func newProductFixture() productFixture {
	f := productFixture{
		products: newMemProducts(),
		images:   newMemImageStore(),
		events:   newRecordingEvents(),
	}
	f.svc = NewProductService(f.products, newMemCategories("Shoes"), f.images, f.events)
	return f
}

func TestProductCreate(t *testing.T) {
	f := newProductFixture()

	created, err := f.svc.Create(context.Background(), ProductFields{
		Name:       ptr("Runner"),
		Price:      ptr(int64(4999)),
		CategoryID: ptr(1),
	}, pngUpload("runner.png"))
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
	require.NotNil(t, created.Category)
	assert.Equal(t, "Shoes", created.Category.Title)
	assert.Contains(t, created.Image, testImageBase+"products/")
	assert.Len(t, f.images.objects, 1)

	select {
	case ev := <-f.events.ch:
		assert.Equal(t, mq.ChannelProductCreated, ev.channel)
	case <-time.After(time.Second):
		t.Fatal("event not published")
	}
}

func TestProductCreateValidation(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, ProductFields{Name: ptr("Runner"), CategoryID: ptr(9)}, pngUpload("a.png"))
	require.ErrorIs(t, err, ErrInvalidCategory)

	_, err = f.svc.Create(ctx, ProductFields{Name: ptr("Runner")}, pngUpload("a.png"))
	require.ErrorIs(t, err, ErrInvalidCategory)

	_, err = f.svc.Create(ctx, ProductFields{Name: ptr("Runner"), CategoryID: ptr(1)}, nil)
	require.ErrorIs(t, err, ErrMissingImage)

	_, err = f.svc.Create(ctx, ProductFields{CategoryID: ptr(1)}, pngUpload("a.png"))
	require.ErrorIs(t, err, ErrMissingName)

	gif := &Upload{Filename: "a.gif", ContentType: "image/gif", Data: []byte("GIF")}
	_, err = f.svc.Create(ctx, ProductFields{Name: ptr("Runner"), CategoryID: ptr(1)}, gif)
	require.ErrorIs(t, err, ErrInvalidImageType)

	assert.Empty(t, f.images.objects)
	count, _ := f.products.Count(ctx)
	assert.Zero(t, count)
}

func TestProductCreateWithoutStorage(t *testing.T) {
	svc := NewProductService(newMemProducts(), newMemCategories("Shoes"), nil, nil)

	_, err := svc.Create(context.Background(), ProductFields{Name: ptr("Runner"), CategoryID: ptr(1)}, pngUpload("a.png"))
	require.ErrorIs(t, err, ErrUploadsDisabled)
}

func TestProductUpdateReplacesImage(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	created, err := f.svc.Create(ctx, ProductFields{Name: ptr("Runner"), Brand: ptr("Acme"), CategoryID: ptr(1)}, pngUpload("a.png"))
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, created.ID, ProductFields{Price: ptr(int64(10))}, pngUpload("b.png"))
	require.NoError(t, err)
	assert.Equal(t, "Runner", updated.Name)
	assert.Equal(t, "Acme", updated.Brand)
	assert.Equal(t, int64(10), updated.Price)
	assert.NotEqual(t, created.Image, updated.Image)

	require.Len(t, f.images.objects, 1)
	key, _ := f.images.KeyFromURL(updated.Image)
	assert.Contains(t, f.images.objects, key)
}

func TestProductUpdateFailureRemovesNewImage(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	created, err := f.svc.Create(ctx, ProductFields{Name: ptr("Runner"), CategoryID: ptr(1)}, pngUpload("a.png"))
	require.NoError(t, err)

	f.products.updateErr = errors.New("db down")
	_, err = f.svc.Update(ctx, created.ID, ProductFields{}, pngUpload("b.png"))
	require.Error(t, err)

	require.Len(t, f.images.objects, 1)
	key, _ := f.images.KeyFromURL(created.Image)
	assert.Contains(t, f.images.objects, key)
}

func TestProductUpdateUnknown(t *testing.T) {
	f := newProductFixture()

	_, err := f.svc.Update(context.Background(), 42, ProductFields{}, nil)
	require.ErrorIs(t, err, store.ErrNotFound)

	created, err := f.svc.Create(context.Background(), ProductFields{Name: ptr("Runner"), CategoryID: ptr(1)}, pngUpload("a.png"))
	require.NoError(t, err)
	_, err = f.svc.Update(context.Background(), created.ID, ProductFields{CategoryID: ptr(77)}, nil)
	require.ErrorIs(t, err, ErrInvalidCategory)
}

func TestProductGallery(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	created, err := f.svc.Create(ctx, ProductFields{Name: ptr("Runner"), CategoryID: ptr(1)}, pngUpload("a.png"))
	require.NoError(t, err)

	_, err = f.svc.UpdateGallery(ctx, created.ID, nil)
	require.ErrorIs(t, err, ErrMissingImage)

	tooMany := make([]Upload, MaxGalleryImages+1)
	_, err = f.svc.UpdateGallery(ctx, created.ID, tooMany)
	require.ErrorIs(t, err, ErrTooManyImages)

	updated, err := f.svc.UpdateGallery(ctx, created.ID, []Upload{*pngUpload("g1.png"), *pngUpload("g2.png")})
	require.NoError(t, err)
	assert.Len(t, updated.Images, 2)
	assert.Len(t, f.images.objects, 3)

	again, err := f.svc.UpdateGallery(ctx, created.ID, []Upload{*pngUpload("g3.png")})
	require.NoError(t, err)
	assert.Len(t, again.Images, 1)
	assert.Len(t, f.images.objects, 2)
}

func TestProductDeleteRemovesImages(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	created, err := f.svc.Create(ctx, ProductFields{Name: ptr("Runner"), CategoryID: ptr(1)}, pngUpload("a.png"))
	require.NoError(t, err)
	_, err = f.svc.UpdateGallery(ctx, created.ID, []Upload{*pngUpload("g1.png")})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.ID))
	assert.Empty(t, f.images.objects)
	require.ErrorIs(t, f.svc.Delete(ctx, created.ID), store.ErrNotFound)
}

func TestProductFeaturedBounds(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(ctx, ProductFields{Name: ptr("P"), CategoryID: ptr(1), IsFeatured: ptr(true)}, pngUpload("a.png"))
		require.NoError(t, err)
	}

	none, err := f.svc.Featured(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	two, err := f.svc.Featured(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestOrderPlaceComputesTotal(t *testing.T) {
	products := newMemProducts()
	shoe, _ := products.Create(context.Background(), types.Product{Name: "Shoe", Price: 2500})
	sock, _ := products.Create(context.Background(), types.Product{Name: "Sock", Price: 300})
	orders := &memOrders{}
	events := newRecordingEvents()
	svc := NewOrderService(orders, products, events)

	order, err := svc.Place(context.Background(), "WI1", OrderRequest{
		Items: []OrderLine{
			{ProductID: shoe.ID, Quantity: 1},
			{ProductID: sock.ID, Quantity: 3},
		},
		City: "Pune",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3400), order.TotalPrice)
	assert.Equal(t, "WI1", order.UserID)
	assert.Equal(t, types.OrderStatusPending, order.Status)
	assert.Equal(t, int64(300), order.Items[1].UnitPrice)

	select {
	case ev := <-events.ch:
		assert.Equal(t, mq.ChannelOrderPlaced, ev.channel)
	case <-time.After(time.Second):
		t.Fatal("event not published")
	}
}

func TestOrderPlaceValidation(t *testing.T) {
	products := newMemProducts()
	shoe, _ := products.Create(context.Background(), types.Product{Name: "Shoe", Price: 2500})
	orders := &memOrders{}
	svc := NewOrderService(orders, products, nil)
	ctx := context.Background()

	_, err := svc.Place(ctx, "WI1", OrderRequest{})
	require.ErrorIs(t, err, ErrEmptyOrder)

	_, err = svc.Place(ctx, "WI1", OrderRequest{Items: []OrderLine{{ProductID: shoe.ID, Quantity: 0}}})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Place(ctx, "WI1", OrderRequest{Items: []OrderLine{{ProductID: 99, Quantity: 1}}})
	require.ErrorIs(t, err, ErrUnknownProduct)

	assert.Empty(t, orders.items)
}

func TestOrderPlaceBoundsQuantityAndTotal(t *testing.T) {
	products := newMemProducts()
	shoe, _ := products.Create(context.Background(), types.Product{Name: "Shoe", Price: 2500})
	yacht, _ := products.Create(context.Background(), types.Product{Name: "Yacht", Price: math.MaxInt64 / 2})
	orders := &memOrders{}
	svc := NewOrderService(orders, products, nil)
	ctx := context.Background()

	_, err := svc.Place(ctx, "WI1", OrderRequest{Items: []OrderLine{{ProductID: shoe.ID, Quantity: MaxLineQuantity + 1}}})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Place(ctx, "WI1", OrderRequest{Items: []OrderLine{{ProductID: shoe.ID, Quantity: math.MaxInt32}}})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Place(ctx, "WI1", OrderRequest{Items: []OrderLine{{ProductID: yacht.ID, Quantity: 3}}})
	require.ErrorIs(t, err, ErrOrderTooLarge)

	_, err = svc.Place(ctx, "WI1", OrderRequest{Items: []OrderLine{
		{ProductID: yacht.ID, Quantity: 2},
		{ProductID: shoe.ID, Quantity: 1},
	}})
	require.ErrorIs(t, err, ErrOrderTooLarge)
	assert.Empty(t, orders.items)

	order, err := svc.Place(ctx, "WI1", OrderRequest{Items: []OrderLine{{ProductID: shoe.ID, Quantity: MaxLineQuantity}}})
	require.NoError(t, err)
	assert.Equal(t, int64(2500*MaxLineQuantity), order.TotalPrice)
}

func TestOrderGetIsScopedToOwner(t *testing.T) {
	products := newMemProducts()
	shoe, _ := products.Create(context.Background(), types.Product{Name: "Shoe", Price: 1})
	svc := NewOrderService(&memOrders{}, products, nil)
	ctx := context.Background()

	order, err := svc.Place(ctx, "WI1", OrderRequest{Items: []OrderLine{{ProductID: shoe.ID, Quantity: 1}}})
	require.NoError(t, err)

	_, err = svc.Get(ctx, order.ID, "WI2")
	require.ErrorIs(t, err, store.ErrNotFound)

	mine, err := svc.List(ctx, "WI1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
