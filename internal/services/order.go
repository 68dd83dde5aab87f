package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/wicart/storefront/internal/mq"
	"github.com/wicart/storefront/internal/store"
	"github.com/wicart/storefront/types"
)

// MaxLineQuantity bounds the quantity of a single order line.
const MaxLineQuantity = 1000

var (
	ErrEmptyOrder      = errors.New("order has no items")
	ErrInvalidQuantity = fmt.Errorf("quantity must be between 1 and %d", MaxLineQuantity)
	ErrUnknownProduct  = errors.New("unknown product")
	ErrOrderTooLarge   = errors.New("order total too large")
)

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, order types.Order) (types.Order, error)
	ListByUser(ctx context.Context, userID string) ([]types.Order, error)
	GetForUser(ctx context.Context, id int64, userID string) (types.Order, error)
}

// ProductLookup resolves products referenced by order lines.
type ProductLookup interface {
	Get(ctx context.Context, id int) (types.Product, error)
}

// OrderLine is a requested product and quantity.
type OrderLine struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// OrderRequest is the client payload for placing an order.
type OrderRequest struct {
	Items           []OrderLine `json:"items"`
	ShippingAddress string      `json:"shippingAddress"`
	City            string      `json:"city"`
	Country         string      `json:"country"`
	Phone           string      `json:"phone"`
}

// OrderService places and reads orders on behalf of an authenticated user.
type OrderService struct {
	repo     OrderRepository
	products ProductLookup
	events   EventPublisher
}

func NewOrderService(repo OrderRepository, products ProductLookup, events EventPublisher) *OrderService {
	return &OrderService{repo: repo, products: products, events: events}
}

// Place prices each line from the current catalogue and stores the order under
// userID.
func (s *OrderService) Place(ctx context.Context, userID string, req OrderRequest) (types.Order, error) {
	if len(req.Items) == 0 {
		return types.Order{}, ErrEmptyOrder
	}

	order := types.Order{
		UserID:          userID,
		Items:           make([]types.OrderItem, 0, len(req.Items)),
		ShippingAddress: req.ShippingAddress,
		City:            req.City,
		Country:         req.Country,
		Phone:           req.Phone,
		Status:          types.OrderStatusPending,
	}
	for _, line := range req.Items {
		if line.Quantity <= 0 || line.Quantity > MaxLineQuantity {
			return types.Order{}, ErrInvalidQuantity
		}
		product, err := s.products.Get(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return types.Order{}, fmt.Errorf("%w: %d", ErrUnknownProduct, line.ProductID)
			}
			return types.Order{}, fmt.Errorf("lookup product: %w", err)
		}
		if product.Price > 0 && product.Price > (math.MaxInt64-order.TotalPrice)/int64(line.Quantity) {
			return types.Order{}, ErrOrderTooLarge
		}
		order.Items = append(order.Items, types.OrderItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		order.TotalPrice += product.Price * int64(line.Quantity)
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return types.Order{}, fmt.Errorf("create order: %w", err)
	}

	publishEvent(ctx, s.events, mq.ChannelOrderPlaced, map[string]any{
		"id":         created.ID,
		"userId":     created.UserID,
		"totalPrice": created.TotalPrice,
	})
	return created, nil
}

func (s *OrderService) List(ctx context.Context, userID string) ([]types.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *OrderService) Get(ctx context.Context, id int64, userID string) (types.Order, error) {
	return s.repo.GetForUser(ctx, id, userID)
}
