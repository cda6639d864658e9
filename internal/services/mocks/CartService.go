package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	service "github.com/aaravmahajanofficial/storefront-cache/internal/services"
	"github.com/stretchr/testify/mock"
)

// CartService is a testify mock of service.CartService.
type CartService struct {
	mock.Mock
}

func (m *CartService) cart(args mock.Arguments) (*models.Cart, error) {
	var cart *models.Cart
	if v := args.Get(0); v != nil {
		cart = v.(*models.Cart)
	}

	return cart, args.Error(1)
}

func (m *CartService) Cart(ctx context.Context) (*models.Cart, error) {
	return m.cart(m.Called(ctx))
}

func (m *CartService) AddItem(ctx context.Context, req *models.AddItemRequest) (*models.Cart, error) {
	return m.cart(m.Called(ctx, req))
}

func (m *CartService) RemoveItem(ctx context.Context, productID int64) (*models.Cart, error) {
	return m.cart(m.Called(ctx, productID))
}

func (m *CartService) Clear(ctx context.Context) (*models.Cart, error) {
	return m.cart(m.Called(ctx))
}

var _ service.CartService = (*CartService)(nil)
