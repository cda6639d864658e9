package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-cache/internal/catalog"
	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	"github.com/stretchr/testify/mock"
)

// Client is a testify mock of catalog.Client.
type Client struct {
	mock.Mock
}

func (m *Client) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	args := m.Called(ctx, slug)

	var category *models.Category
	if v := args.Get(0); v != nil {
		category = v.(*models.Category)
	}

	return category, args.Error(1)
}

func (m *Client) Categories(ctx context.Context, perPage int) ([]models.Category, error) {
	args := m.Called(ctx, perPage)

	var categories []models.Category
	if v := args.Get(0); v != nil {
		categories = v.([]models.Category)
	}

	return categories, args.Error(1)
}

func (m *Client) ProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	args := m.Called(ctx, slug)

	var product *models.Product
	if v := args.Get(0); v != nil {
		product = v.(*models.Product)
	}

	return product, args.Error(1)
}

func (m *Client) Products(ctx context.Context, query catalog.ProductQuery) (*catalog.ProductList, error) {
	args := m.Called(ctx, query)

	var list *catalog.ProductList
	if v := args.Get(0); v != nil {
		list = v.(*catalog.ProductList)
	}

	return list, args.Error(1)
}

var _ catalog.Client = (*Client)(nil)
