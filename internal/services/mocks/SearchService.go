package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	service "github.com/aaravmahajanofficial/storefront-cache/internal/services"
	"github.com/stretchr/testify/mock"
)

// SearchService is a testify mock of service.SearchService.
type SearchService struct {
	mock.Mock
}

func (m *SearchService) Search(ctx context.Context, query string, forceRefresh bool) (*models.SearchResponse, error) {
	args := m.Called(ctx, query, forceRefresh)

	var resp *models.SearchResponse
	if v := args.Get(0); v != nil {
		resp = v.(*models.SearchResponse)
	}

	return resp, args.Error(1)
}

func (m *SearchService) Popular(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)

	var products []models.Product
	if v := args.Get(0); v != nil {
		products = v.([]models.Product)
	}

	return products, args.Error(1)
}

var _ service.SearchService = (*SearchService)(nil)
