package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	service "github.com/aaravmahajanofficial/storefront-cache/internal/services"
	"github.com/stretchr/testify/mock"
)

// CatalogService is a testify mock of service.CatalogService.
type CatalogService struct {
	mock.Mock
}

func (m *CatalogService) CategoryBySlug(ctx context.Context, slug string, forceRefresh bool) (*models.Category, error) {
	args := m.Called(ctx, slug, forceRefresh)

	var category *models.Category
	if v := args.Get(0); v != nil {
		category = v.(*models.Category)
	}

	return category, args.Error(1)
}

func (m *CatalogService) ProductBySlug(ctx context.Context, slug string, forceRefresh bool) (*models.Product, error) {
	args := m.Called(ctx, slug, forceRefresh)

	var product *models.Product
	if v := args.Get(0); v != nil {
		product = v.(*models.Product)
	}

	return product, args.Error(1)
}

func (m *CatalogService) ProductsByCategory(ctx context.Context, slug string, page int, forceRefresh bool) (*models.ProductPage, error) {
	args := m.Called(ctx, slug, page, forceRefresh)

	var result *models.ProductPage
	if v := args.Get(0); v != nil {
		result = v.(*models.ProductPage)
	}

	return result, args.Error(1)
}

func (m *CatalogService) CategoriesMinimal(ctx context.Context, forceRefresh bool) ([]models.Category, error) {
	args := m.Called(ctx, forceRefresh)

	var categories []models.Category
	if v := args.Get(0); v != nil {
		categories = v.([]models.Category)
	}

	return categories, args.Error(1)
}

func (m *CatalogService) RelatedProducts(ctx context.Context, slug string, forceRefresh bool) ([]models.Product, error) {
	args := m.Called(ctx, slug, forceRefresh)

	var products []models.Product
	if v := args.Get(0); v != nil {
		products = v.([]models.Product)
	}

	return products, args.Error(1)
}

func (m *CatalogService) PreloadInitialData(ctx context.Context, forceRefresh bool) (*models.Preload, error) {
	args := m.Called(ctx, forceRefresh)

	var preload *models.Preload
	if v := args.Get(0); v != nil {
		preload = v.(*models.Preload)
	}

	return preload, args.Error(1)
}

func (m *CatalogService) PreloadImages(ctx context.Context, images []models.ImageRef) error {
	args := m.Called(ctx, images)

	return args.Error(0)
}

func (m *CatalogService) Image(ctx context.Context, slug string) (*models.ImageRef, error) {
	args := m.Called(ctx, slug)

	var ref *models.ImageRef
	if v := args.Get(0); v != nil {
		ref = v.(*models.ImageRef)
	}

	return ref, args.Error(1)
}

func (m *CatalogService) ClearExpired(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)

	var removed map[string]int64
	if v := args.Get(0); v != nil {
		removed = v.(map[string]int64)
	}

	return removed, args.Error(1)
}

func (m *CatalogService) ClearAll(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

var _ service.CatalogService = (*CatalogService)(nil)
