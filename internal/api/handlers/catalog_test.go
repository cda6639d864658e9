package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront-cache/internal/api/handlers"
	appErrors "github.com/aaravmahajanofficial/storefront-cache/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	"github.com/aaravmahajanofficial/storefront-cache/internal/services/mocks"
	"github.com/aaravmahajanofficial/storefront-cache/internal/testutils"
	"github.com/aaravmahajanofficial/storefront-cache/internal/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupCatalogTest() (*mocks.CatalogService, *handlers.CatalogHandler) {
	mockCatalogService := new(mocks.CatalogService)
	return mockCatalogService, handlers.NewCatalogHandler(mockCatalogService)
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder) response.APIResponse {
	t.Helper()

	var resp response.APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

	return resp
}

func TestCategory(t *testing.T) {

	t.Run("Success - Category found", func(t *testing.T) {
		// Arrange
		mockCatalogService, catalogHandler := setupCatalogTest()
		category := &models.Category{ID: 7, Name: "Shoes", Slug: "shoes", Type: models.TypeCategory}
		mockCatalogService.On("CategoryBySlug", mock.Anything, "shoes", false).Return(category, nil).Once()

		req := testutils.CreateTestRequestWithSession(http.MethodGet, "/api/v1/categories/shoes", nil, "s1", map[string]string{"slug": "shoes"})
		recorder := httptest.NewRecorder()

		// Act
		catalogHandler.Category()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		resp := decodeResponse(t, recorder)
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Error)
		mockCatalogService.AssertExpectations(t)
	})

	t.Run("Failure - Not found", func(t *testing.T) {
		// Arrange
		mockCatalogService, catalogHandler := setupCatalogTest()
		mockCatalogService.On("CategoryBySlug", mock.Anything, "nope", false).
			Return(nil, appErrors.NotFoundError("Category not found")).Once()

		req := testutils.CreateTestRequestWithSession(http.MethodGet, "/api/v1/categories/nope", nil, "s1", map[string]string{"slug": "nope"})
		recorder := httptest.NewRecorder()

		// Act
		catalogHandler.Category()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, recorder.Code)
		resp := decodeResponse(t, recorder)
		assert.False(t, resp.Success)
		assert.Equal(t, appErrors.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("Success - Stale category served with error", func(t *testing.T) {
		// Arrange
		mockCatalogService, catalogHandler := setupCatalogTest()
		stale := &models.Category{ID: 7, Name: "Shoes", Slug: "shoes"}
		mockCatalogService.On("CategoryBySlug", mock.Anything, "shoes", true).
			Return(stale, appErrors.FetchFailedError("Catalog unavailable")).Once()

		req := testutils.CreateTestRequestWithSession(http.MethodGet, "/api/v1/categories/shoes?refresh=true", nil, "s1", map[string]string{"slug": "shoes"})
		recorder := httptest.NewRecorder()

		// Act
		catalogHandler.Category()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		resp := decodeResponse(t, recorder)
		assert.True(t, resp.Success)
		assert.NotNil(t, resp.Data)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeFetchFailed, resp.Error.Code)
	})

	t.Run("Failure - Fetch failed with nothing cached", func(t *testing.T) {
		mockCatalogService, catalogHandler := setupCatalogTest()
		mockCatalogService.On("CategoryBySlug", mock.Anything, "shoes", false).
			Return(nil, appErrors.FetchFailedError("Catalog unavailable")).Once()

		req := testutils.CreateTestRequestWithSession(http.MethodGet, "/api/v1/categories/shoes", nil, "s1", map[string]string{"slug": "shoes"})
		recorder := httptest.NewRecorder()

		catalogHandler.Category()(recorder, req)

		assert.Equal(t, http.StatusBadGateway, recorder.Code)
	})
}

func TestCategoryProducts(t *testing.T) {

	t.Run("Success - Page parsed from query", func(t *testing.T) {
		// Arrange
		mockCatalogService, catalogHandler := setupCatalogTest()
		page := &models.ProductPage{Products: []models.Product{{ID: 1, Name: "Boots"}}, Total: 21, TotalPages: 2, CurrentPage: 2}
		mockCatalogService.On("ProductsByCategory", mock.Anything, "shoes", 2, false).Return(page, nil).Once()

		req := testutils.CreateTestRequestWithSession(http.MethodGet, "/api/v1/categories/shoes/products?page=2", nil, "s1", map[string]string{"slug": "shoes"})
		recorder := httptest.NewRecorder()

		// Act
		catalogHandler.CategoryProducts()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		mockCatalogService.AssertExpectations(t)
	})

	t.Run("Failure - Invalid page", func(t *testing.T) {
		mockCatalogService, catalogHandler := setupCatalogTest()

		req := testutils.CreateTestRequestWithSession(http.MethodGet, "/api/v1/categories/shoes/products?page=zero", nil, "s1", map[string]string{"slug": "shoes"})
		recorder := httptest.NewRecorder()

		catalogHandler.CategoryProducts()(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		mockCatalogService.AssertNotCalled(t, "ProductsByCategory", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Empty page with fetch error is a bad gateway", func(t *testing.T) {
		// Arrange
		mockCatalogService, catalogHandler := setupCatalogTest()
		fetchErr := appErrors.FetchFailedError("Catalog unavailable")
		empty := &models.ProductPage{Products: []models.Product{}, CurrentPage: 1, Error: fetchErr.Error()}
		mockCatalogService.On("ProductsByCategory", mock.Anything, "shoes", 1, false).Return(empty, fetchErr).Once()

		req := testutils.CreateTestRequestWithSession(http.MethodGet, "/api/v1/categories/shoes/products", nil, "s1", map[string]string{"slug": "shoes"})
		recorder := httptest.NewRecorder()

		// Act
		catalogHandler.CategoryProducts()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadGateway, recorder.Code)
		resp := decodeResponse(t, recorder)
		assert.False(t, resp.Success)
		assert.Nil(t, resp.Data)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeFetchFailed, resp.Error.Code)
	})

	t.Run("Success - Stale page served with fetch error", func(t *testing.T) {
		// Arrange
		mockCatalogService, catalogHandler := setupCatalogTest()
		fetchErr := appErrors.FetchFailedError("Catalog unavailable")
		stale := &models.ProductPage{Products: []models.Product{{ID: 1, Name: "Boots"}}, Total: 1, TotalPages: 1, CurrentPage: 1, Stale: true, Error: fetchErr.Error()}
		mockCatalogService.On("ProductsByCategory", mock.Anything, "shoes", 1, false).Return(stale, fetchErr).Once()

		req := testutils.CreateTestRequestWithSession(http.MethodGet, "/api/v1/categories/shoes/products", nil, "s1", map[string]string{"slug": "shoes"})
		recorder := httptest.NewRecorder()

		// Act
		catalogHandler.CategoryProducts()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		resp := decodeResponse(t, recorder)
		assert.True(t, resp.Success)
		assert.NotNil(t, resp.Data)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeFetchFailed, resp.Error.Code)
	})

	t.Run("Failure - Unknown category", func(t *testing.T) {
		mockCatalogService, catalogHandler := setupCatalogTest()
		notFound := appErrors.NotFoundError("Category not found")
		mockCatalogService.On("ProductsByCategory", mock.Anything, "nope", 1, false).
			Return(&models.ProductPage{Products: []models.Product{}, CurrentPage: 1}, notFound).Once()

		req := testutils.CreateTestRequestWithSession(http.MethodGet, "/api/v1/categories/nope/products", nil, "s1", map[string]string{"slug": "nope"})
		recorder := httptest.NewRecorder()

		catalogHandler.CategoryProducts()(recorder, req)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestRelatedProducts(t *testing.T) {

	t.Run("Success - Cached products served with fetch error", func(t *testing.T) {
		// Arrange
		mockCatalogService, catalogHandler := setupCatalogTest()
		products := []models.Product{{ID: 2, Name: "Laces"}}
		mockCatalogService.On("RelatedProducts", mock.Anything, "boots", false).
			Return(products, appErrors.FetchFailedError("Catalog unavailable")).Once()

		req := testutils.CreateTestRequestWithSession(http.MethodGet, "/api/v1/categories/boots/related", nil, "s1", map[string]string{"slug": "boots"})
		recorder := httptest.NewRecorder()

		// Act
		catalogHandler.RelatedProducts()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		resp := decodeResponse(t, recorder)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeFetchFailed, resp.Error.Code)
	})

	t.Run("Failure - Nothing cached is a bad gateway", func(t *testing.T) {
		// Arrange
		mockCatalogService, catalogHandler := setupCatalogTest()
		mockCatalogService.On("RelatedProducts", mock.Anything, "boots", false).
			Return([]models.Product{}, appErrors.FetchFailedError("Catalog unavailable")).Once()

		req := testutils.CreateTestRequestWithSession(http.MethodGet, "/api/v1/categories/boots/related", nil, "s1", map[string]string{"slug": "boots"})
		recorder := httptest.NewRecorder()

		// Act
		catalogHandler.RelatedProducts()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadGateway, recorder.Code)
		resp := decodeResponse(t, recorder)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeFetchFailed, resp.Error.Code)
	})
}

func TestPreloadImages(t *testing.T) {

	t.Run("Success - Images stored", func(t *testing.T) {
		// Arrange
		mockCatalogService, catalogHandler := setupCatalogTest()
		images := []models.ImageRef{{Slug: "boots", Image: "https://cdn.example.com/boots.jpg"}}
		mockCatalogService.On("PreloadImages", mock.Anything, images).Return(nil).Once()

		body, _ := json.Marshal(models.PreloadImagesRequest{Images: images})
		req := testutils.CreateTestRequestWithSession(http.MethodPost, "/api/v1/images/preload", bytes.NewReader(body), "s1", nil)
		recorder := httptest.NewRecorder()

		// Act
		catalogHandler.PreloadImages()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		mockCatalogService.AssertExpectations(t)
	})

	t.Run("Failure - Image without url", func(t *testing.T) {
		mockCatalogService, catalogHandler := setupCatalogTest()

		body := []byte(`{"images":[{"slug":"boots"}]}`)
		req := testutils.CreateTestRequestWithSession(http.MethodPost, "/api/v1/images/preload", bytes.NewReader(body), "s1", nil)
		recorder := httptest.NewRecorder()

		catalogHandler.PreloadImages()(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		resp := decodeResponse(t, recorder)
		assert.Equal(t, appErrors.ErrCodeValidation, resp.Error.Code)
		mockCatalogService.AssertNotCalled(t, "PreloadImages", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Empty body", func(t *testing.T) {
		_, catalogHandler := setupCatalogTest()

		req := testutils.CreateTestRequestWithSession(http.MethodPost, "/api/v1/images/preload", nil, "s1", nil)
		recorder := httptest.NewRecorder()

		catalogHandler.PreloadImages()(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestImage(t *testing.T) {
	mockCatalogService, catalogHandler := setupCatalogTest()
	mockCatalogService.On("Image", mock.Anything, "boots").Return(nil, appErrors.NotFoundError("Image not cached")).Once()

	req := testutils.CreateTestRequestWithSession(http.MethodGet, "/api/v1/images/boots", nil, "s1", map[string]string{"slug": "boots"})
	recorder := httptest.NewRecorder()

	catalogHandler.Image()(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestPreload(t *testing.T) {
	mockCatalogService, catalogHandler := setupCatalogTest()
	preload := &models.Preload{
		Categories: []models.Category{{ID: 7, Name: "Shoes", Slug: "shoes"}},
		Products:   []models.Product{},
		Error:      "Catalog unavailable",
	}
	mockCatalogService.On("PreloadInitialData", mock.Anything, false).
		Return(preload, appErrors.FetchFailedError("Catalog unavailable")).Once()

	req := testutils.CreateTestRequestWithSession(http.MethodGet, "/api/v1/preload", nil, "s1", nil)
	recorder := httptest.NewRecorder()

	catalogHandler.Preload()(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	resp := decodeResponse(t, recorder)
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Error)
}

func TestMaintenance(t *testing.T) {

	t.Run("Success - Counts reported", func(t *testing.T) {
		mockCatalogService, catalogHandler := setupCatalogTest()
		mockCatalogService.On("ClearExpired", mock.Anything).Return(map[string]int64{"products": 3}, nil).Once()

		req := testutils.CreateTestRequestWithSession(http.MethodPost, "/api/v1/cache/maintenance", nil, "s1", nil)
		recorder := httptest.NewRecorder()

		catalogHandler.Maintenance()(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"products":3`)
	})

	t.Run("Failure - Clear all error", func(t *testing.T) {
		mockCatalogService, catalogHandler := setupCatalogTest()
		mockCatalogService.On("ClearAll", mock.Anything).Return(appErrors.DatabaseError("Failed to clear durable store")).Once()

		req := testutils.CreateTestRequestWithSession(http.MethodDelete, "/api/v1/cache", nil, "s1", nil)
		recorder := httptest.NewRecorder()

		catalogHandler.ClearCache()(recorder, req)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}
