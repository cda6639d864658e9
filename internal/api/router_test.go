package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront-cache/internal/api"
	"github.com/aaravmahajanofficial/storefront-cache/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cache/internal/cache"
	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	"github.com/aaravmahajanofficial/storefront-cache/internal/services/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRouter(t *testing.T) {
	catalogService := new(mocks.CatalogService)
	cartService := new(mocks.CartService)
	searchService := new(mocks.SearchService)

	router := api.NewRouter(&api.Services{Catalog: catalogService, Cart: cartService, Search: searchService}, nil, nil)

	t.Run("Success - Session reaches the service", func(t *testing.T) {
		// Arrange
		cartService.On("Cart", mock.MatchedBy(func(ctx context.Context) bool {
			return cache.SessionIDFromContext(ctx) == "shopper-1"
		})).Return(&models.Cart{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.Header.Set(middleware.SessionHeader, "shopper-1")
		recorder := httptest.NewRecorder()

		// Act
		router.ServeHTTP(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "shopper-1", recorder.Header().Get(middleware.SessionHeader))
		assert.NotEmpty(t, recorder.Header().Get("X-Request-ID"))
		cartService.AssertExpectations(t)
	})

	t.Run("Success - Path values routed", func(t *testing.T) {
		catalogService.On("ProductBySlug", mock.Anything, "leather-boots", false).
			Return(&models.Product{ID: 42, Slug: "leather-boots"}, nil).Once()

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/products/leather-boots", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		catalogService.AssertExpectations(t)
	})

	t.Run("Failure - Wrong method", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPut, "/api/v1/cart", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
	})

	t.Run("Metrics exposed", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "http_requests_total")
	})
}
