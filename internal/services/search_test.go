package service_test

import (
	"strconv"
	"testing"

	"github.com/aaravmahajanofficial/storefront-cache/internal/cache"
	"github.com/aaravmahajanofficial/storefront-cache/internal/catalog"
	appErrors "github.com/aaravmahajanofficial/storefront-cache/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-cache/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var classicBoots = models.Product{ID: 42, Name: "Leather Boots Classic", Slug: "leather-boots-classic", Categories: []string{"shoes"}, Type: models.TypeProduct}

func searchQuery(q string) catalog.ProductQuery {
	return catalog.ProductQuery{Search: q, PerPage: 10, Timeout: testConfig().Catalog.SearchTimeout}
}

func withCategories(h *harness) {
	h.catalog.On("Categories", mock.Anything, 100).
		Return([]models.Category{shoes.Minimal(), {ID: 8, Name: "Hats", Slug: "hats", Type: models.TypeCategory}}, nil).Maybe()
}

func resultKeys(results []models.SearchResult) []models.SearchResultKey {
	keys := make([]models.SearchResultKey, 0, len(results))
	for _, r := range results {
		keys = append(keys, r.Key())
	}

	return keys
}

func TestSearch(t *testing.T) {

	t.Run("Success - Empty query issues no fetch", func(t *testing.T) {
		h := newHarness(t)

		resp, err := h.search.Search(sessionContext(t, "s1"), "   ", false)

		require.NoError(t, err)
		assert.Empty(t, resp.Results)
		h.catalog.AssertNotCalled(t, "Products", mock.Anything, mock.Anything)
		h.catalog.AssertNotCalled(t, "Categories", mock.Anything, mock.Anything)
	})

	t.Run("Success - Specific query includes categories", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		ctx := sessionContext(t, "s1")
		withCategories(h)
		h.catalog.On("Products", mock.Anything, searchQuery("leather boots")).
			Return(&catalog.ProductList{Products: []models.Product{classicBoots}}, nil).Once()

		// Act
		resp, err := h.search.Search(ctx, "leather boots", false)

		// Assert
		require.NoError(t, err)
		assert.True(t, resp.Specific)
		assert.Equal(t, []models.SearchResultKey{
			{ID: 42, Type: models.TypeProduct},
			{ID: 7, Type: models.TypeCategory},
		}, resultKeys(resp.Results))

		stored, err := h.store.Get(ctx, repository.PartitionProducts, "42")
		require.NoError(t, err)
		assert.NotNil(t, stored, "remote products are kept for later local searches")
	})

	t.Run("Success - Broad query excludes categories", func(t *testing.T) {
		h := newHarness(t)
		ctx := sessionContext(t, "s1")
		withCategories(h)
		h.catalog.On("Products", mock.Anything, searchQuery("xyz123")).
			Return(&catalog.ProductList{Products: []models.Product{classicBoots}}, nil).Once()

		resp, err := h.search.Search(ctx, "xyz123", false)

		require.NoError(t, err)
		assert.False(t, resp.Specific)
		assert.Equal(t, []models.SearchResultKey{{ID: 42, Type: models.TypeProduct}}, resultKeys(resp.Results))
	})

	t.Run("Success - Cached results skip the network", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		ctx := sessionContext(t, "s1")
		withCategories(h)
		h.catalog.On("Products", mock.Anything, searchQuery("Leather Boots")).
			Return(&catalog.ProductList{Products: []models.Product{classicBoots}}, nil).Once()

		_, err := h.search.Search(ctx, "Leather Boots", false)
		require.NoError(t, err)

		// Act
		resp, err := h.search.Search(ctx, "  leather BOOTS ", false)

		// Assert
		require.NoError(t, err)
		assert.True(t, resp.Cached)
		assert.Len(t, resp.Results, 2)
		h.catalog.AssertNumberOfCalls(t, "Products", 1)

		entry, err := h.store.Get(ctx, repository.PartitionSearchResults, cache.SearchKey("leather boots"))
		require.NoError(t, err)
		assert.NotNil(t, entry)
	})

	t.Run("Success - Local and remote results are deduplicated local-first", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		ctx := sessionContext(t, "s1")
		withCategories(h)
		local := classicBoots
		local.Price = "79.00"
		_, err := h.store.Put(ctx, repository.PartitionProducts, "42", local)
		require.NoError(t, err)

		other := models.Product{ID: 43, Name: "Rubber Boots", Slug: "rubber-boots", Type: models.TypeProduct}
		h.catalog.On("Products", mock.Anything, searchQuery("boots")).
			Return(&catalog.ProductList{Products: []models.Product{classicBoots, other}}, nil).Once()

		// Act
		resp, err := h.search.Search(ctx, "boots", false)

		// Assert
		require.NoError(t, err)
		keys := resultKeys(resp.Results)
		assert.Equal(t, models.SearchResultKey{ID: 42, Type: models.TypeProduct}, keys[0])
		assert.Equal(t, "79.00", resp.Results[0].Product.Price, "local result wins")
		assert.Contains(t, keys, models.SearchResultKey{ID: 43, Type: models.TypeProduct})

		seen := map[models.SearchResultKey]int{}
		for _, k := range keys {
			seen[k]++
		}
		for k, n := range seen {
			assert.Equal(t, 1, n, "duplicate %v", k)
		}
	})

	t.Run("Failure - Remote error keeps local results", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		ctx := sessionContext(t, "s1")
		withCategories(h)
		uncategorized := models.Product{ID: 42, Name: "Leather Boots Classic", Slug: "leather-boots-classic"}
		_, err := h.store.Put(ctx, repository.PartitionProducts, "42", uncategorized)
		require.NoError(t, err)
		h.catalog.On("Products", mock.Anything, searchQuery("classic")).
			Return(nil, appErrors.FetchFailedError("Could not reach the catalog")).Once()

		// Act
		resp, err := h.search.Search(ctx, "classic", false)

		// Assert
		assert.True(t, appErrors.IsFetchFailed(err))
		require.Len(t, resp.Results, 1)
		assert.Equal(t, int64(42), resp.Results[0].ID())
		assert.NotEmpty(t, resp.Error)

		entry, err := h.store.Get(ctx, repository.PartitionSearchResults, cache.SearchKey("classic"))
		require.NoError(t, err)
		assert.Nil(t, entry, "partial results are not cached")
	})

	t.Run("Success - Short query matches the popular list", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		ctx := sessionContext(t, "s1")
		withCategories(h)
		popular := []models.Product{
			{ID: 1, Name: "Cap", Slug: "cap", Type: models.TypeProduct},
			{ID: 2, Name: "Scarf", Slug: "scarf", Type: models.TypeProduct},
		}
		_, err := h.store.Put(ctx, repository.PartitionPopularSearches, cache.PopularKey, popular)
		require.NoError(t, err)
		h.catalog.On("Products", mock.Anything, searchQuery("cap")).
			Return(&catalog.ProductList{Products: []models.Product{}}, nil).Once()

		// Act
		resp, err := h.search.Search(ctx, "cap", false)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []models.SearchResultKey{{ID: 1, Type: models.TypeProduct}}, resultKeys(resp.Results))
	})

	t.Run("Success - Enough local results skip the remote pass", func(t *testing.T) {
		h := newHarness(t)
		ctx := sessionContext(t, "s1")
		withCategories(h)
		for i := int64(1); i <= 6; i++ {
			_, err := h.store.Put(ctx, repository.PartitionProducts, strconv.FormatInt(i, 10), models.Product{ID: i, Name: "Wool Sock", Slug: "sock"})
			require.NoError(t, err)
		}

		resp, err := h.search.Search(ctx, "sock", false)

		require.NoError(t, err)
		assert.Len(t, resp.Results, 5)
		h.catalog.AssertNotCalled(t, "Products", mock.Anything, mock.Anything)
	})
}

func TestPopular(t *testing.T) {
	h := newHarness(t)
	ctx := sessionContext(t, "s1")
	popular := []models.Product{{ID: 1, Name: "Cap", Slug: "cap"}}
	h.catalog.On("Products", mock.Anything, catalog.ProductQuery{OrderBy: "popularity", PerPage: 10, Timeout: testConfig().Catalog.Timeout}).
		Return(&catalog.ProductList{Products: popular}, nil).Once()

	first, err := h.search.Popular(ctx)
	require.NoError(t, err)
	second, err := h.search.Popular(ctx)
	require.NoError(t, err)

	assert.Equal(t, popular, first)
	assert.Equal(t, popular, second)
	h.catalog.AssertNumberOfCalls(t, "Products", 1)
}
