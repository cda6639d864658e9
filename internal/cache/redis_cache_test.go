package cache_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront-cache/internal/cache"
	"github.com/aaravmahajanofficial/storefront-cache/internal/config"
	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (cache.Cache, redismock.ClientMock, *config.CacheConfig) {
	t.Helper()

	client, mock := redismock.NewClientMock()
	cfg := &config.CacheConfig{
		DefaultTTL: 24 * time.Hour,
	}
	redisCache := cache.NewRedisCache(client, cfg)

	return redisCache, mock, cfg
}

func TestNewRedisCache(t *testing.T) {
	redisCache, _, _ := setup(t)
	assert.NotNil(t, redisCache, "NewRedisCache should return a non-nil Cache instance")
}

func TestGet(t *testing.T) {
	ctx := t.Context()
	testKey := cache.CategoryKey("shoes")
	testValue := models.Category{ID: 12, Name: "Shoes", Slug: "shoes", Type: models.TypeCategory}
	jsonData, err := json.Marshal(testValue)
	require.NoError(t, err)

	t.Run("Success - Key Found", func(t *testing.T) {
		// Arrange
		redisCache, mock, _ := setup(t)

		var result models.Category

		mock.ExpectGet(testKey).SetVal(string(jsonData))

		// Act
		found, err := redisCache.Get(ctx, testKey, &result)

		// Assert
		require.NoError(t, err, "Get should not return an error on success")
		assert.True(t, found, "Get should return found=true when key exists")
		assert.Equal(t, testValue, result, "Get should correctly unmarshal the data")
		assert.NoError(t, mock.ExpectationsWereMet(), "Redis mock expectations not met")
	})

	t.Run("Success - Key Not Found (Cache Miss)", func(t *testing.T) {
		// Arrange
		redisCache, mock, _ := setup(t)

		var result models.Category

		mock.ExpectGet(testKey).SetErr(redis.Nil)

		// Act
		found, err := redisCache.Get(ctx, testKey, &result)

		// Assert
		require.NoError(t, err, "Get should not return an error on cache miss")
		assert.False(t, found, "Get should return found=false on cache miss")
		assert.Empty(t, result, "Result should be zero value on cache miss")
		assert.NoError(t, mock.ExpectationsWereMet(), "Redis mock expectations not met")
	})

	t.Run("Failure - Redis Error", func(t *testing.T) {
		// Arrange
		redisCache, mock, _ := setup(t)

		var result models.Category

		expectedErr := errors.New("redis connection error")

		mock.ExpectGet(testKey).SetErr(expectedErr)

		// Act
		found, err := redisCache.Get(ctx, testKey, &result)

		// Assert
		require.Error(t, err, "Get should return an error when Redis fails")
		assert.False(t, found, "Get should return found=false on Redis error")
		assert.ErrorIs(t, err, expectedErr, "Error should wrap the original Redis error")
		assert.Contains(t, err.Error(), fmt.Sprintf("failed to get key %s from redis", testKey), "Error message mismatch")
		assert.NoError(t, mock.ExpectationsWereMet(), "Redis mock expectations not met")
	})

	t.Run("Failure - Object where array expected", func(t *testing.T) {
		// Arrange
		redisCache, mock, _ := setup(t)

		var result []models.Category

		mock.ExpectGet(cache.CategoriesMinimalKey).SetVal(`{"id": 1, "name": "not a list"}`)

		// Act
		found, err := redisCache.Get(ctx, cache.CategoriesMinimalKey, &result)

		// Assert
		require.Error(t, err, "Get should return an error on unmarshal failure")
		assert.False(t, found, "Get should return found=false on unmarshal error")

		var jsonErr *json.UnmarshalTypeError

		assert.ErrorAs(t, err, &jsonErr, "Error should be a json.UnmarshalTypeError")
		assert.Contains(t, err.Error(), "failed to unmarshal cache data for key "+cache.CategoriesMinimalKey)
		assert.NoError(t, mock.ExpectationsWereMet(), "Redis mock expectations not met")
	})
}

func TestSet(t *testing.T) {
	ctx := t.Context()
	testKey := cache.ProductKey("leather-boots")
	testValue := models.Product{ID: 3, Name: "Leather Boots", Slug: "leather-boots", Price: "89.00"}
	jsonData, err := json.Marshal(testValue)
	require.NoError(t, err)

	t.Run("Success - With Specific TTL", func(t *testing.T) {
		// Arrange
		redisCache, mock, _ := setup(t)
		specificTTL := 5 * time.Minute

		mock.ExpectSet(testKey, jsonData, specificTTL).SetVal("OK")

		// Act
		err := redisCache.Set(ctx, testKey, testValue, specificTTL)

		// Assert
		require.NoError(t, err, "Set should not return an error on success")
		assert.NoError(t, mock.ExpectationsWereMet(), "Redis mock expectations not met")
	})

	t.Run("Success - With Default TTL (ttl=0)", func(t *testing.T) {
		// Arrange
		redisCache, mock, cfg := setup(t)

		mock.ExpectSet(testKey, jsonData, cfg.DefaultTTL).SetVal("OK")

		// Act
		err := redisCache.Set(ctx, testKey, testValue, 0)

		// Assert
		require.NoError(t, err, "Set should not return an error when using default TTL")
		assert.NoError(t, mock.ExpectationsWereMet(), "Redis mock expectations not met")
	})

	t.Run("Failure - Marshal Error", func(t *testing.T) {
		// Arrange
		redisCache, mock, _ := setup(t)
		unmarshallableValue := make(chan int)

		// Act
		err := redisCache.Set(ctx, testKey, unmarshallableValue, 5*time.Minute)

		// Assert
		require.Error(t, err, "Set should return an error for unmarshallable types")
		assert.Contains(t, err.Error(), "failed to marshal value for key "+testKey, "Error message mismatch")

		var jsonErr *json.UnsupportedTypeError

		assert.ErrorAs(t, err, &jsonErr, "Error should be a json.UnsupportedTypeError")
		assert.NoError(t, mock.ExpectationsWereMet(), "Redis mock expectations not met (no calls expected)")
	})

	t.Run("Failure - Redis Error", func(t *testing.T) {
		// Arrange
		redisCache, mock, _ := setup(t)
		specificTTL := 5 * time.Minute
		expectedErr := errors.New("redis SET failed")

		mock.ExpectSet(testKey, jsonData, specificTTL).SetErr(expectedErr)

		// Act
		err := redisCache.Set(ctx, testKey, testValue, specificTTL)

		// Assert
		require.Error(t, err, "Set should return an error when Redis fails")
		assert.ErrorIs(t, err, expectedErr, "Error should wrap the original Redis error")
		assert.Contains(t, err.Error(), fmt.Sprintf("failed to set key %s in redis", testKey), "Error message mismatch")
		assert.NoError(t, mock.ExpectationsWereMet(), "Redis mock expectations not met")
	})
}

func TestDelete(t *testing.T) {
	ctx := t.Context()
	testKey := cache.RelatedKey("shoes")

	t.Run("Success", func(t *testing.T) {
		// Arrange
		redisCache, mock, _ := setup(t)

		mock.ExpectDel(testKey).SetVal(1)

		// Act
		err := redisCache.Delete(ctx, testKey)

		// Assert
		require.NoError(t, err, "Delete should not return an error on success")
		assert.NoError(t, mock.ExpectationsWereMet(), "Redis mock expectations not met")
	})

	t.Run("Failure - Redis Error", func(t *testing.T) {
		// Arrange
		redisCache, mock, _ := setup(t)
		expectedErr := errors.New("redis DEL failed")

		mock.ExpectDel(testKey).SetErr(expectedErr)

		// Act
		err := redisCache.Delete(ctx, testKey)

		// Assert
		require.Error(t, err, "Delete should return an error when Redis fails")
		assert.ErrorIs(t, err, expectedErr, "Error should wrap the original Redis error")
		assert.Contains(t, err.Error(), fmt.Sprintf("failed to delete key %s from redis", testKey), "Error message mismatch")
		assert.NoError(t, mock.ExpectationsWereMet(), "Redis mock expectations not met")
	})
}

func TestClose(t *testing.T) {
	// Arrange
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	redisCache := cache.NewRedisCache(client, &config.CacheConfig{DefaultTTL: 24 * time.Hour})

	// Act
	err := redisCache.Close()

	// Assert
	require.NoError(t, err)
	assert.ErrorIs(t, client.Ping(t.Context()).Err(), redis.ErrClosed, "Close should release the shared client")
}

func TestPreferenceTier(t *testing.T) {
	ctx := t.Context()
	categories := []models.Category{
		{ID: 7, Name: "Shoes", Slug: "shoes", Image: "/placeholder.jpg", Type: models.TypeCategory},
		{ID: 9, Name: "Bags", Slug: "bags", Image: "/placeholder.jpg", Type: models.TypeCategory},
	}
	jsonData, err := json.Marshal(categories)
	require.NoError(t, err)

	t.Run("Success - Minimal categories kept for a day", func(t *testing.T) {
		// Arrange
		client, mock := redismock.NewClientMock()
		preferences := cache.NewRedisCache(client, &config.CacheConfig{DefaultTTL: 24 * time.Hour})

		mock.ExpectSet(cache.CategoriesMinimalKey, jsonData, 24*time.Hour).SetVal("OK")
		mock.ExpectGet(cache.CategoriesMinimalKey).SetVal(string(jsonData))

		// Act
		require.NoError(t, preferences.Set(ctx, cache.CategoriesMinimalKey, categories, 0))

		var got []models.Category
		found, err := preferences.Get(ctx, cache.CategoriesMinimalKey, &got)

		// Assert
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, categories, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Object where a category list is expected", func(t *testing.T) {
		// Arrange
		client, mock := redismock.NewClientMock()
		preferences := cache.NewRedisCache(client, &config.CacheConfig{DefaultTTL: 24 * time.Hour})

		mock.ExpectGet(cache.CategoriesMinimalKey).SetVal(`{"id":7,"name":"Shoes"}`)

		// Act
		var got []models.Category
		found, err := preferences.Get(ctx, cache.CategoriesMinimalKey, &got)

		// Assert
		require.Error(t, err)
		assert.False(t, found)
		assert.Empty(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "category_shoes", cache.CategoryKey("shoes"))
	assert.Equal(t, "product_leather-boots", cache.ProductKey("leather-boots"))
	assert.Equal(t, "related_shoes", cache.RelatedKey("shoes"))
	assert.Equal(t, "image_leather-boots", cache.ImageKey("leather-boots"))
	assert.Equal(t, "products_shoes_page_2", cache.ProductsPageKey("shoes", 2))
	assert.Equal(t, "shoes:1", cache.PageKey("shoes", 1))
	assert.NotEqual(t, cache.PageKey("shoes", 1), cache.PageKey("shoes", 2))
	assert.Equal(t, "search_leather boots", cache.SearchKey("  Leather Boots "))
	assert.Equal(t, "sess-1/42", cache.CartItemKey("sess-1", 42))
	assert.Equal(t, "sess-1/", cache.CartPrefix("sess-1"))
}
