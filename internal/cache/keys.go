package cache

import (
	"fmt"
	"strings"
)

const (
	CategoryKeyPrefix = "category"
	ProductKeyPrefix  = "product"
	RelatedKeyPrefix  = "related"
	ImageKeyPrefix    = "image"
	SearchKeyPrefix   = "search"

	CategoriesMinimalKey = "categories_minimal"
	CartKey              = "cart"
	PopularKey           = "popular"
	InitialProductsKey   = "initial_products"
)

func Key(prefix string, id string) string {
	return prefix + "_" + id
}

func CategoryKey(slug string) string {
	return Key(CategoryKeyPrefix, slug)
}

func ProductKey(slug string) string {
	return Key(ProductKeyPrefix, slug)
}

func RelatedKey(slug string) string {
	return Key(RelatedKeyPrefix, slug)
}

func ImageKey(slug string) string {
	return Key(ImageKeyPrefix, slug)
}

// ProductsPageKey is the session key for one page of a category listing.
func ProductsPageKey(slug string, page int) string {
	return fmt.Sprintf("products_%s_page_%d", slug, page)
}

// PageKey is the durable key for one page of a category listing. Each
// (category, page) pair is cached and invalidated on its own.
func PageKey(slug string, page int) string {
	return fmt.Sprintf("%s:%d", slug, page)
}

// NormalizeQuery lowercases and trims a search query.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func SearchKey(query string) string {
	return Key(SearchKeyPrefix, NormalizeQuery(query))
}

// CartItemKey scopes a durable cart row to its session.
func CartItemKey(sessionID string, productID int64) string {
	return fmt.Sprintf("%s%d", CartPrefix(sessionID), productID)
}

func CartPrefix(sessionID string) string {
	return sessionID + "/"
}
