package api

import (
	"net/http"

	"github.com/aaravmahajanofficial/storefront-cache/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront-cache/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cache/internal/metrics"
	service "github.com/aaravmahajanofficial/storefront-cache/internal/services"
)

type Services struct {
	Catalog service.CatalogService
	Cart    service.CartService
	Search  service.SearchService
}

// NewRouter registers the storefront routes. Every API route is wrapped in
// the metrics, session and refresh limit middleware; /metrics and /health
// are not. A nil limiter disables refresh limiting.
func NewRouter(services *Services, healthHandler http.Handler, limiter middleware.RefreshLimiter) http.Handler {

	catalogHandler := handlers.NewCatalogHandler(services.Catalog)
	cartHandler := handlers.NewCartHandler(services.Cart)
	searchHandler := handlers.NewSearchHandler(services.Search)

	routerMux := http.NewServeMux()

	refreshLimit := middleware.RefreshLimit(limiter)

	route := func(pattern string, h http.HandlerFunc) {
		routerMux.Handle(pattern, metrics.Middleware(middleware.Session(refreshLimit(h))))
	}

	route("GET /api/v1/categories", catalogHandler.Categories())
	route("GET /api/v1/categories/{slug}", catalogHandler.Category())
	route("GET /api/v1/categories/{slug}/products", catalogHandler.CategoryProducts())
	route("GET /api/v1/categories/{slug}/related", catalogHandler.RelatedProducts())
	route("GET /api/v1/products/{slug}", catalogHandler.Product())
	route("GET /api/v1/preload", catalogHandler.Preload())
	route("POST /api/v1/images/preload", catalogHandler.PreloadImages())
	route("GET /api/v1/images/{slug}", catalogHandler.Image())
	route("POST /api/v1/cache/maintenance", catalogHandler.Maintenance())
	route("DELETE /api/v1/cache", catalogHandler.ClearCache())
	route("GET /api/v1/search", searchHandler.Search())
	route("GET /api/v1/search/popular", searchHandler.Popular())
	route("GET /api/v1/cart", cartHandler.GetCart())
	route("POST /api/v1/cart/items", cartHandler.AddItem())
	route("DELETE /api/v1/cart/items/{id}", cartHandler.RemoveItem())
	route("DELETE /api/v1/cart", cartHandler.ClearCart())

	routerMux.Handle("GET /metrics", metrics.Handler())
	if healthHandler != nil {
		routerMux.Handle("GET /health", healthHandler)
	}

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = middleware.Logging(handler)

	return handler
}
