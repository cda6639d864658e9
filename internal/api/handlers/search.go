package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-cache/internal/api/middleware"
	service "github.com/aaravmahajanofficial/storefront-cache/internal/services"
	"github.com/aaravmahajanofficial/storefront-cache/internal/utils"
)

type SearchHandler struct {
	searchService service.SearchService
}

func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search godoc
//	@Summary		Search products and categories
//	@Description	Cached results first, then the catalog. Categories are included only for specific queries.
//	@Tags			Search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			refresh	query		bool	false	"Bypass cached results"
//	@Success		200		{object}	response.APIResponse{data=models.SearchResponse}
//	@Router			/search [get]
func (h *SearchHandler) Search() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		query := r.URL.Query().Get("q")
		logger := middleware.LoggerFromContext(r.Context()).With(slog.String("query", query))

		result, err := h.searchService.Search(r.Context(), query, utils.ForceRefresh(r))
		respond(w, logger, result, result != nil, err)
	}
}

func (h *SearchHandler) Popular() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		products, err := h.searchService.Popular(r.Context())
		respond(w, logger, products, products != nil, err)
	}
}
