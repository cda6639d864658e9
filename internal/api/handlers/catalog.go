package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-cache/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	service "github.com/aaravmahajanofficial/storefront-cache/internal/services"
	"github.com/aaravmahajanofficial/storefront-cache/internal/utils"
	"github.com/aaravmahajanofficial/storefront-cache/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CatalogHandler struct {
	catalogService service.CatalogService
	validator      *validator.Validate
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, validator: validator.New()}
}

// Categories godoc
//	@Summary		List categories
//	@Description	Minimal category list (id, name, slug) used for navigation and search.
//	@Tags			Catalog
//	@Produce		json
//	@Param			refresh	query		bool	false	"Bypass cached tiers"
//	@Success		200		{object}	response.APIResponse{data=[]models.Category}
//	@Failure		502		{object}	response.ErrorResponse	"Catalog unavailable and nothing cached"
//	@Router			/categories [get]
func (h *CatalogHandler) Categories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		categories, err := h.catalogService.CategoriesMinimal(r.Context(), utils.ForceRefresh(r))
		respond(w, logger, categories, len(categories) > 0, err)
	}
}

// Category godoc
//	@Summary		Get a category by slug
//	@Tags			Catalog
//	@Produce		json
//	@Param			slug	path		string	true	"Category slug"
//	@Success		200		{object}	response.APIResponse{data=models.Category}
//	@Failure		404		{object}	response.ErrorResponse	"Category not found"
//	@Failure		502		{object}	response.ErrorResponse	"Catalog unavailable"
//	@Router			/categories/{slug} [get]
func (h *CatalogHandler) Category() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		slug := r.PathValue("slug")
		logger := middleware.LoggerFromContext(r.Context()).With(slog.String("slug", slug))

		category, err := h.catalogService.CategoryBySlug(r.Context(), slug, utils.ForceRefresh(r))
		respond(w, logger, category, category != nil, err)
	}
}

// CategoryProducts godoc
//	@Summary		List a category's products
//	@Description	One page of products, newest first. A stale page is served with an error when the refresh fails.
//	@Tags			Catalog
//	@Produce		json
//	@Param			slug	path		string	true	"Category slug"
//	@Param			page	query		int		false	"Page number (default: 1)"	minimum(1)
//	@Param			refresh	query		bool	false	"Bypass cached tiers"
//	@Success		200		{object}	response.APIResponse{data=models.ProductPage}
//	@Failure		400		{object}	response.ErrorResponse	"Invalid page"
//	@Failure		404		{object}	response.ErrorResponse	"Category not found"
//	@Router			/categories/{slug}/products [get]
func (h *CatalogHandler) CategoryProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		slug := r.PathValue("slug")
		logger := middleware.LoggerFromContext(r.Context()).With(slog.String("slug", slug))

		page, err := utils.QueryPage(r)
		if err != nil {
			logger.Warn("Invalid page parameter", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		result, err := h.catalogService.ProductsByCategory(r.Context(), slug, page, utils.ForceRefresh(r))
		respond(w, logger, result, result != nil && result.HasProducts(), err)
	}
}

func (h *CatalogHandler) RelatedProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		slug := r.PathValue("slug")
		logger := middleware.LoggerFromContext(r.Context()).With(slog.String("slug", slug))

		products, err := h.catalogService.RelatedProducts(r.Context(), slug, utils.ForceRefresh(r))
		respond(w, logger, products, len(products) > 0, err)
	}
}

// Product godoc
//	@Summary		Get a product by slug
//	@Tags			Catalog
//	@Produce		json
//	@Param			slug	path		string	true	"Product slug"
//	@Success		200		{object}	response.APIResponse{data=models.Product}
//	@Failure		404		{object}	response.ErrorResponse	"Product not found"
//	@Router			/products/{slug} [get]
func (h *CatalogHandler) Product() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		slug := r.PathValue("slug")
		logger := middleware.LoggerFromContext(r.Context()).With(slog.String("slug", slug))

		product, err := h.catalogService.ProductBySlug(r.Context(), slug, utils.ForceRefresh(r))
		respond(w, logger, product, product != nil, err)
	}
}

func (h *CatalogHandler) Preload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		preload, err := h.catalogService.PreloadInitialData(r.Context(), utils.ForceRefresh(r))
		if err != nil && preload != nil {
			// Preload joins category and product failures.
			logger.Warn("Preload incomplete", slog.String("error", err.Error()))
			response.Partial(w, preload, err)
			return
		}

		respond(w, logger, preload, preload != nil, err)
	}
}

func (h *CatalogHandler) PreloadImages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.PreloadImagesRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid image preload input")
			return
		}

		if err := h.catalogService.PreloadImages(r.Context(), req.Images); err != nil {
			logger.Error("Failed to preload images", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Images preloaded", slog.Int("count", len(req.Images)))
		response.Success(w, http.StatusOK, map[string]int{"stored": len(req.Images)})
	}
}

func (h *CatalogHandler) Image() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		slug := r.PathValue("slug")
		logger := middleware.LoggerFromContext(r.Context()).With(slog.String("slug", slug))

		ref, err := h.catalogService.Image(r.Context(), slug)
		respond(w, logger, ref, false, err)
	}
}

func (h *CatalogHandler) Maintenance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		removed, err := h.catalogService.ClearExpired(r.Context())
		if err != nil {
			logger.Error("Maintenance sweep incomplete", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, map[string]any{"removed": removed})
	}
}

func (h *CatalogHandler) ClearCache() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		if err := h.catalogService.ClearAll(r.Context()); err != nil {
			logger.Error("Failed to clear cache", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Cache cleared on request")
		response.Success(w, http.StatusOK, map[string]bool{"cleared": true})
	}
}
