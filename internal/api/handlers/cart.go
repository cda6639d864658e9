package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-cache/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/storefront-cache/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	service "github.com/aaravmahajanofficial/storefront-cache/internal/services"
	"github.com/aaravmahajanofficial/storefront-cache/internal/utils"
	"github.com/aaravmahajanofficial/storefront-cache/internal/utils/response"
)

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// GetCart godoc
//	@Summary		Get the session's cart
//	@Tags			Cart
//	@Produce		json
//	@Param			X-Session-ID	header		string	false	"Session id"
//	@Success		200				{object}	response.APIResponse{data=models.CartResponse}
//	@Router			/cart [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		cart, err := h.cartService.Cart(r.Context())
		if err != nil {
			logger.Error("Failed to load cart", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart.Response())
	}
}

// AddItem godoc
//	@Summary		Add a product to the cart
//	@Description	Adding a product already in the cart increments its quantity.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddItemRequest	true	"Product to add"
//	@Success		200		{object}	response.APIResponse{data=models.CartResponse}
//	@Failure		400		{object}	response.ErrorResponse	"Invalid item"
//	@Router			/cart/items [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.AddItemRequest
		if err := utils.DecodeJSONBody(r, &req); err != nil {
			response.Error(w, appErrors.InvalidInputError("Invalid request body").WithDetail(err.Error()))
			return
		}

		cart, err := h.cartService.AddItem(r.Context(), &req)
		if err != nil {
			logger.Warn("Failed to add cart item", slog.Int64("productId", req.ID), slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Cart item added", slog.Int64("productId", req.ID))
		response.Success(w, http.StatusOK, cart.Response())
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid product id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		cart, err := h.cartService.RemoveItem(r.Context(), id)
		if err != nil {
			logger.Error("Failed to remove cart item", slog.Int64("productId", id), slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart.Response())
	}
}

func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		cart, err := h.cartService.Clear(r.Context())
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Failed to clear cart", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart.Response())
	}
}
