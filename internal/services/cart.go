package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/aaravmahajanofficial/storefront-cache/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cache/internal/cache"
	"github.com/aaravmahajanofficial/storefront-cache/internal/config"
	appErrors "github.com/aaravmahajanofficial/storefront-cache/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cache/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-cache/internal/repositories"
	"github.com/go-playground/validator/v10"
)

const entityCart = "cart"

// CartService keeps one cart per session. The durable tier is authoritative;
// the session tier holds a mirror used when the durable tier has nothing.
type CartService interface {
	Cart(ctx context.Context) (*models.Cart, error)
	AddItem(ctx context.Context, req *models.AddItemRequest) (*models.Cart, error)
	RemoveItem(ctx context.Context, productID int64) (*models.Cart, error)
	Clear(ctx context.Context) (*models.Cart, error)
}

type cartService struct {
	*tiers
	validate *validator.Validate
}

// storedCartItem keeps the position so insertion order survives the
// durable tier's key ordering.
type storedCartItem struct {
	models.CartItem
	Position int `json:"position"`
}

func NewCartService(store repository.DurableStore, sessions cache.SessionScoper, cfg *config.Config, validate *validator.Validate) CartService {
	return &cartService{
		tiers: &tiers{
			store:      store,
			sessions:   sessions,
			sessionTTL: cfg.Cache.SessionTTL,
		},
		validate: validate,
	}
}

func (s *cartService) Cart(ctx context.Context) (*models.Cart, error) {
	cart := s.load(ctx)

	return &cart, nil
}

// load reads the durable rows for the session, falling back to the session
// mirror, which is then copied back into the durable tier.
func (s *cartService) load(ctx context.Context) models.Cart {
	sessionID := cache.SessionIDFromContext(ctx)
	logger := middleware.LoggerFromContext(ctx)

	entries, err := s.store.List(ctx, repository.PartitionCartItems, cache.CartPrefix(sessionID))
	if err != nil {
		logger.Warn("Failed to load cart from durable store", slog.String("error", err.Error()))
	}

	stored := make([]storedCartItem, 0, len(entries))
	for _, entry := range entries {
		var item storedCartItem
		if err := entry.Decode(&item); err != nil || item.ID <= 0 || item.Quantity <= 0 {
			logger.Warn("Skipping malformed cart item", slog.String("key", entry.Key))
			continue
		}
		stored = append(stored, item)
	}

	if len(stored) > 0 {
		slices.SortStableFunc(stored, func(a, b storedCartItem) int { return a.Position - b.Position })

		cart := models.Cart{Items: make([]models.CartItem, 0, len(stored))}
		for _, item := range stored {
			cart.Items = append(cart.Items, item.CartItem)
		}
		s.writeCache(ctx, s.session(ctx), tierSession, entityCart, cache.CartKey, cart)

		return cart
	}

	mirror, ok := lookupCache(ctx, s.session(ctx), tierSession, entityCart, cache.CartKey, func(c models.Cart) bool {
		return len(c.Items) > 0
	})
	if !ok {
		return models.Cart{Items: []models.CartItem{}}
	}

	if err := s.persist(ctx, mirror); err != nil {
		logger.Warn("Failed to resync cart into durable store", slog.String("error", err.Error()))
	}

	return mirror
}

func (s *cartService) persist(ctx context.Context, cart models.Cart) error {
	sessionID := cache.SessionIDFromContext(ctx)

	records := make([]repository.Record, 0, len(cart.Items))
	for i, item := range cart.Items {
		records = append(records, repository.Record{
			Partition: repository.PartitionCartItems,
			Key:       cache.CartItemKey(sessionID, item.ID),
			Value:     storedCartItem{CartItem: item, Position: i},
		})
	}

	return s.store.ReplacePrefix(ctx, repository.PartitionCartItems, cache.CartPrefix(sessionID), records)
}

// save writes the cart through the durable tier, then the session mirror.
// A failed tier write is logged and does not fail the mutation.
func (s *cartService) save(ctx context.Context, cart models.Cart) {
	if err := s.persist(ctx, cart); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Failed to persist cart", slog.String("error", err.Error()))
		metrics.TierWriteFailure(tierDurable, entityCart)
	}

	s.writeCache(ctx, s.session(ctx), tierSession, entityCart, cache.CartKey, cart)
}

func (s *cartService) AddItem(ctx context.Context, req *models.AddItemRequest) (*models.Cart, error) {
	if err := s.validate.Struct(req); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Rejected invalid cart item",
			slog.Int64("product_id", req.ID),
			slog.String("error", err.Error()),
		)
		return nil, appErrors.InvalidInputError("Invalid cart item").WithDetail(validationDetail(err)).WithError(err)
	}

	cart := s.load(ctx)

	if i, ok := cart.Find(req.ID); ok {
		cart.Items[i].Quantity++
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ID:       req.ID,
			Name:     req.Name,
			Price:    req.Price,
			Image:    req.Image,
			Slug:     req.Slug,
			Quantity: 1,
		})
	}

	s.save(ctx, cart)

	return &cart, nil
}

func (s *cartService) RemoveItem(ctx context.Context, productID int64) (*models.Cart, error) {
	cart := s.load(ctx)

	i, ok := cart.Find(productID)
	if !ok {
		return &cart, nil
	}

	cart.Items = slices.Delete(cart.Items, i, i+1)
	s.save(ctx, cart)

	return &cart, nil
}

func (s *cartService) Clear(ctx context.Context) (*models.Cart, error) {
	cart := models.Cart{Items: []models.CartItem{}}
	s.save(ctx, cart)

	return &cart, nil
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed on '%s'", strings.ToLower(fe.Field()), fe.Tag()))
	}

	return strings.Join(fields, "; ")
}
