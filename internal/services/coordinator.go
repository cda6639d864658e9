package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/aaravmahajanofficial/storefront-cache/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cache/internal/cache"
	"github.com/aaravmahajanofficial/storefront-cache/internal/catalog"
	"github.com/aaravmahajanofficial/storefront-cache/internal/config"
	appErrors "github.com/aaravmahajanofficial/storefront-cache/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-cache/internal/repositories"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	entityCategory   = "category"
	entityCategories = "categories_minimal"
	entityProduct    = "product"
	entityPage       = "products_page"
	entityRelated    = "related"
	entityPreload    = "initial_products"
	entityImage      = "image"

	categoriesMinimalPerPage = 100
	relatedPerPage           = 10
	initialProductsPerPage   = 5
)

// CatalogService serves catalog entities through the tier waterfall,
// falling back to the catalog API only when every tier misses. Results that
// come back together with an error are the best local value available.
type CatalogService interface {
	CategoryBySlug(ctx context.Context, slug string, forceRefresh bool) (*models.Category, error)
	ProductBySlug(ctx context.Context, slug string, forceRefresh bool) (*models.Product, error)
	ProductsByCategory(ctx context.Context, slug string, page int, forceRefresh bool) (*models.ProductPage, error)
	CategoriesMinimal(ctx context.Context, forceRefresh bool) ([]models.Category, error)
	RelatedProducts(ctx context.Context, slug string, forceRefresh bool) ([]models.Product, error)
	PreloadInitialData(ctx context.Context, forceRefresh bool) (*models.Preload, error)
	PreloadImages(ctx context.Context, images []models.ImageRef) error
	Image(ctx context.Context, slug string) (*models.ImageRef, error)
	ClearExpired(ctx context.Context) (map[string]int64, error)
	ClearAll(ctx context.Context) error
}

type coordinator struct {
	*tiers
	catalog catalog.Client
	perPage int
}

func NewCoordinator(store repository.DurableStore, prefs cache.Cache, sessions cache.SessionScoper, client catalog.Client, cfg *config.Config) CatalogService {
	return &coordinator{
		tiers: &tiers{
			store:      store,
			prefs:      prefs,
			sessions:   sessions,
			sessionTTL: cfg.Cache.SessionTTL,
		},
		catalog: client,
		perPage: cfg.Catalog.PerPage,
	}
}

func nonEmpty[T any](items []T) bool {
	return len(items) > 0
}

func (c *coordinator) categoryRead(slug string) tieredRead[models.Category] {
	valid := func(cat models.Category) bool { return cat.Slug == slug }

	return tieredRead[models.Category]{
		entity:     entityCategory,
		key:        cache.CategoryKey(slug),
		session:    true,
		preference: true,
		valid:      valid,
		durable: func(ctx context.Context) (models.Category, int64, bool) {
			return lookupDurable(ctx, c.store, entityCategory, repository.PartitionCategories, slug, valid)
		},
	}
}

func (c *coordinator) CategoryBySlug(ctx context.Context, slug string, forceRefresh bool) (*models.Category, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.CategoryBySlug", trace.WithAttributes(
		attribute.String("category.slug", slug),
		attribute.Bool("force_refresh", forceRefresh),
	))
	defer span.End()

	read := c.categoryRead(slug)

	stale, found, version := waterfall(ctx, c.tiers, read, forceRefresh)
	if found && !forceRefresh {
		return &stale, nil
	}

	category, err := c.catalog.CategoryBySlug(ctx, slug)
	if err != nil {
		recordError(span, err)
		if found && !appErrors.IsNotFound(err) {
			return &stale, err
		}
		return nil, err
	}

	c.writeDurable(ctx, entityCategory, version, repository.Record{
		Partition: repository.PartitionCategories, Key: slug, Value: category,
	})
	writeThrough(ctx, c.tiers, read, *category)

	return category, nil
}

func (c *coordinator) ProductBySlug(ctx context.Context, slug string, forceRefresh bool) (*models.Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.ProductBySlug", trace.WithAttributes(
		attribute.String("product.slug", slug),
		attribute.Bool("force_refresh", forceRefresh),
	))
	defer span.End()

	valid := func(p models.Product) bool { return p.Slug == slug }
	read := tieredRead[models.Product]{
		entity:     entityProduct,
		key:        cache.ProductKey(slug),
		session:    true,
		preference: true,
		valid:      valid,
		durable: func(ctx context.Context) (models.Product, int64, bool) {
			return c.productBySlugScan(ctx, slug)
		},
	}

	stale, found, version := waterfall(ctx, c.tiers, read, forceRefresh)
	if found && !forceRefresh {
		return &stale, nil
	}

	product, err := c.catalog.ProductBySlug(ctx, slug)
	if err != nil {
		recordError(span, err)
		if found && !appErrors.IsNotFound(err) {
			return &stale, err
		}
		return nil, err
	}

	c.writeDurable(ctx, entityProduct, version, productRecord(*product))
	writeThrough(ctx, c.tiers, read, *product)

	return product, nil
}

// productBySlugScan finds a product in the durable products partition, which
// is keyed by id.
func (c *coordinator) productBySlugScan(ctx context.Context, slug string) (models.Product, int64, bool) {
	entries, err := c.store.List(ctx, repository.PartitionProducts, "")
	if err != nil {
		middleware.LoggerFromContext(ctx).Warn("Durable store scan failed",
			slog.String("partition", repository.PartitionProducts),
			slog.String("error", err.Error()),
		)
		return models.Product{}, unknownVersion, false
	}

	for _, entry := range entries {
		var product models.Product
		if err := entry.Decode(&product); err != nil {
			continue
		}
		if product.Slug == slug {
			return product, entry.Version, true
		}
	}

	return models.Product{}, 0, false
}

func productRecord(p models.Product) repository.Record {
	return repository.Record{
		Partition: repository.PartitionProducts,
		Key:       strconv.FormatInt(p.ID, 10),
		Value:     p,
	}
}

func productRecords(products []models.Product) []repository.Record {
	records := make([]repository.Record, 0, len(products))
	for _, p := range products {
		records = append(records, productRecord(p))
	}

	return records
}

func emptyPage(page int, err error) *models.ProductPage {
	return &models.ProductPage{
		Products:    []models.Product{},
		CurrentPage: page,
		Error:       err.Error(),
	}
}

func (c *coordinator) ProductsByCategory(ctx context.Context, slug string, page int, forceRefresh bool) (*models.ProductPage, error) {
	if page < 1 {
		page = 1
	}

	ctx, span := tracer.Start(ctx, "CatalogService.ProductsByCategory", trace.WithAttributes(
		attribute.String("category.slug", slug),
		attribute.Int("page", page),
		attribute.Bool("force_refresh", forceRefresh),
	))
	defer span.End()

	// An unknown category is terminal. Other lookup failures fall back to a
	// cached page.
	category, categoryErr := c.CategoryBySlug(ctx, slug, false)
	if categoryErr != nil && appErrors.IsNotFound(categoryErr) {
		recordError(span, categoryErr)
		return emptyPage(page, categoryErr), categoryErr
	}

	pageKey := cache.PageKey(slug, page)
	valid := func(p models.ProductPage) bool { return p.HasProducts() }
	read := tieredRead[models.ProductPage]{
		entity:  entityPage,
		key:     cache.ProductsPageKey(slug, page),
		session: true,
		valid:   valid,
		durable: func(ctx context.Context) (models.ProductPage, int64, bool) {
			return lookupDurable(ctx, c.store, entityPage, repository.PartitionProductsByCategory, pageKey, valid)
		},
	}

	stale, found, version := waterfall(ctx, c.tiers, read, forceRefresh)
	if categoryErr != nil {
		recordError(span, categoryErr)
		if found {
			stale.CurrentPage = page
			stale.Stale = true
			stale.Error = categoryErr.Error()
			return &stale, categoryErr
		}
		return emptyPage(page, categoryErr), categoryErr
	}

	if found && !forceRefresh {
		stale.CurrentPage = page
		return &stale, nil
	}

	list, err := c.catalog.Products(ctx, catalog.ProductQuery{
		CategoryID: category.ID,
		Page:       page,
		PerPage:    c.perPage,
		OrderBy:    "date",
		Order:      "desc",
	})
	if err != nil {
		recordError(span, err)
		if found {
			stale.CurrentPage = page
			stale.Stale = true
			stale.Error = err.Error()
			return &stale, err
		}
		return emptyPage(page, err), err
	}

	result := models.ProductPage{
		Products:    list.Products,
		Total:       list.Total,
		TotalPages:  list.TotalPages,
		CurrentPage: page,
	}

	records := append([]repository.Record{{
		Partition: repository.PartitionProductsByCategory, Key: pageKey, Value: result,
	}}, productRecords(list.Products)...)

	c.writeDurable(ctx, entityPage, version, records...)
	writeThrough(ctx, c.tiers, read, result)

	return &result, nil
}

func (c *coordinator) categoriesRead() tieredRead[[]models.Category] {
	valid := nonEmpty[models.Category]

	return tieredRead[[]models.Category]{
		entity:     entityCategories,
		key:        cache.CategoriesMinimalKey,
		session:    true,
		preference: true,
		valid:      valid,
		durable: func(ctx context.Context) ([]models.Category, int64, bool) {
			return lookupDurable(ctx, c.store, entityCategories, repository.PartitionCategoriesMinimal, cache.CategoriesMinimalKey, valid)
		},
	}
}

func (c *coordinator) CategoriesMinimal(ctx context.Context, forceRefresh bool) ([]models.Category, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.CategoriesMinimal", trace.WithAttributes(
		attribute.Bool("force_refresh", forceRefresh),
	))
	defer span.End()

	read := c.categoriesRead()

	stale, found, version := waterfall(ctx, c.tiers, read, forceRefresh)
	if found && !forceRefresh {
		return stale, nil
	}

	categories, err := c.catalog.Categories(ctx, categoriesMinimalPerPage)
	if err != nil {
		recordError(span, err)
		if found {
			return stale, err
		}
		return []models.Category{}, err
	}

	c.writeDurable(ctx, entityCategories, version, repository.Record{
		Partition: repository.PartitionCategoriesMinimal, Key: cache.CategoriesMinimalKey, Value: categories,
	})
	writeThrough(ctx, c.tiers, read, categories)

	return categories, nil
}

func (c *coordinator) RelatedProducts(ctx context.Context, slug string, forceRefresh bool) ([]models.Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.RelatedProducts", trace.WithAttributes(
		attribute.String("category.slug", slug),
		attribute.Bool("force_refresh", forceRefresh),
	))
	defer span.End()

	read := tieredRead[[]models.Product]{
		entity:     entityRelated,
		key:        cache.RelatedKey(slug),
		preference: true,
		valid:      nonEmpty[models.Product],
	}

	stale, found, _ := waterfall(ctx, c.tiers, read, forceRefresh)
	if found && !forceRefresh {
		return stale, nil
	}

	category, err := c.CategoryBySlug(ctx, slug, forceRefresh)
	if err != nil {
		recordError(span, err)
		if found && !appErrors.IsNotFound(err) {
			return stale, err
		}
		return []models.Product{}, err
	}

	list, err := c.catalog.Products(ctx, catalog.ProductQuery{CategoryID: category.ID, PerPage: relatedPerPage})
	if err != nil {
		recordError(span, err)
		if found {
			return stale, err
		}
		return []models.Product{}, err
	}

	c.writeDurable(ctx, entityRelated, unknownVersion, productRecords(list.Products)...)
	writeThrough(ctx, c.tiers, read, list.Products)

	return list.Products, nil
}

func (c *coordinator) PreloadInitialData(ctx context.Context, forceRefresh bool) (*models.Preload, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.PreloadInitialData", trace.WithAttributes(
		attribute.Bool("force_refresh", forceRefresh),
	))
	defer span.End()

	preload := &models.Preload{Categories: []models.Category{}, Products: []models.Product{}}

	categories, catErr := c.CategoriesMinimal(ctx, forceRefresh)
	preload.Categories = categories

	valid := func(p models.ProductPage) bool { return p.HasProducts() }
	cached, version, found := lookupDurable(ctx, c.store, entityPreload, repository.PartitionProductsByCategory, cache.InitialProductsKey, valid)
	if found {
		preload.Products = cached.Products
	}

	if found && !forceRefresh {
		if catErr != nil {
			preload.Error = catErr.Error()
		}
		return preload, catErr
	}

	list, err := c.catalog.Products(ctx, catalog.ProductQuery{
		PerPage: initialProductsPerPage,
		OrderBy: "date",
		Order:   "desc",
	})
	if err != nil {
		recordError(span, err)
		err = errors.Join(catErr, err)
		preload.Error = err.Error()
		return preload, err
	}

	initial := models.ProductPage{Products: list.Products, Total: len(list.Products), TotalPages: 1, CurrentPage: 1}
	records := append([]repository.Record{{
		Partition: repository.PartitionProductsByCategory, Key: cache.InitialProductsKey, Value: initial,
	}}, productRecords(list.Products)...)

	c.writeDurable(ctx, entityPreload, version, records...)
	preload.Products = list.Products

	if catErr != nil {
		recordError(span, catErr)
		preload.Error = catErr.Error()
	}

	return preload, catErr
}

// PreloadImages stores image references in product_images and preload_images
// in one transaction, then mirrors them into the preference tier.
func (c *coordinator) PreloadImages(ctx context.Context, images []models.ImageRef) error {
	ctx, span := tracer.Start(ctx, "CatalogService.PreloadImages", trace.WithAttributes(
		attribute.Int("images", len(images)),
	))
	defer span.End()

	if len(images) == 0 {
		return nil
	}

	records := make([]repository.Record, 0, len(images)*2)
	for _, img := range images {
		records = append(records,
			repository.Record{Partition: repository.PartitionProductImages, Key: img.Slug, Value: img},
			repository.Record{Partition: repository.PartitionPreloadImages, Key: img.Slug, Value: img},
		)
	}

	if _, err := c.store.PutBatch(ctx, records); err != nil {
		recordError(span, err)
		if _, ok := appErrors.IsAppError(err); ok {
			return err
		}
		return appErrors.DatabaseError("Failed to store preloaded images").WithError(err)
	}

	for _, img := range images {
		c.writeCache(ctx, c.prefs, tierPreference, entityImage, cache.ImageKey(img.Slug), img)
	}

	return nil
}

func (c *coordinator) Image(ctx context.Context, slug string) (*models.ImageRef, error) {
	valid := func(ref models.ImageRef) bool { return ref.Slug == slug && ref.Image != "" }
	read := tieredRead[models.ImageRef]{
		entity:     entityImage,
		key:        cache.ImageKey(slug),
		preference: true,
		valid:      valid,
		durable: func(ctx context.Context) (models.ImageRef, int64, bool) {
			return lookupDurable(ctx, c.store, entityImage, repository.PartitionProductImages, slug, valid)
		},
	}

	ref, found, _ := waterfall(ctx, c.tiers, read, false)
	if !found {
		return nil, appErrors.NotFoundError("Image not cached").WithDetail(slug)
	}

	return &ref, nil
}

// ClearExpired sweeps every durable partition. A failing partition does not
// stop the sweep; the first error is returned with the counts gathered.
func (c *coordinator) ClearExpired(ctx context.Context) (map[string]int64, error) {
	logger := middleware.LoggerFromContext(ctx)
	removed := make(map[string]int64)
	var firstErr error

	for _, partition := range repository.Partitions() {
		n, err := c.store.ClearExpired(ctx, partition)
		if err != nil {
			logger.Error("Failed to clear expired entries",
				slog.String("partition", partition),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = appErrors.DatabaseError("Failed to clear expired entries").WithError(err)
			}
			continue
		}
		removed[partition] = n
	}

	logger.Info("Expired entries cleared", slog.Any("removed", removed))

	return removed, firstErr
}

func (c *coordinator) ClearAll(ctx context.Context) error {
	if err := c.store.ClearAll(ctx); err != nil {
		return appErrors.DatabaseError("Failed to clear durable store").WithError(err)
	}

	c.sessions.Purge(cache.SessionIDFromContext(ctx))
	middleware.LoggerFromContext(ctx).Info("Cache cleared")

	return nil
}
