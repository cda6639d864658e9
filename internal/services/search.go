package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/aaravmahajanofficial/storefront-cache/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cache/internal/cache"
	"github.com/aaravmahajanofficial/storefront-cache/internal/catalog"
	"github.com/aaravmahajanofficial/storefront-cache/internal/config"
	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-cache/internal/repositories"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	entitySearch  = "search"
	entityPopular = "popular"

	popularPerPage = 10
)

type SearchService interface {
	Search(ctx context.Context, query string, forceRefresh bool) (*models.SearchResponse, error)
	Popular(ctx context.Context) ([]models.Product, error)
}

type categoryLister interface {
	CategoriesMinimal(ctx context.Context, forceRefresh bool) ([]models.Category, error)
}

type searchService struct {
	*tiers
	catalog    catalog.Client
	categories categoryLister
	cfg        config.Search
	catalogCfg config.Catalog
}

func NewSearchService(store repository.DurableStore, client catalog.Client, categories categoryLister, cfg *config.Config) SearchService {
	return &searchService{
		tiers:      &tiers{store: store},
		catalog:    client,
		categories: categories,
		cfg:        cfg.Search,
		catalogCfg: cfg.Catalog,
	}
}

func validResults(r models.SearchResponse) bool {
	if len(r.Results) == 0 {
		return false
	}

	for _, result := range r.Results {
		if !result.Valid() {
			return false
		}
	}

	return true
}

func (s *searchService) Search(ctx context.Context, query string, forceRefresh bool) (*models.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &models.SearchResponse{Results: []models.SearchResult{}}, nil
	}

	ctx, span := tracer.Start(ctx, "SearchService.Search", trace.WithAttributes(
		attribute.String("search.query", query),
		attribute.Bool("force_refresh", forceRefresh),
	))
	defer span.End()

	logger := middleware.LoggerFromContext(ctx)

	categories, err := s.categories.CategoriesMinimal(ctx, false)
	if err != nil {
		logger.Warn("Searching without a full category list", slog.String("error", err.Error()))
	}

	key := cache.SearchKey(query)

	if !forceRefresh {
		cached, _, found := lookupDurable(ctx, s.store, entitySearch, repository.PartitionSearchResults, key, validResults)
		if found {
			cached.Query = query
			cached.Cached = true
			return &cached, nil
		}
	}

	local, localSpecific := s.localPredictions(ctx, query, categories)

	var remote []models.SearchResult
	var remoteSpecific bool
	var fetchErr error

	if len(local) < s.cfg.MinLocalResults || forceRefresh {
		remote, remoteSpecific, fetchErr = s.remoteSearch(ctx, query, categories)
	}

	resp := &models.SearchResponse{
		Query:    query,
		Results:  mergeResults(local, remote),
		Specific: localSpecific || remoteSpecific,
	}

	if fetchErr != nil {
		recordError(span, fetchErr)
		resp.Error = fetchErr.Error()
		return resp, fetchErr
	}

	if len(resp.Results) > 0 {
		if _, err := s.store.Put(ctx, repository.PartitionSearchResults, key, resp); err != nil {
			logger.Warn("Failed to persist search results", slog.String("error", err.Error()))
		}
	}

	return resp, nil
}

// localPredictions matches the query against cached data only. Short queries
// try the popular list first.
func (s *searchService) localPredictions(ctx context.Context, query string, categories []models.Category) ([]models.SearchResult, bool) {
	lower := strings.ToLower(query)

	if utf8.RuneCountInString(query) <= s.cfg.ShortQueryLength {
		popular, _, found := lookupDurable(ctx, s.store, entityPopular, repository.PartitionPopularSearches, cache.PopularKey, nonEmpty[models.Product])
		if found {
			if matches := filterByName(popular, lower); len(matches) > 0 {
				return s.capLocal(productResults(matches)), false
			}
		}
	}

	entries, err := s.store.List(ctx, repository.PartitionProducts, "")
	if err != nil {
		middleware.LoggerFromContext(ctx).Warn("Local search skipped", slog.String("error", err.Error()))
		return nil, false
	}

	products := make([]models.Product, 0, len(entries))
	for _, entry := range entries {
		var p models.Product
		if err := entry.Decode(&p); err != nil {
			continue
		}
		products = append(products, p)
	}

	matches := filterByName(products, lower)
	specific := isSpecific(lower, matches, s.cfg.SpecificThreshold)

	results := productResults(matches)
	if specific {
		results = append(results, categoryResults(categories, matches, lower)...)
	}

	return s.capLocal(results), specific
}

func (s *searchService) capLocal(results []models.SearchResult) []models.SearchResult {
	if s.cfg.LocalLimit > 0 && len(results) > s.cfg.LocalLimit {
		return results[:s.cfg.LocalLimit]
	}

	return results
}

func (s *searchService) remoteSearch(ctx context.Context, query string, categories []models.Category) ([]models.SearchResult, bool, error) {
	list, err := s.catalog.Products(ctx, catalog.ProductQuery{
		Search:  query,
		PerPage: s.cfg.RemoteLimit,
		Timeout: s.catalogCfg.SearchTimeout,
	})
	if err != nil {
		return nil, false, err
	}

	s.writeDurable(ctx, entitySearch, unknownVersion, productRecords(list.Products)...)

	specific := isSpecific(strings.ToLower(query), list.Products, s.cfg.SpecificThreshold)

	results := productResults(list.Products)
	if specific {
		results = append(results, categoryResults(categories, list.Products, "")...)
	}

	return results, specific, nil
}

func (s *searchService) Popular(ctx context.Context) ([]models.Product, error) {
	ctx, span := tracer.Start(ctx, "SearchService.Popular")
	defer span.End()

	popular, version, found := lookupDurable(ctx, s.store, entityPopular, repository.PartitionPopularSearches, cache.PopularKey, nonEmpty[models.Product])
	if found {
		return popular, nil
	}

	list, err := s.catalog.Products(ctx, catalog.ProductQuery{
		OrderBy: "popularity",
		PerPage: popularPerPage,
		Timeout: s.catalogCfg.Timeout,
	})
	if err != nil {
		recordError(span, err)
		return []models.Product{}, err
	}

	s.writeDurable(ctx, entityPopular, version, repository.Record{
		Partition: repository.PartitionPopularSearches, Key: cache.PopularKey, Value: list.Products,
	})

	return list.Products, nil
}

func filterByName(products []models.Product, lowerQuery string) []models.Product {
	var matches []models.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), lowerQuery) {
			matches = append(matches, p)
		}
	}

	return matches
}

func productResults(products []models.Product) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(products))
	for _, p := range products {
		results = append(results, models.ProductResult(p))
	}

	return results
}

// categoryResults picks the categories the products belong to, plus those
// whose name contains lowerQuery when it is not empty.
func categoryResults(categories []models.Category, products []models.Product, lowerQuery string) []models.SearchResult {
	var results []models.SearchResult
	for _, c := range categories {
		linked := slices.ContainsFunc(products, func(p models.Product) bool { return p.InCategory(c.Slug) })
		named := lowerQuery != "" && strings.Contains(strings.ToLower(c.Name), lowerQuery)
		if linked || named {
			results = append(results, models.CategoryResult(c))
		}
	}

	return results
}

// mergeResults concatenates local then remote, keeping the first result for
// each (id, type) pair.
func mergeResults(local, remote []models.SearchResult) []models.SearchResult {
	seen := make(map[models.SearchResultKey]struct{})
	merged := make([]models.SearchResult, 0, len(local)+len(remote))

	for _, r := range slices.Concat(local, remote) {
		if !r.Valid() {
			continue
		}
		if _, dup := seen[r.Key()]; dup {
			continue
		}
		seen[r.Key()] = struct{}{}
		merged = append(merged, r)
	}

	return merged
}
