package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront-cache/internal/config"
	appErrors "github.com/aaravmahajanofficial/storefront-cache/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cache/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"resty.dev/v3"
)

const (
	productsPath   = "/products"
	categoriesPath = "/products/categories"
)

// Client reads catalog data from the WooCommerce REST API. It never touches
// any cache tier.
type Client interface {
	CategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	Categories(ctx context.Context, perPage int) ([]models.Category, error)
	ProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	Products(ctx context.Context, query ProductQuery) (*ProductList, error)
}

type ProductQuery struct {
	CategoryID int64
	Page       int
	PerPage    int
	OrderBy    string
	Order      string
	Search     string
	// Timeout overrides the client default for this request.
	Timeout time.Duration
}

func (q ProductQuery) params() map[string]string {
	params := map[string]string{}

	if q.CategoryID > 0 {
		params["category"] = strconv.FormatInt(q.CategoryID, 10)
	}
	if q.Page > 0 {
		params["page"] = strconv.Itoa(q.Page)
	}
	if q.PerPage > 0 {
		params["per_page"] = strconv.Itoa(q.PerPage)
	}
	if q.OrderBy != "" {
		params["orderby"] = q.OrderBy
	}
	if q.Order != "" {
		params["order"] = q.Order
	}
	if q.Search != "" {
		params["search"] = q.Search
	}

	return params
}

// ProductList is one page of products with the pagination totals reported in
// the X-WP-Total and X-WP-TotalPages headers.
type ProductList struct {
	Products   []models.Product
	Total      int
	TotalPages int
}

type RestClient struct {
	http      *resty.Client
	timeout   time.Duration
	normalize *normalizer
}

func New(cfg *config.Catalog) *RestClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"consumer_key":    cfg.ConsumerKey,
			"consumer_secret": cfg.ConsumerSecret,
		})

	return &RestClient{
		http:      client,
		timeout:   cfg.Timeout,
		normalize: newNormalizer(cfg.PlaceholderImage),
	}
}

func (c *RestClient) Close() error {
	return c.http.Close()
}

// get issues a GET and decodes a JSON body into result. Every failure mode is
// reported as FETCH_FAILED.
func (c *RestClient) get(ctx context.Context, path string, params map[string]string, timeout time.Duration, result any) (*resty.Response, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	outcome := "error"
	defer func() {
		metrics.ObserveCatalogRequest(path, outcome, time.Since(start))
	}()

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(result).
		Get(path)

	if err != nil {
		slog.WarnContext(ctx, "Catalog request failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, appErrors.FetchFailedError(fmt.Sprintf("Could not reach the catalog (%s)", path)).WithError(err)
	}

	if resp.IsError() {
		slog.WarnContext(ctx, "Catalog returned an error status",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode()),
		)
		return nil, appErrors.FetchFailedError(fmt.Sprintf("Catalog responded with status %d", resp.StatusCode())).
			WithDetail(path)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header().Get("Content-Type"))
	if err != nil || !strings.HasSuffix(mediaType, "json") {
		return nil, appErrors.FetchFailedError("Catalog returned a non-JSON response").
			WithDetail(resp.Header().Get("Content-Type"))
	}

	outcome = "ok"

	return resp, nil
}

func (c *RestClient) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var raw []wcCategory

	params := map[string]string{"slug": slug, "per_page": "1"}
	if _, err := c.get(ctx, categoriesPath, params, 0, &raw); err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		return nil, appErrors.NotFoundError(fmt.Sprintf("Category '%s' not found", slug))
	}

	category := c.normalize.category(raw[0])

	return &category, nil
}

// Categories lists non-empty categories reduced to their minimal form.
func (c *RestClient) Categories(ctx context.Context, perPage int) ([]models.Category, error) {
	var raw []wcCategory

	params := map[string]string{"per_page": strconv.Itoa(perPage), "hide_empty": "true"}
	if _, err := c.get(ctx, categoriesPath, params, 0, &raw); err != nil {
		return nil, err
	}

	categories := make([]models.Category, 0, len(raw))
	for _, rc := range raw {
		categories = append(categories, c.normalize.category(rc).Minimal())
	}

	return categories, nil
}

func (c *RestClient) ProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var raw []wcProduct

	params := map[string]string{"slug": slug, "per_page": "1"}
	if _, err := c.get(ctx, productsPath, params, 0, &raw); err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		return nil, appErrors.NotFoundError(fmt.Sprintf("Product '%s' not found", slug))
	}

	product := c.normalize.product(raw[0])

	return &product, nil
}

func (c *RestClient) Products(ctx context.Context, query ProductQuery) (*ProductList, error) {
	var raw []wcProduct

	resp, err := c.get(ctx, productsPath, query.params(), query.Timeout, &raw)
	if err != nil {
		return nil, err
	}

	return &ProductList{
		Products:   c.normalize.products(raw),
		Total:      headerInt(resp.Header(), "X-WP-Total"),
		TotalPages: headerInt(resp.Header(), "X-WP-TotalPages"),
	}, nil
}

// Ping checks the catalog is reachable with the configured credentials.
func (c *RestClient) Ping(ctx context.Context) error {
	var raw []wcCategory

	_, err := c.get(ctx, categoriesPath, map[string]string{"per_page": "1"}, 0, &raw)

	return err
}

func headerInt(h http.Header, name string) int {
	n, err := strconv.Atoi(h.Get(name))
	if err != nil {
		return 0
	}

	return n
}
