package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aaravmahajanofficial/storefront-cache/internal/models"
	"github.com/microcosm-cc/bluemonday"
)

type wcImage struct {
	Src       string `json:"src"`
	Thumbnail string `json:"thumbnail"`
	Alt       string `json:"alt"`
}

type wcTerm struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type wcAttribute struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// stockFlag accepts the boolean manage_stock field as well as "parent",
// which variations report when stock is managed on the parent product.
type stockFlag bool

func (f *stockFlag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*f = false
	case bytes.Equal(data, []byte(`"parent"`)):
		*f = true
	default:
		var v bool
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("manage_stock: %w", err)
		}
		*f = stockFlag(v)
	}

	return nil
}

type wcProduct struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	Price         string        `json:"price"`
	Description   string        `json:"description"`
	SKU           string        `json:"sku"`
	StockQuantity *int          `json:"stock_quantity"`
	StockStatus   string        `json:"stock_status"`
	ManageStock   stockFlag     `json:"manage_stock"`
	Images        []wcImage     `json:"images"`
	Categories    []wcTerm      `json:"categories"`
	Attributes    []wcAttribute `json:"attributes"`
}

type yoastHead struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Canonical   string `json:"canonical"`
	OGImage     []struct {
		URL string `json:"url"`
	} `json:"og_image"`
}

type wcCategory struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Image     *wcImage   `json:"image"`
	YoastHead *yoastHead `json:"yoast_head_json"`
}

type normalizer struct {
	placeholder string
	policy      *bluemonday.Policy
}

func newNormalizer(placeholder string) *normalizer {
	return &normalizer{placeholder: placeholder, policy: bluemonday.UGCPolicy()}
}

func (n *normalizer) product(p wcProduct) models.Product {
	product := models.Product{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		Image:         n.placeholder,
		Thumbnail:     n.placeholder,
		Slug:          p.Slug,
		Description:   n.policy.Sanitize(p.Description),
		SKU:           p.SKU,
		StockQuantity: p.StockQuantity,
		StockStatus:   p.StockStatus,
		ManageStock:   bool(p.ManageStock),
		Images:        []models.Image{},
		Categories:    []string{},
		Attributes:    []models.Attribute{},
		Type:          models.TypeProduct,
	}

	if product.Slug == "" {
		product.Slug = fmt.Sprintf("product-%d", p.ID)
	}

	for _, img := range p.Images {
		if img.Src == "" {
			continue
		}
		thumb := img.Thumbnail
		if thumb == "" {
			thumb = img.Src
		}
		product.Images = append(product.Images, models.Image{Src: img.Src, Thumbnail: thumb, Alt: img.Alt})
	}

	if len(product.Images) > 0 {
		product.Image = product.Images[0].Src
		product.Thumbnail = product.Images[0].Thumbnail
	}

	for _, c := range p.Categories {
		product.Categories = append(product.Categories, c.Slug)
	}

	for _, a := range p.Attributes {
		options := a.Options
		if options == nil {
			options = []string{}
		}
		product.Attributes = append(product.Attributes, models.Attribute{Name: a.Name, Options: options})
	}

	return product
}

func (n *normalizer) products(raw []wcProduct) []models.Product {
	products := make([]models.Product, 0, len(raw))
	for _, p := range raw {
		products = append(products, n.product(p))
	}

	return products
}

func (n *normalizer) category(c wcCategory) models.Category {
	category := models.Category{
		ID:    c.ID,
		Name:  c.Name,
		Slug:  c.Slug,
		Image: n.placeholder,
		Type:  models.TypeCategory,
	}

	if c.Image != nil && c.Image.Src != "" {
		category.Image = c.Image.Src
	}

	if y := c.YoastHead; y != nil {
		seo := &models.SEOMeta{
			Title:       strings.TrimSpace(y.Title),
			Description: strings.TrimSpace(y.Description),
			Canonical:   y.Canonical,
		}
		if len(y.OGImage) > 0 {
			seo.OGImage = y.OGImage[0].URL
		}
		category.SEO = seo
	}

	return category
}
