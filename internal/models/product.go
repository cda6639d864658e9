package models

import "slices"

const (
	TypeProduct  = "product"
	TypeCategory = "category"
)

type Image struct {
	Src       string `json:"src"`
	Thumbnail string `json:"thumbnail"`
	Alt       string `json:"alt"`
}

type Attribute struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

type Product struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Price         string      `json:"price"`
	Image         string      `json:"image"`
	Thumbnail     string      `json:"thumbnail"`
	Images        []Image     `json:"images"`
	Slug          string      `json:"slug"`
	Description   string      `json:"description"`
	SKU           string      `json:"sku"`
	StockQuantity *int        `json:"stock_quantity,omitempty"`
	StockStatus   string      `json:"stock_status"`
	ManageStock   bool        `json:"manage_stock"`
	Categories    []string    `json:"categories"`
	Attributes    []Attribute `json:"attributes"`
	Type          string      `json:"type"`
}

// InCategory reports whether the product is tagged with the category slug.
func (p *Product) InCategory(slug string) bool {
	return slices.Contains(p.Categories, slug)
}

type SEOMeta struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	OGImage     string `json:"og_image,omitempty"`
	Canonical   string `json:"canonical,omitempty"`
}

type Category struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Slug  string   `json:"slug"`
	Image string   `json:"image,omitempty"`
	SEO   *SEOMeta `json:"seo,omitempty"`
	Type  string   `json:"type"`
}

// Minimal strips a category down to the fields kept in the categories list.
func (c Category) Minimal() Category {
	return Category{ID: c.ID, Name: c.Name, Slug: c.Slug, Type: TypeCategory}
}

// ImageRef is a product image to preload, keyed by product slug.
type ImageRef struct {
	Slug  string `json:"slug" validate:"required"`
	Image string `json:"image" validate:"required"`
}

type PreloadImagesRequest struct {
	Images []ImageRef `json:"images" validate:"required,min=1,max=200,dive"`
}
