package models

// ProductPage is one page of a category listing. Error is set when the page
// is a stale or empty fallback for a failed fetch.
type ProductPage struct {
	Products    []Product `json:"products"`
	Total       int       `json:"total"`
	TotalPages  int       `json:"total_pages"`
	CurrentPage int       `json:"current_page"`
	Stale       bool      `json:"stale,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// HasProducts is the shape check applied to cached pages: an empty page means
// "not cached yet".
func (p *ProductPage) HasProducts() bool {
	return p != nil && len(p.Products) > 0
}

type Preload struct {
	Categories []Category `json:"categories"`
	Products   []Product  `json:"products"`
	Error      string     `json:"error,omitempty"`
}
