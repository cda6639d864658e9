package models

// SearchResult is a tagged union; exactly one of Product or Category is set,
// matching Type.
type SearchResult struct {
	Type     string    `json:"type"`
	Product  *Product  `json:"product,omitempty"`
	Category *Category `json:"category,omitempty"`
}

func ProductResult(p Product) SearchResult {
	p.Type = TypeProduct
	return SearchResult{Type: TypeProduct, Product: &p}
}

func CategoryResult(c Category) SearchResult {
	c.Type = TypeCategory
	return SearchResult{Type: TypeCategory, Category: &c}
}

func (r SearchResult) ID() int64 {
	switch {
	case r.Product != nil:
		return r.Product.ID
	case r.Category != nil:
		return r.Category.ID
	}

	return 0
}

// Valid reports whether the variant matches the discriminator.
func (r SearchResult) Valid() bool {
	switch r.Type {
	case TypeProduct:
		return r.Product != nil
	case TypeCategory:
		return r.Category != nil
	}

	return false
}

type SearchResultKey struct {
	ID   int64
	Type string
}

func (r SearchResult) Key() SearchResultKey {
	return SearchResultKey{ID: r.ID(), Type: r.Type}
}

type SearchResponse struct {
	Query    string         `json:"query"`
	Results  []SearchResult `json:"results"`
	Specific bool           `json:"specific"`
	Cached   bool           `json:"cached,omitempty"`
	Error    string         `json:"error,omitempty"`
}
