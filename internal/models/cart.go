package models

import (
	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Image    string `json:"image,omitempty"`
	Slug     string `json:"slug,omitempty"`
	Quantity int    `json:"quantity"`
}

type Cart struct {
	Items []CartItem `json:"items"`
}

// Total is the sum of price x quantity, formatted to two decimals.
// Unparseable prices count as zero.
func (c *Cart) Total() string {
	total := decimal.Zero

	for _, item := range c.Items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			continue
		}

		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return total.StringFixed(2)
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}

	return count
}

func (c *Cart) Find(id int64) (int, bool) {
	for i, item := range c.Items {
		if item.ID == id {
			return i, true
		}
	}

	return -1, false
}

type CartResponse struct {
	Items     []CartItem `json:"items"`
	Total     string     `json:"total"`
	ItemCount int        `json:"item_count"`
}

func (c *Cart) Response() CartResponse {
	items := c.Items
	if items == nil {
		items = []CartItem{}
	}

	return CartResponse{Items: items, Total: c.Total(), ItemCount: c.ItemCount()}
}

type AddItemRequest struct {
	ID    int64  `json:"id"    validate:"required,gt=0"`
	Name  string `json:"name"  validate:"required"`
	Price string `json:"price" validate:"required,numeric"`
	Image string `json:"image"`
	Slug  string `json:"slug"`
}
