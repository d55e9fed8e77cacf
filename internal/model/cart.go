package model

import (
	"fmt"
	"sort"
)

// CartLine is one entry of a session cart.
type CartLine struct {
	Key       string `json:"key"`
	ProductID int64  `json:"productId"`
	VariantID *int64 `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

// LineKey derives the line-item key from a product or variant id.
func LineKey(productID int64, variantID *int64) string {
	if variantID != nil {
		return fmt.Sprintf("variant_%d", *variantID)
	}
	return fmt.Sprintf("product_%d", productID)
}

// Cart is a session-scoped shopping cart. Lines keep insertion order.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Lines)
}

// Get returns the line stored under key.
func (c *Cart) Get(key string) (CartLine, bool) {
	for _, line := range c.Lines {
		if line.Key == key {
			return line, true
		}
	}
	return CartLine{}, false
}

// Put replaces the line with the same key in place, or appends it.
func (c *Cart) Put(line CartLine) {
	if line.Key == "" {
		line.Key = LineKey(line.ProductID, line.VariantID)
	}
	for i := range c.Lines {
		if c.Lines[i].Key == line.Key {
			c.Lines[i] = line
			return
		}
	}
	c.Lines = append(c.Lines, line)
}

// Remove deletes the line stored under key and reports whether it existed.
func (c *Cart) Remove(key string) bool {
	for i := range c.Lines {
		if c.Lines[i].Key == key {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// ProductIDs returns the distinct product ids referenced by the cart.
func (c *Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, c.Len())
	for _, line := range c.Lines {
		ids = append(ids, line.ProductID)
	}
	return uniqueSorted(ids)
}

// VariantIDs returns the distinct variant ids referenced by the cart in
// ascending order, which is also the lock acquisition order.
func (c *Cart) VariantIDs() []int64 {
	ids := make([]int64, 0, c.Len())
	for _, line := range c.Lines {
		if line.VariantID != nil {
			ids = append(ids, *line.VariantID)
		}
	}
	return uniqueSorted(ids)
}

func uniqueSorted(ids []int64) []int64 {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			out = append(out, id)
		}
	}
	return out
}

// CartItemView is one renderable cart line.
type CartItemView struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
	Subtotal    int64  `json:"subtotal"`
	// Stock is nil for lines without a variant, which are not stock-limited.
	Stock *int `json:"stock,omitempty"`
}

// CartSnapshot is the cleaned cart together with its display lines and total.
type CartSnapshot struct {
	Cart    Cart           `json:"-"`
	Items   []CartItemView `json:"items"`
	Total   int64          `json:"total"`
	Changed bool           `json:"changed"`
}

// AddToCartRequest is the payload for adding a product to the cart.
type AddToCartRequest struct {
	ProductID int64  `json:"productId"`
	VariantID *int64 `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartRequest is the payload for changing a line quantity.
type UpdateCartRequest struct {
	Quantity int `json:"quantity"`
}
