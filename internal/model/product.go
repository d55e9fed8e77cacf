package model

import (
	"strings"
	"time"
)

// Product represents a catalogue product. Prices are whole currency units.
type Product struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Price     int64     `json:"price" db:"price"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Variant is a purchasable size/colour combination of a product with its own stock.
type Variant struct {
	ID        int64   `json:"id" db:"id"`
	ProductID int64   `json:"productId" db:"product_id"`
	Size      *string `json:"size,omitempty" db:"size"`
	Color     *string `json:"color,omitempty" db:"color"`
	Stock     int     `json:"stock" db:"stock"`
}

// Description joins size and colour, e.g. "M / Red".
func (v *Variant) Description() string {
	parts := make([]string, 0, 2)
	if v.Size != nil && *v.Size != "" {
		parts = append(parts, *v.Size)
	}
	if v.Color != nil && *v.Color != "" {
		parts = append(parts, *v.Color)
	}
	return strings.Join(parts, " / ")
}

// LockedVariant is a variant row read under an exclusive lock, together with
// its product.
type LockedVariant struct {
	Variant
	Product Product
}
