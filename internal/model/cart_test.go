package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestLineKey(t *testing.T) {
	assert.Equal(t, "product_3", LineKey(3, nil))
	assert.Equal(t, "variant_7", LineKey(3, int64Ptr(7)))
}

func TestCart_PutKeepsInsertionOrder(t *testing.T) {
	var cart Cart

	cart.Put(CartLine{ProductID: 1, VariantID: int64Ptr(10), Quantity: 1})
	cart.Put(CartLine{ProductID: 2, Quantity: 2})
	cart.Put(CartLine{ProductID: 3, VariantID: int64Ptr(5), Quantity: 3})

	// Replacing an existing line keeps its position.
	cart.Put(CartLine{ProductID: 2, Quantity: 9})

	require.Equal(t, 3, cart.Len())
	assert.Equal(t, "variant_10", cart.Lines[0].Key)
	assert.Equal(t, "product_2", cart.Lines[1].Key)
	assert.Equal(t, 9, cart.Lines[1].Quantity)
	assert.Equal(t, "variant_5", cart.Lines[2].Key)
}

func TestCart_Remove(t *testing.T) {
	var cart Cart
	cart.Put(CartLine{ProductID: 1, Quantity: 1})
	cart.Put(CartLine{ProductID: 2, Quantity: 1})

	assert.True(t, cart.Remove("product_1"))
	assert.False(t, cart.Remove("product_1"))

	_, ok := cart.Get("product_2")
	assert.True(t, ok)
	assert.Equal(t, 1, cart.Len())
}

func TestCart_IsEmpty(t *testing.T) {
	var nilCart *Cart
	assert.True(t, nilCart.IsEmpty())
	assert.Equal(t, 0, nilCart.Len())

	cart := &Cart{}
	assert.True(t, cart.IsEmpty())

	cart.Put(CartLine{ProductID: 1, Quantity: 1})
	assert.False(t, cart.IsEmpty())
}

func TestCart_VariantIDsSortedAndUnique(t *testing.T) {
	var cart Cart
	cart.Put(CartLine{ProductID: 1, VariantID: int64Ptr(30), Quantity: 1})
	cart.Put(CartLine{ProductID: 2, Quantity: 1})
	cart.Put(CartLine{ProductID: 1, VariantID: int64Ptr(4), Quantity: 1})
	cart.Put(CartLine{Key: "dup", ProductID: 1, VariantID: int64Ptr(30), Quantity: 1})

	assert.Equal(t, []int64{4, 30}, cart.VariantIDs())
	assert.Equal(t, []int64{1, 2}, cart.ProductIDs())
}

func TestVariant_Description(t *testing.T) {
	size := "M"
	color := "Red"
	empty := ""

	tests := []struct {
		name     string
		variant  Variant
		expected string
	}{
		{name: "size and colour", variant: Variant{Size: &size, Color: &color}, expected: "M / Red"},
		{name: "size only", variant: Variant{Size: &size}, expected: "M"},
		{name: "colour only", variant: Variant{Color: &color}, expected: "Red"},
		{name: "neither", variant: Variant{Size: &empty}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.variant.Description())
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	detailed := NewDomainError(ErrCodeProductUnavailable, "Shirt is gone")
	wrapped := fmt.Errorf("failed to place order: %w", detailed)

	assert.True(t, errors.Is(wrapped, ErrProductUnavailable))
	assert.False(t, errors.Is(wrapped, ErrInvalidQuantity))
	assert.Equal(t, ErrCodeProductUnavailable, ErrorCode(wrapped))
}

func TestInsufficientStockError(t *testing.T) {
	err := NewInsufficientStockError("Shirt", 7, 2, 3)
	wrapped := fmt.Errorf("failed to place order: %w", err)

	assert.True(t, errors.Is(wrapped, ErrInsufficientStock))
	assert.Equal(t, ErrCodeInsufficientStock, ErrorCode(wrapped))
	assert.Contains(t, err.Error(), "Shirt")
	assert.Contains(t, err.Error(), "only 2 left")

	var stockErr *InsufficientStockError
	require.True(t, errors.As(wrapped, &stockErr))
	assert.Equal(t, int64(7), stockErr.VariantID)
}

func TestErrorCode_Unknown(t *testing.T) {
	assert.Equal(t, ErrCodeInternalError, ErrorCode(errors.New("boom")))
}
