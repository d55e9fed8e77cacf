package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository_CreateAndFind(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	product := &model.Product{Name: "Hoodie", Price: 4500, IsActive: true}
	require.NoError(t, repo.Create(ctx, product))
	require.NotZero(t, product.ID)

	variant := &model.Variant{ProductID: product.ID, Size: strPtr("L"), Color: strPtr("Black"), Stock: 4}
	require.NoError(t, repo.CreateVariant(ctx, variant))
	require.NotZero(t, variant.ID)

	found, err := repo.FindActiveProduct(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Hoodie", found.Name)
	assert.Equal(t, int64(4500), found.Price)

	v, err := repo.FindVariant(ctx, variant.ID)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "L / Black", v.Description())
	assert.Equal(t, 4, v.Stock)

	count, err := repo.CountVariants(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProductRepository_CreateVariant_Duplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	product := &model.Product{Name: "Cap", Price: 900, IsActive: true}
	require.NoError(t, repo.Create(ctx, product))

	require.NoError(t, repo.CreateVariant(ctx, &model.Variant{ProductID: product.ID, Color: strPtr("Blue"), Stock: 1}))
	err := repo.CreateVariant(ctx, &model.Variant{ProductID: product.ID, Color: strPtr("Blue"), Stock: 3})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))
}

func TestProductRepository_FindActiveProduct_Inactive(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	product := &model.Product{Name: "Discontinued", Price: 100, IsActive: false}
	require.NoError(t, repo.Create(ctx, product))

	found, err := repo.FindActiveProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	missing, err := repo.FindActiveProduct(ctx, 999999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductRepository_FindActiveProducts(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	active := &model.Product{Name: "Mug", Price: 700, IsActive: true}
	inactive := &model.Product{Name: "Old Mug", Price: 600, IsActive: false}
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, inactive))

	tests := []struct {
		name     string
		ids      []int64
		expected []int64
	}{
		{name: "Empty input", ids: []int64{}, expected: nil},
		{name: "Active only", ids: []int64{active.ID}, expected: []int64{active.ID}},
		{name: "Inactive and missing are skipped", ids: []int64{active.ID, inactive.ID, 424242}, expected: []int64{active.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := repo.FindActiveProducts(ctx, tt.ids)
			require.NoError(t, err)
			assert.Len(t, products, len(tt.expected))
			for _, id := range tt.expected {
				assert.Contains(t, products, id)
			}
		})
	}
}

func TestProductRepository_LockActiveProducts(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	orders := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	active := &model.Product{Name: "Tote", Price: 1500, IsActive: true}
	inactive := &model.Product{Name: "Old Tote", Price: 1200, IsActive: false}
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, inactive))

	tx, err := orders.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	products, err := repo.LockActiveProducts(ctx, tx, []int64{active.ID, inactive.ID, 424242})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Tote", products[active.ID].Name)

	// Deactivating the locked product waits for tx.
	blocked, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = pool.Exec(blocked, `UPDATE products SET is_active = FALSE WHERE id = $1`, active.ID)
	require.Error(t, err)

	require.NoError(t, tx.Rollback(ctx))

	_, err = pool.Exec(ctx, `UPDATE products SET is_active = FALSE WHERE id = $1`, active.ID)
	require.NoError(t, err)
}

func TestProductRepository_FindVariants(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	_, v1 := seedVariant(t, pool, "Shirt", 1000, "M", "Red", 3)
	_, v2 := seedVariant(t, pool, "Dress", 3000, "S", "Green", 0)

	variants, err := repo.FindVariants(ctx, []int64{v1.ID, v2.ID, 777})
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, 3, variants[v1.ID].Stock)
	assert.Equal(t, 0, variants[v2.ID].Stock)

	missing, err := repo.FindVariant(ctx, 777)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductRepository_DeletingProductKeepsOrderItemSnapshot(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	orders := NewOrderRepository(pool, zerolog.Nop())

	product, variant := seedVariant(t, pool, "Shirt", 1000, "M", "Red", 3)
	order := newTestOrder(3000)
	items := []model.OrderItem{newTestItem(order, &product, &variant, 3, 1000)}
	insertOrder(t, orders, order, items)

	_, err := pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, product.ID)
	require.NoError(t, err)

	_, stored, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Nil(t, stored[0].ProductID)
	assert.Nil(t, stored[0].VariantID)
	assert.Equal(t, "Shirt", stored[0].ProductName)
	assert.Equal(t, "M / Red", stored[0].VariantDescription)
	assert.Equal(t, int64(1000), stored[0].Price)
}
