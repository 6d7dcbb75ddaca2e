package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository/memory"
)

func newProductService(t *testing.T) (*ProductService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewProductService(store.Products(), store.Inventories(), store, zap.NewNop()), store
}

// Товар и запись остатка создаются вместе
func TestProductService_CreateProduct_CreatesInventory(t *testing.T) {
	ctx := context.Background()
	svc, store := newProductService(t)

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:            "Keyboard",
		Description:     "Mechanical",
		Price:           decimal.RequireFromString("19.99"),
		InitialQuantity: 25,
	})
	require.NoError(t, err)
	require.NotEmpty(t, product.ID)

	inv, err := store.Inventories().GetByProductID(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, int64(25), inv.Quantity)
}

func TestProductService_CreateProduct_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProductService(t)

	_, err := svc.CreateProduct(ctx, CreateProductInput{Price: decimal.Zero})
	require.Error(t, err)

	_, err = svc.CreateProduct(ctx, CreateProductInput{
		Name:  "Keyboard",
		Price: decimal.RequireFromString("-1.00"),
	})
	var negErr *errs.NegativeAmountError
	require.ErrorAs(t, err, &negErr)

	_, err = svc.CreateProduct(ctx, CreateProductInput{
		Name:            "Keyboard",
		Price:           decimal.RequireFromString("1.00"),
		InitialQuantity: -1,
	})
	var invalidErr *errs.InvalidQuantityError
	require.ErrorAs(t, err, &invalidErr)
}

func TestProductService_CreateProduct_DuplicateName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProductService(t)

	_, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:  "Keyboard",
		Price: decimal.RequireFromString("19.99"),
	})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, CreateProductInput{
		Name:  "Keyboard",
		Price: decimal.RequireFromString("29.99"),
	})
	var dupErr *errs.DuplicateProductNameError
	require.ErrorAs(t, err, &dupErr)
	require.Equal(t, "Keyboard", dupErr.Name)
}

// Удаление товара убирает и запись остатка
func TestProductService_DeleteProduct_RemovesInventory(t *testing.T) {
	ctx := context.Background()
	svc, store := newProductService(t)

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:            "Keyboard",
		Price:           decimal.RequireFromString("19.99"),
		InitialQuantity: 5,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, product.ID))

	_, err = store.Products().GetByID(ctx, product.ID)
	require.True(t, errs.IsNotFound(err))
	_, err = store.Inventories().GetByProductID(ctx, product.ID)
	require.True(t, errs.IsNotFound(err))
}

func TestProductService_UpdateProduct(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProductService(t)

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:  "Keyboard",
		Price: decimal.RequireFromString("19.99"),
	})
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("24.99")
	updated, err := svc.UpdateProduct(ctx, product.ID, UpdateProductInput{
		Description: "Mechanical",
		Price:       &newPrice,
	})
	require.NoError(t, err)
	require.Equal(t, "Keyboard", updated.Name)
	require.Equal(t, "Mechanical", updated.Description)
	require.True(t, updated.Price.Equal(newPrice))

	negative := decimal.RequireFromString("-5.00")
	_, err = svc.UpdateProduct(ctx, product.ID, UpdateProductInput{Price: &negative})
	var negErr *errs.NegativeAmountError
	require.ErrorAs(t, err, &negErr)
}
