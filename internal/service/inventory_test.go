package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
	"github.com/f-lab-edu/commerce-core/internal/repository/memory"
)

func newInventoryService(t *testing.T) (*InventoryService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewInventoryService(store.Inventories(), zap.NewNop()), store
}

func TestInventoryService_AddAndRemoveStock(t *testing.T) {
	ctx := context.Background()
	svc, store := newInventoryService(t)
	require.NoError(t, store.Inventories().Create(ctx, repository.Inventory{
		ID: "inv-1", ProductID: "product-1", Quantity: 10,
	}))

	inv, err := svc.AddStock(ctx, "product-1", 5)
	require.NoError(t, err)
	require.Equal(t, int64(15), inv.Quantity)

	inv, err = svc.RemoveStock(ctx, "product-1", 12)
	require.NoError(t, err)
	require.Equal(t, int64(3), inv.Quantity)

	_, err = svc.RemoveStock(ctx, "product-1", 4)
	var insufficientErr *errs.InsufficientStockError
	require.ErrorAs(t, err, &insufficientErr)
	require.Equal(t, int64(3), insufficientErr.Available)
}

// Нулевые и отрицательные количества отклоняются до обращения к хранилищу
func TestInventoryService_RejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInventoryService(t)

	for _, amount := range []int64{0, -1} {
		_, err := svc.AddStock(ctx, "product-1", amount)
		var invalidErr *errs.InvalidQuantityError
		require.ErrorAs(t, err, &invalidErr)

		_, err = svc.RemoveStock(ctx, "product-1", amount)
		require.ErrorAs(t, err, &invalidErr)
	}

	_, err := svc.SetStock(ctx, "inv-1", -5)
	var invalidErr *errs.InvalidQuantityError
	require.ErrorAs(t, err, &invalidErr)
}

func TestInventoryService_SetStock(t *testing.T) {
	ctx := context.Background()
	svc, store := newInventoryService(t)
	require.NoError(t, store.Inventories().Create(ctx, repository.Inventory{
		ID: "inv-1", ProductID: "product-1", Quantity: 10,
	}))

	inv, err := svc.SetStock(ctx, "inv-1", 0)
	require.NoError(t, err)
	require.Equal(t, int64(0), inv.Quantity)

	inv, err = svc.GetByInventoryID(ctx, "inv-1")
	require.NoError(t, err)
	require.Equal(t, int64(0), inv.Quantity)
}

func TestInventoryService_GetStock_NotFound(t *testing.T) {
	svc, _ := newInventoryService(t)

	_, err := svc.GetStock(context.Background(), "ghost")
	require.True(t, errs.IsNotFound(err))
}

func TestInventoryService_CreateAndDeleteInventory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInventoryService(t)

	inv, err := svc.CreateInventory(ctx, "product-1", 10)
	require.NoError(t, err)
	require.NotEmpty(t, inv.ID)
	require.Equal(t, int64(10), inv.Quantity)

	// вторая запись для того же товара - конфликт
	_, err = svc.CreateInventory(ctx, "product-1", 5)
	var dupErr *errs.DuplicateProductError
	require.ErrorAs(t, err, &dupErr)

	// отрицательное начальное количество отклоняется
	_, err = svc.CreateInventory(ctx, "product-2", -1)
	var invalidErr *errs.InvalidQuantityError
	require.ErrorAs(t, err, &invalidErr)

	require.NoError(t, svc.DeleteInventory(ctx, inv.ID))
	require.True(t, errs.IsNotFound(svc.DeleteInventory(ctx, inv.ID)))
}

func TestInventoryService_SetStockByProduct(t *testing.T) {
	ctx := context.Background()
	svc, store := newInventoryService(t)
	require.NoError(t, store.Inventories().Create(ctx, repository.Inventory{
		ID: "inv-1", ProductID: "product-1", Quantity: 10,
	}))

	inv, err := svc.SetStockByProduct(ctx, "product-1", 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), inv.Quantity)

	_, err = svc.SetStockByProduct(ctx, "ghost", 1)
	require.True(t, errs.IsNotFound(err))
}

func TestInventoryService_AddStockByInventoryID(t *testing.T) {
	ctx := context.Background()
	svc, store := newInventoryService(t)
	require.NoError(t, store.Inventories().Create(ctx, repository.Inventory{
		ID: "inv-1", ProductID: "product-1", Quantity: 10,
	}))

	inv, err := svc.AddStockByInventoryID(ctx, "inv-1", 7)
	require.NoError(t, err)
	require.Equal(t, int64(17), inv.Quantity)

	_, err = svc.AddStockByInventoryID(ctx, "inv-1", 0)
	var invalidErr *errs.InvalidQuantityError
	require.ErrorAs(t, err, &invalidErr)

	_, err = svc.AddStockByInventoryID(ctx, "ghost", 1)
	require.True(t, errs.IsNotFound(err))
}
