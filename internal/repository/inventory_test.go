package repository

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/f-lab-edu/commerce-core/internal/errs"
)

func requireInsufficientStock(t *testing.T, err error) {
	t.Helper()
	var insufficientErr *errs.InsufficientStockError
	require.ErrorAs(t, err, &insufficientErr)
}

func requireInvalidQuantity(t *testing.T, err error) {
	t.Helper()
	var invalidErr *errs.InvalidQuantityError
	require.ErrorAs(t, err, &invalidErr)
}

func TestInventory_Adjust(t *testing.T) {
	tests := []struct {
		name          string
		initial       int64
		amount        int64
		op            InventoryOp
		expectedQty   int64
		expectedError func(t *testing.T, err error)
	}{
		{
			name:        "increase adds to quantity",
			initial:     10,
			amount:      5,
			op:          OpIncrease,
			expectedQty: 15,
		},
		{
			name:        "increase by zero keeps quantity",
			initial:     10,
			amount:      0,
			op:          OpIncrease,
			expectedQty: 10,
		},
		{
			name:        "decrease subtracts from quantity",
			initial:     10,
			amount:      4,
			op:          OpDecrease,
			expectedQty: 6,
		},
		{
			name:        "decrease to exactly zero succeeds",
			initial:     10,
			amount:      10,
			op:          OpDecrease,
			expectedQty: 0,
		},
		{
			name:          "decrease below zero is rejected",
			initial:       3,
			amount:        4,
			op:            OpDecrease,
			expectedError: requireInsufficientStock,
		},
		{
			name:        "set overwrites quantity",
			initial:     10,
			amount:      7,
			op:          OpSet,
			expectedQty: 7,
		},
		{
			name:        "set to zero succeeds",
			initial:     10,
			amount:      0,
			op:          OpSet,
			expectedQty: 0,
		},
		{
			name:          "negative amount is rejected for increase",
			initial:       10,
			amount:        -1,
			op:            OpIncrease,
			expectedError: requireInvalidQuantity,
		},
		{
			name:          "negative amount is rejected for decrease",
			initial:       10,
			amount:        -1,
			op:            OpDecrease,
			expectedError: requireInvalidQuantity,
		},
		{
			name:          "negative amount is rejected for set",
			initial:       10,
			amount:        -5,
			op:            OpSet,
			expectedError: requireInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := Inventory{ID: "inv-1", ProductID: "product-1", Quantity: tt.initial}

			err := inv.Adjust(tt.amount, tt.op)

			if tt.expectedError != nil {
				tt.expectedError(t, err)
				// остаток не меняется при отказе
				require.Equal(t, tt.initial, inv.Quantity)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.expectedQty, inv.Quantity)
			require.False(t, inv.UpdatedAt.IsZero())
		})
	}
}

func TestInventory_Adjust_InsufficientStockDetails(t *testing.T) {
	inv := Inventory{ID: "inv-1", ProductID: "product-1", Quantity: 2}

	err := inv.Adjust(5, OpDecrease)

	var insufficientErr *errs.InsufficientStockError
	require.ErrorAs(t, err, &insufficientErr)
	require.Equal(t, "product-1", insufficientErr.ProductID)
	require.Equal(t, int64(2), insufficientErr.Available)
	require.Equal(t, int64(5), insufficientErr.Requested)
}

func TestInventory_Adjust_UnknownOp(t *testing.T) {
	inv := Inventory{ID: "inv-1", ProductID: "product-1", Quantity: 2}

	err := inv.Adjust(1, InventoryOp("MULTIPLY"))

	require.Error(t, err)
	require.Equal(t, int64(2), inv.Quantity)
}
