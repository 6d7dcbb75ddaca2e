package repository

import (
	"fmt"
	"time"

	"github.com/f-lab-edu/commerce-core/internal/errs"
)

// InventoryOp перечисляет операции над остатком
type InventoryOp string

const (
	OpIncrease InventoryOp = "INCREASE"
	OpDecrease InventoryOp = "DECREASE"
	OpSet      InventoryOp = "SET"
)

// Adjust применяет операцию к остатку
// Это единственная точка мутации количества: инвариант quantity >= 0
// проверяется здесь, до записи, а не постфактум
//
// Вызывать только под per-record блокировкой хранилища: сама структура
// не синхронизирована. Хранилище обязано сериализовать read-check-write
// для одной записи (мьютекс записи, row lock или CAS)
//
// При ошибке остаток не меняется (отказ целиком, без частичного списания)
func (inv *Inventory) Adjust(amount int64, op InventoryOp) error {
	if amount < 0 {
		return &errs.InvalidQuantityError{Quantity: amount}
	}

	switch op {
	case OpIncrease:
		inv.Quantity += amount
	case OpDecrease:
		if amount > inv.Quantity {
			return &errs.InsufficientStockError{
				ProductID: inv.ProductID,
				Available: inv.Quantity,
				Requested: amount,
			}
		}
		inv.Quantity -= amount
	case OpSet:
		inv.Quantity = amount
	default:
		return fmt.Errorf("unknown inventory operation: %s", op)
	}

	inv.UpdatedAt = time.Now().UTC()
	return nil
}
