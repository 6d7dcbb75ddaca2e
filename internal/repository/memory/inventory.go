package memory

import (
	"context"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// Inventories реализует repository.InventoryRepository поверх Store
type Inventories struct {
	s *Store
}

// Create создаёт запись остатка для товара
// Возвращает DuplicateProductError, если запись уже существует (1:1 с товаром)
func (r *Inventories) Create(ctx context.Context, inv repository.Inventory) error {
	r.s.invMu.Lock()
	defer r.s.invMu.Unlock()

	if _, exists := r.s.invByProduct[inv.ProductID]; exists {
		return &errs.DuplicateProductError{ProductID: inv.ProductID}
	}

	r.s.inventories[inv.ID] = &inventoryRecord{inv: inv}
	r.s.invByProduct[inv.ProductID] = inv.ID

	if journal, ok := repository.JournalFrom(ctx); ok {
		id, productID := inv.ID, inv.ProductID
		journal.Record(func(context.Context) {
			r.s.invMu.Lock()
			defer r.s.invMu.Unlock()
			delete(r.s.inventories, id)
			delete(r.s.invByProduct, productID)
		})
	}
	return nil
}

// GetByID получает снимок записи по inventory ID
func (r *Inventories) GetByID(ctx context.Context, id string) (repository.Inventory, error) {
	r.s.invMu.RLock()
	rec, exists := r.s.inventories[id]
	r.s.invMu.RUnlock()

	if !exists {
		return repository.Inventory{}, &errs.NotFoundError{Entity: errs.EntityInventory, ID: id}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.inv, nil
}

// GetByProductID получает снимок записи по ID товара
func (r *Inventories) GetByProductID(ctx context.Context, productID string) (repository.Inventory, error) {
	rec, err := r.recordByProductID(productID)
	if err != nil {
		return repository.Inventory{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.inv, nil
}

// GetByProductIDs получает снимки записей по списку ID товаров
// Отсутствующие товары не попадают в результат - caller сравнивает размеры
func (r *Inventories) GetByProductIDs(ctx context.Context, productIDs []string) ([]repository.Inventory, error) {
	result := make([]repository.Inventory, 0, len(productIDs))
	for _, productID := range productIDs {
		rec, err := r.recordByProductID(productID)
		if err != nil {
			continue
		}
		rec.mu.Lock()
		result = append(result, rec.inv)
		rec.mu.Unlock()
	}
	return result, nil
}

// AdjustByProductID атомарно применяет операцию к остатку товара
// Мьютекс записи сериализует read-check-write только для этой записи:
// конкурентные мутации разных товаров не блокируют друг друга
func (r *Inventories) AdjustByProductID(ctx context.Context, productID string, amount int64, op repository.InventoryOp) (repository.Inventory, error) {
	rec, err := r.recordByProductID(productID)
	if err != nil {
		return repository.Inventory{}, err
	}
	return r.adjust(ctx, rec, amount, op)
}

// AdjustByInventoryID атомарно применяет операцию по inventory ID
func (r *Inventories) AdjustByInventoryID(ctx context.Context, id string, amount int64, op repository.InventoryOp) (repository.Inventory, error) {
	r.s.invMu.RLock()
	rec, exists := r.s.inventories[id]
	r.s.invMu.RUnlock()

	if !exists {
		return repository.Inventory{}, &errs.NotFoundError{Entity: errs.EntityInventory, ID: id}
	}
	return r.adjust(ctx, rec, amount, op)
}

// List возвращает снимки всех записей остатков
func (r *Inventories) List(ctx context.Context) ([]repository.Inventory, error) {
	r.s.invMu.RLock()
	records := make([]*inventoryRecord, 0, len(r.s.inventories))
	for _, rec := range r.s.inventories {
		records = append(records, rec)
	}
	r.s.invMu.RUnlock()

	result := make([]repository.Inventory, 0, len(records))
	for _, rec := range records {
		rec.mu.Lock()
		result = append(result, rec.inv)
		rec.mu.Unlock()
	}
	return result, nil
}

// Delete удаляет запись остатка
func (r *Inventories) Delete(ctx context.Context, id string) error {
	r.s.invMu.Lock()
	defer r.s.invMu.Unlock()

	rec, exists := r.s.inventories[id]
	if !exists {
		return &errs.NotFoundError{Entity: errs.EntityInventory, ID: id}
	}

	delete(r.s.inventories, id)
	delete(r.s.invByProduct, rec.inv.ProductID)

	if journal, ok := repository.JournalFrom(ctx); ok {
		journal.Record(func(context.Context) {
			r.s.invMu.Lock()
			defer r.s.invMu.Unlock()
			r.s.inventories[rec.inv.ID] = rec
			r.s.invByProduct[rec.inv.ProductID] = rec.inv.ID
		})
	}
	return nil
}

// adjust применяет доменную мутацию под мьютексом записи
// При активной транзакции регистрирует компенсацию - обратную операцию,
// а не восстановление снимка: мутации других вызовов, закоммиченные между
// нашим изменением и откатом, при этом не теряются
func (r *Inventories) adjust(ctx context.Context, rec *inventoryRecord, amount int64, op repository.InventoryOp) (repository.Inventory, error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	previous := rec.inv.Quantity
	if err := rec.inv.Adjust(amount, op); err != nil {
		return repository.Inventory{}, err
	}

	if journal, ok := repository.JournalFrom(ctx); ok {
		applied := rec.inv.Quantity
		delta := applied - previous
		journal.Record(func(context.Context) {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			if op == repository.OpSet {
				// у абсолютной установки обратной операции нет:
				// снимок возвращается только если запись с тех пор не менялась
				if rec.inv.Quantity == applied {
					rec.inv.Quantity = previous
				}
				return
			}
			rec.inv.Quantity -= delta
			if rec.inv.Quantity < 0 {
				rec.inv.Quantity = 0
			}
		})
	}
	return rec.inv, nil
}

func (r *Inventories) recordByProductID(productID string) (*inventoryRecord, error) {
	r.s.invMu.RLock()
	defer r.s.invMu.RUnlock()

	id, exists := r.s.invByProduct[productID]
	if !exists {
		return nil, &errs.NotFoundError{Entity: errs.EntityInventoryForProduct, ID: productID}
	}
	return r.s.inventories[id], nil
}
