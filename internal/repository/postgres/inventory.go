package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// Inventories реализует repository.InventoryRepository поверх PostgreSQL
//
// Контракт конкурентности обеспечивается row-level блокировкой:
// SELECT ... FOR UPDATE держит строку до конца транзакции, поэтому
// read-check-write по одной записи сериализуется, а записи разных
// товаров друг друга не блокируют
type Inventories struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewInventories создаёт новый PostgreSQL репозиторий остатков
func NewInventories(pool *pgxpool.Pool, logger *zap.Logger) *Inventories {
	return &Inventories{pool: pool, logger: logger}
}

// Create создаёт запись остатка для товара
func (r *Inventories) Create(ctx context.Context, inv repository.Inventory) error {
	return withRetry(ctx, r.logger, "inventories.create", func() error {
		_, err := runner(ctx, r.pool).Exec(ctx,
			`INSERT INTO inventories (id, product_id, quantity, updated_at)
			 VALUES ($1, $2, $3, $4)`,
			inv.ID, inv.ProductID, inv.Quantity, inv.UpdatedAt)
		if isUniqueViolation(err, "product_id") {
			return &errs.DuplicateProductError{ProductID: inv.ProductID}
		}
		return err
	})
}

// GetByID получает запись по inventory ID
func (r *Inventories) GetByID(ctx context.Context, id string) (repository.Inventory, error) {
	var inv repository.Inventory
	err := withRetry(ctx, r.logger, "inventories.get_by_id", func() error {
		row := runner(ctx, r.pool).QueryRow(ctx,
			`SELECT id, product_id, quantity, updated_at
			 FROM inventories
			 WHERE id = $1`, id)
		if err := row.Scan(&inv.ID, &inv.ProductID, &inv.Quantity, &inv.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &errs.NotFoundError{Entity: errs.EntityInventory, ID: id}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return repository.Inventory{}, err
	}
	return inv, nil
}

// GetByProductID получает запись по ID товара
func (r *Inventories) GetByProductID(ctx context.Context, productID string) (repository.Inventory, error) {
	var inv repository.Inventory
	err := withRetry(ctx, r.logger, "inventories.get_by_product_id", func() error {
		row := runner(ctx, r.pool).QueryRow(ctx,
			`SELECT id, product_id, quantity, updated_at
			 FROM inventories
			 WHERE product_id = $1`, productID)
		if err := row.Scan(&inv.ID, &inv.ProductID, &inv.Quantity, &inv.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &errs.NotFoundError{Entity: errs.EntityInventoryForProduct, ID: productID}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return repository.Inventory{}, err
	}
	return inv, nil
}

// GetByProductIDs получает записи по списку ID товаров одним запросом
func (r *Inventories) GetByProductIDs(ctx context.Context, productIDs []string) ([]repository.Inventory, error) {
	var result []repository.Inventory
	err := withRetry(ctx, r.logger, "inventories.get_by_product_ids", func() error {
		rows, err := runner(ctx, r.pool).Query(ctx,
			`SELECT id, product_id, quantity, updated_at
			 FROM inventories
			 WHERE product_id = ANY($1)`, productIDs)
		if err != nil {
			return err
		}
		defer rows.Close()

		result = make([]repository.Inventory, 0, len(productIDs))
		for rows.Next() {
			var inv repository.Inventory
			if err := rows.Scan(&inv.ID, &inv.ProductID, &inv.Quantity, &inv.UpdatedAt); err != nil {
				return err
			}
			result = append(result, inv)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AdjustByProductID атомарно применяет операцию к остатку товара
func (r *Inventories) AdjustByProductID(ctx context.Context, productID string, amount int64, op repository.InventoryOp) (repository.Inventory, error) {
	return r.adjust(ctx, "product_id", productID,
		&errs.NotFoundError{Entity: errs.EntityInventoryForProduct, ID: productID}, amount, op)
}

// AdjustByInventoryID атомарно применяет операцию по inventory ID
func (r *Inventories) AdjustByInventoryID(ctx context.Context, id string, amount int64, op repository.InventoryOp) (repository.Inventory, error) {
	return r.adjust(ctx, "id", id,
		&errs.NotFoundError{Entity: errs.EntityInventory, ID: id}, amount, op)
}

// List возвращает все записи остатков
func (r *Inventories) List(ctx context.Context) ([]repository.Inventory, error) {
	var result []repository.Inventory
	err := withRetry(ctx, r.logger, "inventories.list", func() error {
		rows, err := runner(ctx, r.pool).Query(ctx,
			`SELECT id, product_id, quantity, updated_at
			 FROM inventories
			 ORDER BY updated_at DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		result = result[:0]
		for rows.Next() {
			var inv repository.Inventory
			if err := rows.Scan(&inv.ID, &inv.ProductID, &inv.Quantity, &inv.UpdatedAt); err != nil {
				return err
			}
			result = append(result, inv)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete удаляет запись остатка
func (r *Inventories) Delete(ctx context.Context, id string) error {
	return withRetry(ctx, r.logger, "inventories.delete", func() error {
		tag, err := runner(ctx, r.pool).Exec(ctx,
			`DELETE FROM inventories WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &errs.NotFoundError{Entity: errs.EntityInventory, ID: id}
		}
		return nil
	})
}

// adjust выполняет read-check-write под row lock
// Если вызов идёт внутри транзакции заказа, lock держится до её коммита
// или отката; иначе открывается собственная короткая транзакция
func (r *Inventories) adjust(ctx context.Context, keyColumn, key string, notFound error, amount int64, op repository.InventoryOp) (repository.Inventory, error) {
	var inv repository.Inventory
	err := withOwnTx(ctx, r.pool, func(ctx context.Context, q querier) error {
		row := q.QueryRow(ctx,
			`SELECT id, product_id, quantity, updated_at
			 FROM inventories
			 WHERE `+keyColumn+` = $1
			 FOR UPDATE`, key)
		if err := row.Scan(&inv.ID, &inv.ProductID, &inv.Quantity, &inv.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return notFound
			}
			return classify(err)
		}

		if err := inv.Adjust(amount, op); err != nil {
			return err
		}

		if _, err := q.Exec(ctx,
			`UPDATE inventories SET quantity = $1, updated_at = $2 WHERE id = $3`,
			inv.Quantity, inv.UpdatedAt, inv.ID); err != nil {
			return classify(err)
		}
		return nil
	})
	if err != nil {
		return repository.Inventory{}, err
	}
	return inv, nil
}

