package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// Orders реализует repository.OrderRepository поверх PostgreSQL
// Заказ и его позиции пишутся в две таблицы; позиция хранит снимок имени и
// цены товара на момент заказа
type Orders struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewOrders создаёт новый PostgreSQL репозиторий заказов
func NewOrders(pool *pgxpool.Pool, logger *zap.Logger) *Orders {
	return &Orders{pool: pool, logger: logger}
}

// Save сохраняет заказ вместе с позициями
// Вызывается внутри транзакции заказа, поэтому шапка и позиции атомарны
func (r *Orders) Save(ctx context.Context, order repository.Order) error {
	return withRetry(ctx, r.logger, "orders.save", func() error {
		q := runner(ctx, r.pool)

		var paymentID any
		if order.PaymentID != "" {
			paymentID = order.PaymentID
		}
		_, err := q.Exec(ctx,
			`INSERT INTO orders (id, user_id, payment_id, status, total_amount, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			order.ID, order.UserID, paymentID, order.Status, order.TotalAmount.String(), order.CreatedAt)
		if err != nil {
			return err
		}

		for pos, item := range order.Items {
			_, err := q.Exec(ctx,
				`INSERT INTO order_items (order_id, position, product_id, product_name, quantity, unit_price, line_total)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				order.ID, pos, item.ProductID, item.ProductName, item.Quantity,
				item.UnitPrice.String(), item.LineTotal.String())
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID получает заказ по ID вместе с позициями
func (r *Orders) GetByID(ctx context.Context, id string) (repository.Order, error) {
	var order repository.Order
	err := withRetry(ctx, r.logger, "orders.get_by_id", func() error {
		row := runner(ctx, r.pool).QueryRow(ctx,
			`SELECT id, user_id, COALESCE(payment_id, ''), status, total_amount::text, created_at
			 FROM orders
			 WHERE id = $1`, id)
		o, err := scanOrder(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &errs.NotFoundError{Entity: errs.EntityOrder, ID: id}
			}
			return err
		}

		items, err := r.loadItems(ctx, []string{o.ID})
		if err != nil {
			return err
		}
		o.Items = items[o.ID]
		order = o
		return nil
	})
	if err != nil {
		return repository.Order{}, err
	}
	return order, nil
}

// List возвращает страницу заказов (нумерация страниц с нуля)
// Позиции всех заказов страницы загружаются одним запросом
func (r *Orders) List(ctx context.Context, page, size int) ([]repository.Order, error) {
	var result []repository.Order
	err := withRetry(ctx, r.logger, "orders.list", func() error {
		rows, err := runner(ctx, r.pool).Query(ctx,
			`SELECT id, user_id, COALESCE(payment_id, ''), status, total_amount::text, created_at
			 FROM orders
			 ORDER BY created_at, id
			 LIMIT $1 OFFSET $2`, size, page*size)
		if err != nil {
			return err
		}
		defer rows.Close()

		result = make([]repository.Order, 0, size)
		ids := make([]string, 0, size)
		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return err
			}
			result = append(result, o)
			ids = append(ids, o.ID)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		items, err := r.loadItems(ctx, ids)
		if err != nil {
			return err
		}
		for i := range result {
			result[i].Items = items[result[i].ID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkCancelled атомарно переводит заказ в CANCELLED
// Охранное условие в UPDATE делает проверку и смену статуса одним
// действием: конкурентная отмена либо ждёт row lock и видит 0 строк,
// либо успевает первой
func (r *Orders) MarkCancelled(ctx context.Context, id string) error {
	return withRetry(ctx, r.logger, "orders.mark_cancelled", func() error {
		tag, err := runner(ctx, r.pool).Exec(ctx,
			`UPDATE orders SET status = $1 WHERE id = $2 AND status <> $1`,
			repository.OrderStatusCancelled, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}

		// 0 строк: заказа нет либо он уже отменён
		var status repository.OrderStatus
		row := runner(ctx, r.pool).QueryRow(ctx,
			`SELECT status FROM orders WHERE id = $1`, id)
		if err := row.Scan(&status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &errs.NotFoundError{Entity: errs.EntityOrder, ID: id}
			}
			return err
		}
		return &errs.AlreadyCancelledError{OrderID: id}
	})
}

// loadItems загружает позиции для набора заказов, сгруппированные по order_id
func (r *Orders) loadItems(ctx context.Context, orderIDs []string) (map[string][]repository.OrderItem, error) {
	if len(orderIDs) == 0 {
		return map[string][]repository.OrderItem{}, nil
	}

	rows, err := runner(ctx, r.pool).Query(ctx,
		`SELECT order_id, product_id, product_name, quantity, unit_price::text, line_total::text
		 FROM order_items
		 WHERE order_id = ANY($1)
		 ORDER BY order_id, position`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[string][]repository.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			orderID             string
			item                repository.OrderItem
			unitPrice, lineTotal string
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &unitPrice, &lineTotal); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, err
		}
		if item.LineTotal, err = decimal.NewFromString(lineTotal); err != nil {
			return nil, err
		}
		items[orderID] = append(items[orderID], item)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (repository.Order, error) {
	var (
		o     repository.Order
		total string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.PaymentID, &o.Status, &total, &o.CreatedAt); err != nil {
		return repository.Order{}, err
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return repository.Order{}, err
	}
	o.TotalAmount = d
	return o, nil
}
