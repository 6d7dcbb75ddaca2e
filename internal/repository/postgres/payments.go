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

// Payments реализует repository.PaymentRepository поверх PostgreSQL
// order_id допускает NULL: отклонённый платёж пишется для аудита до того,
// как заказ получил шанс сохраниться
type Payments struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPayments создаёт новый PostgreSQL репозиторий платежей
func NewPayments(pool *pgxpool.Pool, logger *zap.Logger) *Payments {
	return &Payments{pool: pool, logger: logger}
}

// Save сохраняет платёж
// При вызове через Detach-контекст запись идёт вне транзакции заказа
// и переживает её откат
func (r *Payments) Save(ctx context.Context, payment repository.Payment) error {
	return withRetry(ctx, r.logger, "payments.save", func() error {
		var orderID any
		if payment.OrderID != "" {
			orderID = payment.OrderID
		}
		_, err := runner(ctx, r.pool).Exec(ctx,
			`INSERT INTO payments (id, order_id, amount, status, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			payment.ID, orderID, payment.Amount.String(), payment.Status, payment.CreatedAt)
		return err
	})
}

// GetByID получает платёж по ID
func (r *Payments) GetByID(ctx context.Context, id string) (repository.Payment, error) {
	var payment repository.Payment
	err := withRetry(ctx, r.logger, "payments.get_by_id", func() error {
		row := runner(ctx, r.pool).QueryRow(ctx,
			`SELECT id, COALESCE(order_id, ''), amount::text, status, created_at
			 FROM payments
			 WHERE id = $1`, id)
		var amount string
		if err := row.Scan(&payment.ID, &payment.OrderID, &amount, &payment.Status, &payment.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &errs.NotFoundError{Entity: errs.EntityPayment, ID: id}
			}
			return err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return err
		}
		payment.Amount = d
		return nil
	})
	if err != nil {
		return repository.Payment{}, err
	}
	return payment, nil
}
