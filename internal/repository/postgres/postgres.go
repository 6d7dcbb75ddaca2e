// Package postgres реализует репозитории поверх PostgreSQL через pgx
// Per-record сериализация мутаций остатков делается row-level блокировкой
// (SELECT ... FOR UPDATE), атомарность заказа - транзакцией БД
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// querier покрывает и pgxpool.Pool, и pgx.Tx
// Репозитории выполняют запросы через текущую транзакцию, если она есть в
// контексте, иначе напрямую через pool
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// TxManager реализует repository.TxManager поверх транзакций PostgreSQL
type TxManager struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewTxManager создаёт новый TxManager
func NewTxManager(pool *pgxpool.Pool, logger *zap.Logger) *TxManager {
	return &TxManager{pool: pool, logger: logger}
}

// WithinTx выполняет fn в одной транзакции БД
// Дополнительно кладёт в контекст журнал компенсаций: хранилища вне БД
// (например mongo-инвентарь) регистрируют в нём обратные действия,
// которые выполняются при откате транзакции
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return classify(err)
	}

	journal := repository.NewJournal()
	txCtx := context.WithValue(ctx, txKey{}, tx)
	txCtx = repository.WithJournal(txCtx, journal)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			m.logger.Error("failed to roll back transaction", zap.Error(rbErr))
		}
		journal.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		journal.Rollback(ctx)
		return classify(err)
	}
	return nil
}

// Detach возвращает контекст без текущей транзакции и журнала
// Запись через такой контекст идёт напрямую через pool и переживает откат
func (m *TxManager) Detach(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, txKey{}, nil)
	return repository.DetachJournal(ctx)
}

// runner возвращает транзакцию из контекста или pool
func runner(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok && tx != nil {
		return tx
	}
	return pool
}

// inTx сообщает, идёт ли вызов внутри внешней транзакции
// Внутри транзакции ретраи запрещены: повтор отдельного запроса
// не восстановит состояние уже начатой транзакции
func inTx(ctx context.Context) bool {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return ok && tx != nil
}

// withOwnTx выполняет fn в собственной короткой транзакции, если внешней нет
// Нужно для read-check-write по одной записи остатка: FOR UPDATE держит
// row lock только до конца транзакции
func withOwnTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context, q querier) error) error {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok && tx != nil {
		return fn(ctx, tx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(err)
	}
	return nil
}
