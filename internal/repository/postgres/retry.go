package postgres

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
)

// maxAttempts ограничивает число попыток при временных сбоях хранилища
const maxAttempts = 5

// withRetry выполняет fn, повторяя её при временных сбоях до maxAttempts раз
// с экспоненциальным backoff. Нарушения целостности и бизнес-ошибки не
// ретраятся. Внутри внешней транзакции ретраи отключены: повтор отдельного
// запроса не откатит уже применённые шаги транзакции
func withRetry(ctx context.Context, logger *zap.Logger, op string, fn func() error) error {
	if inTx(ctx) {
		if err := fn(); err != nil {
			return classify(err)
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxAttempts-1), ctx)
	attempt := 0

	return backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}

		err = classify(err)
		if errs.IsTransient(err) {
			logger.Warn("transient storage failure, retrying",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}, bo)
}

// classify переводит ошибки pgx в таксономию errs
// SQLSTATE класс 23 - нарушение целостности (не ретраится),
// класс 08 и недоступность сервера - временный сбой (ретраится)
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "23"):
			return &errs.IntegrityError{Err: err}
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == "57P03", pgErr.Code == "53300":
			return &errs.TransientError{Err: err}
		}
		return err
	}

	if pgconn.SafeToRetry(err) {
		return &errs.TransientError{Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &errs.TransientError{Err: err}
	}

	return err
}

// isUniqueViolation проверяет нарушение уникального ограничения
// constraint сравнивается по подстроке, чтобы не зависеть от точного имени
// индекса в миграциях
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, constraint)
}
