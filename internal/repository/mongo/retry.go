package mongo

import (
	"context"
	"errors"
	"net"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// maxAttempts ограничивает число попыток при временных сбоях хранилища
const maxAttempts = 5

// withRetry выполняет fn, повторяя её при временных сбоях до maxAttempts раз
// с экспоненциальным backoff. Ошибки домена не ретраятся. Внутри транзакции
// заказа (в контексте есть журнал компенсаций) ретраи отключены: повтор
// отдельного вызова не восстановит уже применённые шаги транзакции
func withRetry(ctx context.Context, logger *zap.Logger, op string, fn func() error) error {
	if _, ok := repository.JournalFrom(ctx); ok {
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

// classify переводит ошибки драйвера в таксономию errs
// Сетевые сбои и таймауты - временные (ретраятся); промахи и нарушения
// уникальности проходят как есть, их разбирает caller
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) || mongo.IsDuplicateKeyError(err) {
		return err
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return &errs.TransientError{Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &errs.TransientError{Err: err}
	}
	return err
}
