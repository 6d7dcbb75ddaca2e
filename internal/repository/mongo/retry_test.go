package mongo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// dialFailure имитирует сетевой сбой драйвера
type dialFailure struct{}

func (dialFailure) Error() string   { return "connection reset" }
func (dialFailure) Timeout() bool   { return true }
func (dialFailure) Temporary() bool { return true }

func TestWithRetry_RetriesTransientFailure(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), zap.NewNop(), "test", func() error {
		attempts++
		if attempts < 3 {
			return dialFailure{}
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestWithRetry_DomainErrorIsNotRetried(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), zap.NewNop(), "test", func() error {
		attempts++
		return mongo.ErrNoDocuments
	})

	require.ErrorIs(t, err, mongo.ErrNoDocuments)
	require.Equal(t, 1, attempts)
}

// Внутри транзакции заказа ретраев нет: слепой повтор $inc
// применил бы списание дважды
func TestWithRetry_SingleAttemptInsideTx(t *testing.T) {
	ctx := repository.WithJournal(context.Background(), repository.NewJournal())

	attempts := 0
	err := withRetry(ctx, zap.NewNop(), "test", func() error {
		attempts++
		return dialFailure{}
	})

	require.True(t, errs.IsTransient(err))
	require.Equal(t, 1, attempts)
}

func TestClassify(t *testing.T) {
	require.NoError(t, classify(nil))

	require.ErrorIs(t, classify(mongo.ErrNoDocuments), mongo.ErrNoDocuments)

	require.True(t, errs.IsTransient(classify(dialFailure{})))

	plain := errors.New("unmapped")
	require.ErrorIs(t, classify(plain), plain)
	require.False(t, errs.IsTransient(classify(plain)))
}
