package repository

import (
	"context"
	"sync"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=TxManager --dir=. --output=./mocks --outpkg=mocks

// TxManager определяет границу атомарной единицы работы
// Всё, что fn делает через репозитории с переданным контекстом, либо
// коммитится целиком, либо целиком откатывается при ошибке fn
type TxManager interface {
	// WithinTx выполняет fn в рамках одной транзакции
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Detach возвращает контекст без текущей транзакции
	// Запись через такой контекст переживёт откат (нужно для аудита платежей)
	Detach(ctx context.Context) context.Context
}

// Journal накапливает компенсирующие действия для хранилищ,
// не участвующих в общей транзакции БД (in-memory, mongo)
// При откате действия выполняются в обратном порядке регистрации
type Journal struct {
	mu    sync.Mutex
	undos []func(ctx context.Context)
}

// NewJournal создаёт пустой журнал
func NewJournal() *Journal {
	return &Journal{}
}

// Record регистрирует компенсирующее действие
func (j *Journal) Record(undo func(ctx context.Context)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.undos = append(j.undos, undo)
}

// Rollback выполняет накопленные компенсации в обратном порядке
// Журнал после этого пуст и может быть использован повторно
func (j *Journal) Rollback(ctx context.Context) {
	j.mu.Lock()
	undos := j.undos
	j.undos = nil
	j.mu.Unlock()

	for i := len(undos) - 1; i >= 0; i-- {
		undos[i](ctx)
	}
}

type journalKey struct{}

// WithJournal кладёт журнал в контекст
func WithJournal(ctx context.Context, j *Journal) context.Context {
	return context.WithValue(ctx, journalKey{}, j)
}

// JournalFrom достаёт журнал из контекста, если транзакция активна
func JournalFrom(ctx context.Context) (*Journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*Journal)
	return j, ok && j != nil
}

// DetachJournal возвращает контекст без журнала
func DetachJournal(ctx context.Context) context.Context {
	return context.WithValue(ctx, journalKey{}, (*Journal)(nil))
}
