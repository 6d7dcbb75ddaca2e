// Package memory реализует репозитории на in-memory структурах
// Используется для разработки и тестирования; в production заменяется
// на postgres/mongo реализации
package memory

import (
	"context"
	"sync"

	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// Store держит все in-memory хранилища под одной крышей
// Каждая секция защищена своим мьютексом; записи остатков дополнительно
// имеют собственный мьютекс для per-record сериализации мутаций
type Store struct {
	usersMu sync.RWMutex
	users   map[string]repository.User

	productsMu sync.RWMutex
	products   map[string]repository.Product
	// порядок вставки для стабильной пагинации
	productOrder []string

	invMu sync.RWMutex
	// inventory ID -> запись; запись мутируется только под своим мьютексом
	inventories map[string]*inventoryRecord
	// product ID -> inventory ID (товар и запись связаны 1:1)
	invByProduct map[string]string

	ordersMu   sync.RWMutex
	orders     map[string]repository.Order
	orderInsrt []string

	paymentsMu sync.RWMutex
	payments   map[string]repository.Payment
}

// inventoryRecord связывает запись остатка с её мьютексом
// Блокировка одной записи не мешает мутациям других записей
type inventoryRecord struct {
	mu  sync.Mutex
	inv repository.Inventory
}

// NewStore создаёт пустой in-memory store
func NewStore() *Store {
	return &Store{
		users:        make(map[string]repository.User),
		products:     make(map[string]repository.Product),
		inventories:  make(map[string]*inventoryRecord),
		invByProduct: make(map[string]string),
		orders:       make(map[string]repository.Order),
		payments:     make(map[string]repository.Payment),
	}
}

// Users возвращает репозиторий пользователей поверх этого store
func (s *Store) Users() *Users { return &Users{s: s} }

// Products возвращает репозиторий товаров поверх этого store
func (s *Store) Products() *Products { return &Products{s: s} }

// Inventories возвращает репозиторий остатков поверх этого store
func (s *Store) Inventories() *Inventories { return &Inventories{s: s} }

// Orders возвращает репозиторий заказов поверх этого store
func (s *Store) Orders() *Orders { return &Orders{s: s} }

// Payments возвращает репозиторий платежей поверх этого store
func (s *Store) Payments() *Payments { return &Payments{s: s} }

// WithinTx выполняет fn с журналом компенсаций в контексте
// При ошибке fn все зарегистрированные изменения откатываются в обратном
// порядке. Это даёт atomicity единицы работы; изоляции уровня БД in-memory
// реализация не обещает (достаточно для разработки и тестов)
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	journal := repository.NewJournal()
	txCtx := repository.WithJournal(ctx, journal)

	if err := fn(txCtx); err != nil {
		journal.Rollback(ctx)
		return err
	}
	return nil
}

// Detach возвращает контекст без журнала: запись через него не откатится
func (s *Store) Detach(ctx context.Context) context.Context {
	return repository.DetachJournal(ctx)
}
