package memory

import (
	"context"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// Orders реализует repository.OrderRepository поверх Store
type Orders struct {
	s *Store
}

// Save сохраняет заказ вместе с позициями
func (r *Orders) Save(ctx context.Context, order repository.Order) error {
	r.s.ordersMu.Lock()
	defer r.s.ordersMu.Unlock()

	// копируем позиции, чтобы caller не мог мутировать сохранённый заказ
	items := make([]repository.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items

	_, existed := r.s.orders[order.ID]
	r.s.orders[order.ID] = order
	if !existed {
		r.s.orderInsrt = append(r.s.orderInsrt, order.ID)
	}

	if journal, ok := repository.JournalFrom(ctx); ok {
		id := order.ID
		journal.Record(func(context.Context) {
			r.s.ordersMu.Lock()
			defer r.s.ordersMu.Unlock()
			delete(r.s.orders, id)
			for i, existing := range r.s.orderInsrt {
				if existing == id {
					r.s.orderInsrt = append(r.s.orderInsrt[:i], r.s.orderInsrt[i+1:]...)
					break
				}
			}
		})
	}
	return nil
}

// GetByID получает заказ по ID
func (r *Orders) GetByID(ctx context.Context, id string) (repository.Order, error) {
	r.s.ordersMu.RLock()
	defer r.s.ordersMu.RUnlock()

	order, exists := r.s.orders[id]
	if !exists {
		return repository.Order{}, &errs.NotFoundError{Entity: errs.EntityOrder, ID: id}
	}

	items := make([]repository.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order, nil
}

// List возвращает страницу заказов в порядке создания
func (r *Orders) List(ctx context.Context, page, size int) ([]repository.Order, error) {
	r.s.ordersMu.RLock()
	defer r.s.ordersMu.RUnlock()

	start := page * size
	if start >= len(r.s.orderInsrt) {
		return []repository.Order{}, nil
	}
	end := start + size
	if end > len(r.s.orderInsrt) {
		end = len(r.s.orderInsrt)
	}

	result := make([]repository.Order, 0, end-start)
	for _, id := range r.s.orderInsrt[start:end] {
		result = append(result, r.s.orders[id])
	}
	return result, nil
}

// MarkCancelled атомарно переводит заказ в CANCELLED
// Проверка статуса и его смена идут под одним мьютексом: из двух
// конкурентных отмен ровно одна успевает
func (r *Orders) MarkCancelled(ctx context.Context, id string) error {
	r.s.ordersMu.Lock()
	defer r.s.ordersMu.Unlock()

	order, exists := r.s.orders[id]
	if !exists {
		return &errs.NotFoundError{Entity: errs.EntityOrder, ID: id}
	}
	if order.Status == repository.OrderStatusCancelled {
		return &errs.AlreadyCancelledError{OrderID: id}
	}

	previous := order.Status
	order.Status = repository.OrderStatusCancelled
	r.s.orders[id] = order

	if journal, ok := repository.JournalFrom(ctx); ok {
		journal.Record(func(context.Context) {
			r.s.ordersMu.Lock()
			defer r.s.ordersMu.Unlock()
			restored, exists := r.s.orders[id]
			// откатываем только собственный переход
			if !exists || restored.Status != repository.OrderStatusCancelled {
				return
			}
			restored.Status = previous
			r.s.orders[id] = restored
		})
	}
	return nil
}
