package memory

import (
	"context"
	"reflect"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// Products реализует repository.ProductRepository поверх Store
type Products struct {
	s *Store
}

// Create сохраняет новый товар
// Имя товара уникально: повтор возвращает DuplicateProductNameError
func (r *Products) Create(ctx context.Context, product repository.Product) error {
	r.s.productsMu.Lock()
	defer r.s.productsMu.Unlock()

	for _, existing := range r.s.products {
		if existing.Name == product.Name {
			return &errs.DuplicateProductNameError{Name: product.Name}
		}
	}

	r.s.products[product.ID] = product
	r.s.productOrder = append(r.s.productOrder, product.ID)

	if journal, ok := repository.JournalFrom(ctx); ok {
		id := product.ID
		journal.Record(func(context.Context) {
			r.s.productsMu.Lock()
			defer r.s.productsMu.Unlock()
			delete(r.s.products, id)
			r.s.removeFromOrder(id)
		})
	}
	return nil
}

// GetByID получает товар по ID
func (r *Products) GetByID(ctx context.Context, id string) (repository.Product, error) {
	r.s.productsMu.RLock()
	defer r.s.productsMu.RUnlock()

	product, exists := r.s.products[id]
	if !exists {
		return repository.Product{}, &errs.NotFoundError{Entity: errs.EntityProduct, ID: id}
	}
	return product, nil
}

// GetByIDs получает товары по списку ID
// Отсутствующие ID не попадают в результат - caller сравнивает размеры
func (r *Products) GetByIDs(ctx context.Context, ids []string) ([]repository.Product, error) {
	r.s.productsMu.RLock()
	defer r.s.productsMu.RUnlock()

	result := make([]repository.Product, 0, len(ids))
	for _, id := range ids {
		if product, exists := r.s.products[id]; exists {
			result = append(result, product)
		}
	}
	return result, nil
}

// List возвращает страницу товаров в порядке создания
func (r *Products) List(ctx context.Context, page, size int) ([]repository.Product, error) {
	r.s.productsMu.RLock()
	defer r.s.productsMu.RUnlock()

	start := page * size
	if start >= len(r.s.productOrder) {
		return []repository.Product{}, nil
	}
	end := start + size
	if end > len(r.s.productOrder) {
		end = len(r.s.productOrder)
	}

	result := make([]repository.Product, 0, end-start)
	for _, id := range r.s.productOrder[start:end] {
		result = append(result, r.s.products[id])
	}
	return result, nil
}

// Update обновляет товар
func (r *Products) Update(ctx context.Context, product repository.Product) error {
	r.s.productsMu.Lock()
	defer r.s.productsMu.Unlock()

	previous, exists := r.s.products[product.ID]
	if !exists {
		return &errs.NotFoundError{Entity: errs.EntityProduct, ID: product.ID}
	}

	r.s.products[product.ID] = product

	if journal, ok := repository.JournalFrom(ctx); ok {
		applied := product
		journal.Record(func(context.Context) {
			r.s.productsMu.Lock()
			defer r.s.productsMu.Unlock()
			// снимок возвращается только если запись с тех пор не менялась:
			// закоммиченное конкурентное обновление откат не затирает
			if current, exists := r.s.products[previous.ID]; exists && reflect.DeepEqual(current, applied) {
				r.s.products[previous.ID] = previous
			}
		})
	}
	return nil
}

// Delete удаляет товар
func (r *Products) Delete(ctx context.Context, id string) error {
	r.s.productsMu.Lock()
	defer r.s.productsMu.Unlock()

	previous, exists := r.s.products[id]
	if !exists {
		return &errs.NotFoundError{Entity: errs.EntityProduct, ID: id}
	}

	delete(r.s.products, id)
	r.s.removeFromOrder(id)

	if journal, ok := repository.JournalFrom(ctx); ok {
		journal.Record(func(context.Context) {
			r.s.productsMu.Lock()
			defer r.s.productsMu.Unlock()
			r.s.products[previous.ID] = previous
			r.s.productOrder = append(r.s.productOrder, previous.ID)
		})
	}
	return nil
}

// removeFromOrder убирает ID из порядка вставки
// Вызывается только под productsMu
func (s *Store) removeFromOrder(id string) {
	for i, existing := range s.productOrder {
		if existing == id {
			s.productOrder = append(s.productOrder[:i], s.productOrder[i+1:]...)
			return
		}
	}
}
