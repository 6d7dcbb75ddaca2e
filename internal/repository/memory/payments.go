package memory

import (
	"context"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// Payments реализует repository.PaymentRepository поверх Store
type Payments struct {
	s *Store
}

// Save сохраняет платёж
// Через Detach-контекст запись не попадает в журнал и переживает откат -
// так сохраняются FAILED платежи для аудита
func (r *Payments) Save(ctx context.Context, payment repository.Payment) error {
	r.s.paymentsMu.Lock()
	defer r.s.paymentsMu.Unlock()

	r.s.payments[payment.ID] = payment

	if journal, ok := repository.JournalFrom(ctx); ok {
		id := payment.ID
		journal.Record(func(context.Context) {
			r.s.paymentsMu.Lock()
			defer r.s.paymentsMu.Unlock()
			delete(r.s.payments, id)
		})
	}
	return nil
}

// GetByID получает платёж по ID
func (r *Payments) GetByID(ctx context.Context, id string) (repository.Payment, error) {
	r.s.paymentsMu.RLock()
	defer r.s.paymentsMu.RUnlock()

	payment, exists := r.s.payments[id]
	if !exists {
		return repository.Payment{}, &errs.NotFoundError{Entity: errs.EntityPayment, ID: id}
	}
	return payment, nil
}
