package memory

import (
	"context"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// Users реализует repository.UserRepository поверх Store
type Users struct {
	s *Store
}

// Create сохраняет нового пользователя
// Email уникален: повторная регистрация возвращает DuplicateEmailError
func (r *Users) Create(ctx context.Context, user repository.User) error {
	r.s.usersMu.Lock()
	defer r.s.usersMu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return &errs.DuplicateEmailError{Email: user.Email}
		}
	}

	r.s.users[user.ID] = user

	if journal, ok := repository.JournalFrom(ctx); ok {
		id := user.ID
		journal.Record(func(context.Context) {
			r.s.usersMu.Lock()
			defer r.s.usersMu.Unlock()
			delete(r.s.users, id)
		})
	}
	return nil
}

// GetByID получает пользователя по ID
func (r *Users) GetByID(ctx context.Context, id string) (repository.User, error) {
	r.s.usersMu.RLock()
	defer r.s.usersMu.RUnlock()

	user, exists := r.s.users[id]
	if !exists {
		return repository.User{}, &errs.NotFoundError{Entity: errs.EntityUser, ID: id}
	}
	return user, nil
}

// Update обновляет данные пользователя
func (r *Users) Update(ctx context.Context, user repository.User) error {
	r.s.usersMu.Lock()
	defer r.s.usersMu.Unlock()

	previous, exists := r.s.users[user.ID]
	if !exists {
		return &errs.NotFoundError{Entity: errs.EntityUser, ID: user.ID}
	}

	r.s.users[user.ID] = user

	if journal, ok := repository.JournalFrom(ctx); ok {
		journal.Record(func(context.Context) {
			r.s.usersMu.Lock()
			defer r.s.usersMu.Unlock()
			r.s.users[previous.ID] = previous
		})
	}
	return nil
}
