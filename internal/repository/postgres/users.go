package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// Users реализует repository.UserRepository поверх PostgreSQL
type Users struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewUsers создаёт новый PostgreSQL репозиторий пользователей
func NewUsers(pool *pgxpool.Pool, logger *zap.Logger) *Users {
	return &Users{pool: pool, logger: logger}
}

// Create сохраняет нового пользователя
func (r *Users) Create(ctx context.Context, user repository.User) error {
	return withRetry(ctx, r.logger, "users.create", func() error {
		_, err := runner(ctx, r.pool).Exec(ctx,
			`INSERT INTO users (id, name, email, password, phone, address, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			user.ID, user.Name, user.Email, user.Password, user.Phone, user.Address, user.CreatedAt)
		if isUniqueViolation(err, "email") {
			return &errs.DuplicateEmailError{Email: user.Email}
		}
		return err
	})
}

// GetByID получает пользователя по ID
func (r *Users) GetByID(ctx context.Context, id string) (repository.User, error) {
	var user repository.User
	err := withRetry(ctx, r.logger, "users.get_by_id", func() error {
		row := runner(ctx, r.pool).QueryRow(ctx,
			`SELECT id, name, email, password, phone, address, created_at
			 FROM users
			 WHERE id = $1`, id)
		if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Password,
			&user.Phone, &user.Address, &user.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &errs.NotFoundError{Entity: errs.EntityUser, ID: id}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return repository.User{}, err
	}
	return user, nil
}

// Update обновляет данные пользователя
func (r *Users) Update(ctx context.Context, user repository.User) error {
	return withRetry(ctx, r.logger, "users.update", func() error {
		tag, err := runner(ctx, r.pool).Exec(ctx,
			`UPDATE users
			 SET name = $1, email = $2, password = $3, phone = $4, address = $5
			 WHERE id = $6`,
			user.Name, user.Email, user.Password, user.Phone, user.Address, user.ID)
		if isUniqueViolation(err, "email") {
			return &errs.DuplicateEmailError{Email: user.Email}
		}
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &errs.NotFoundError{Entity: errs.EntityUser, ID: user.ID}
		}
		return nil
	})
}
