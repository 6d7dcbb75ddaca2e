package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// UserService содержит бизнес-логику работы с пользователями
type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewUserService создаёт новый экземпляр UserService
func NewUserService(users repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// CreateUserInput содержит входные данные для регистрации пользователя
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

// CreateUser регистрирует нового пользователя
// Возвращает DuplicateEmailError, если email уже занят
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (repository.User, error) {
	if input.Name == "" {
		return repository.User{}, fmt.Errorf("user name is required")
	}
	if input.Email == "" {
		return repository.User{}, fmt.Errorf("user email is required")
	}

	user := repository.User{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Email:     input.Email,
		Password:  input.Password,
		Phone:     input.Phone,
		Address:   input.Address,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return repository.User{}, err
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email))
	return user, nil
}

// GetUser получает пользователя по ID
func (s *UserService) GetUser(ctx context.Context, id string) (repository.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateUserInput содержит входные данные для обновления пользователя
// Пустые поля не меняются
type UpdateUserInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

// UpdateUser обновляет данные пользователя
func (s *UserService) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (repository.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return repository.User{}, err
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Email != "" {
		user.Email = input.Email
	}
	if input.Password != "" {
		user.Password = input.Password
	}
	if input.Phone != "" {
		user.Phone = input.Phone
	}
	if input.Address != "" {
		user.Address = input.Address
	}

	if err := s.users.Update(ctx, user); err != nil {
		return repository.User{}, err
	}

	s.logger.Info("user updated", zap.String("user_id", user.ID))
	return user, nil
}
