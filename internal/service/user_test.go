package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository/memory"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	return NewUserService(memory.NewStore().Users(), zap.NewNop())
}

func TestUserService_CreateAndGetUser(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)

	user, err := svc.CreateUser(ctx, CreateUserInput{
		Name:  "Alice",
		Email: "alice@example.com",
		Phone: "+1-555-0100",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "Alice", got.Name)
	require.Equal(t, "alice@example.com", got.Email)
}

func TestUserService_CreateUser_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)

	_, err := svc.CreateUser(ctx, CreateUserInput{Email: "alice@example.com"})
	require.Error(t, err)

	_, err = svc.CreateUser(ctx, CreateUserInput{Name: "Alice"})
	require.Error(t, err)
}

func TestUserService_CreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)

	_, err := svc.CreateUser(ctx, CreateUserInput{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, CreateUserInput{Name: "Bob", Email: "alice@example.com"})
	var dupErr *errs.DuplicateEmailError
	require.ErrorAs(t, err, &dupErr)
	require.Equal(t, "alice@example.com", dupErr.Email)
}

func TestUserService_UpdateUser_PartialFields(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)

	user, err := svc.CreateUser(ctx, CreateUserInput{
		Name:    "Alice",
		Email:   "alice@example.com",
		Address: "Old street 1",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, user.ID, UpdateUserInput{Address: "New street 2"})
	require.NoError(t, err)
	require.Equal(t, "Alice", updated.Name)
	require.Equal(t, "New street 2", updated.Address)

	_, err = svc.UpdateUser(ctx, "ghost", UpdateUserInput{Name: "X"})
	require.True(t, errs.IsNotFound(err))
}
