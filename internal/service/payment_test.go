package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

func TestPaymentService_Charge_MissingAmount(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.payments.Charge(context.Background(), "order-1", nil)

	require.ErrorIs(t, err, errs.ErrAmountMissing)
	f.authorizer.AssertNotCalled(t, "Authorize")
}

func TestPaymentService_Charge_NegativeAmount(t *testing.T) {
	f := newFixture(t, true)
	amount := decimal.RequireFromString("-10.00")

	_, err := f.payments.Charge(context.Background(), "order-1", &amount)

	var negErr *errs.NegativeAmountError
	require.ErrorAs(t, err, &negErr)
	require.True(t, negErr.Amount.Equal(amount))
	f.authorizer.AssertNotCalled(t, "Authorize")
}

func TestPaymentService_Charge_ZeroAmountIsAllowed(t *testing.T) {
	f := newFixture(t, true)
	amount := decimal.Zero

	f.authorizer.On("Authorize", mock.Anything, mock.Anything, amountEquals("0")).
		Return(true, nil).Once()

	payment, err := f.payments.Charge(context.Background(), "order-1", &amount)
	require.NoError(t, err)
	require.Equal(t, repository.PaymentStatusCompleted, payment.Status)
	require.Equal(t, "order-1", payment.OrderID)
}

func TestPaymentService_Charge_GatewayUnavailable(t *testing.T) {
	f := newFixture(t, true)
	amount := decimal.RequireFromString("10.00")
	gatewayErr := errors.New("gateway timeout")

	f.authorizer.On("Authorize", mock.Anything, mock.Anything, mock.Anything).
		Return(false, gatewayErr).Once()

	_, err := f.payments.Charge(context.Background(), "order-1", &amount)

	// недоступность шлюза - не отказ: платёж не сохраняется вовсе
	require.ErrorIs(t, err, gatewayErr)

	var paymentErr *errs.PaymentFailedError
	require.False(t, errors.As(err, &paymentErr))
}

func TestPaymentService_Charge_DeclinedIsPersistedForAudit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	amount := decimal.RequireFromString("25.50")

	f.authorizer.On("Authorize", mock.Anything, mock.Anything, amountEquals("25.50")).
		Return(false, nil).Once()

	_, err := f.payments.Charge(ctx, "order-1", &amount)

	var paymentErr *errs.PaymentFailedError
	require.ErrorAs(t, err, &paymentErr)

	payment, getErr := f.payments.GetPayment(ctx, paymentErr.PaymentID)
	require.NoError(t, getErr)
	require.Equal(t, repository.PaymentStatusFailed, payment.Status)
	require.Equal(t, "order-1", payment.OrderID)
	require.True(t, payment.Amount.Equal(amount))
}
