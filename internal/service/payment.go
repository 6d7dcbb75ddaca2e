package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// PaymentService содержит бизнес-логику работы с платежами
type PaymentService struct {
	payments   repository.PaymentRepository
	authorizer PaymentAuthorizer
	tx         repository.TxManager
	logger     *zap.Logger
}

// NewPaymentService создаёт новый экземпляр PaymentService
func NewPaymentService(
	payments repository.PaymentRepository,
	authorizer PaymentAuthorizer,
	tx repository.TxManager,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		payments:   payments,
		authorizer: authorizer,
		tx:         tx,
		logger:     logger,
	}
}

// Charge авторизует списание и сохраняет платёж
//
// orderID - заказ, за который идёт списание; ID заказа генерируется до
// оплаты, поэтому и FAILED запись аудита ссылается на несостоявшийся заказ.
// amount == nil отклоняется до обращения к шлюзу (ErrAmountMissing),
// отрицательная сумма - тоже (NegativeAmountError)
//
// Отклонённый платёж сохраняется со статусом FAILED через Detach-контекст:
// такая запись пишется вне текущей транзакции и остаётся для аудита даже
// после её отката. Caller получает PaymentFailedError
func (s *PaymentService) Charge(ctx context.Context, orderID string, amount *decimal.Decimal) (repository.Payment, error) {
	if amount == nil {
		return repository.Payment{}, errs.ErrAmountMissing
	}
	if amount.IsNegative() {
		return repository.Payment{}, &errs.NegativeAmountError{Amount: *amount}
	}

	payment := repository.Payment{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Amount:    *amount,
		CreatedAt: time.Now().UTC(),
	}

	approved, err := s.authorizer.Authorize(ctx, payment.ID, payment.Amount)
	if err != nil {
		return repository.Payment{}, err
	}

	if !approved {
		payment.Status = repository.PaymentStatusFailed

		auditCtx := s.tx.Detach(ctx)
		if saveErr := s.payments.Save(auditCtx, payment); saveErr != nil {
			s.logger.Error("failed to record declined payment",
				zap.String("payment_id", payment.ID),
				zap.Error(saveErr))
		}

		s.logger.Warn("payment declined",
			zap.String("payment_id", payment.ID),
			zap.String("amount", payment.Amount.String()))
		return repository.Payment{}, &errs.PaymentFailedError{
			PaymentID: payment.ID,
			Amount:    payment.Amount,
		}
	}

	payment.Status = repository.PaymentStatusCompleted
	if err := s.payments.Save(ctx, payment); err != nil {
		return repository.Payment{}, err
	}

	s.logger.Info("payment completed",
		zap.String("payment_id", payment.ID),
		zap.String("amount", payment.Amount.String()))
	return payment, nil
}

// GetPayment получает платёж по ID
func (s *PaymentService) GetPayment(ctx context.Context, id string) (repository.Payment, error) {
	return s.payments.GetByID(ctx, id)
}
