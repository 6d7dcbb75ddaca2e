package errs

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Entity перечисляет сущности, для которых возможна ошибка "не найдено"
// Разные варианты нужны, чтобы caller мог отличить "нет такого inventory id"
// от "нет инвентаря для этого товара"
type Entity string

const (
	EntityUser                Entity = "user"
	EntityProduct             Entity = "product"
	EntityOrder               Entity = "order"
	EntityPayment             Entity = "payment"
	EntityInventory           Entity = "inventory"
	EntityInventoryForProduct Entity = "inventory_for_product"
)

// NotFoundError возвращается, когда сущность отсутствует в хранилище
type NotFoundError struct {
	Entity Entity
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: id=%s", e.Entity, e.ID)
}

// InvalidQuantityError возвращается при отрицательном или нулевом количестве
// Переданное количество сохраняется в структуре, форматирование - на границе API
type InvalidQuantityError struct {
	Quantity int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity: %d", e.Quantity)
}

// InsufficientStockError возвращается, когда списание превышает остаток
// Несёт текущий остаток и запрошенное количество (по требованию бизнес-логики)
type InsufficientStockError struct {
	ProductID string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available=%d, requested=%d",
		e.ProductID, e.Available, e.Requested)
}

// DuplicateProductError возвращается при попытке создать второй inventory
// для товара, у которого он уже есть (товар и inventory связаны 1:1)
type DuplicateProductError struct {
	ProductID string
}

func (e *DuplicateProductError) Error() string {
	return fmt.Sprintf("inventory already exists for product %s", e.ProductID)
}

// DuplicateProductNameError возвращается при создании товара с занятым именем
type DuplicateProductNameError struct {
	Name string
}

func (e *DuplicateProductNameError) Error() string {
	return fmt.Sprintf("product name already registered: %s", e.Name)
}

// DuplicateEmailError возвращается при регистрации пользователя с занятым email
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrAmountMissing возвращается, когда сумма платежа не передана
var ErrAmountMissing = errors.New("payment amount is missing")

// NegativeAmountError возвращается при отрицательной сумме платежа
type NegativeAmountError struct {
	Amount decimal.Decimal
}

func (e *NegativeAmountError) Error() string {
	return fmt.Sprintf("payment amount is negative: %s", e.Amount)
}

// PaymentFailedError возвращается, когда внешний авторизатор отклонил платёж
type PaymentFailedError struct {
	PaymentID string
	Amount    decimal.Decimal
}

func (e *PaymentFailedError) Error() string {
	return fmt.Sprintf("payment declined: payment_id=%s, amount=%s", e.PaymentID, e.Amount)
}

// AlreadyCancelledError возвращается при повторной отмене заказа
type AlreadyCancelledError struct {
	OrderID string
}

func (e *AlreadyCancelledError) Error() string {
	return fmt.Sprintf("order already cancelled: %s", e.OrderID)
}

// TransientError оборачивает временный сбой хранилища
// Такие ошибки ретраятся ограниченное число раз перед тем, как всплыть наверх
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient storage failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IntegrityError оборачивает нарушение ограничения целостности
// В отличие от TransientError не ретраится
type IntegrityError struct {
	Err error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("data integrity violation: %v", e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// IsTransient сообщает, стоит ли повторять операцию
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsNotFound сообщает, что сущность отсутствует (любой вариант)
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
