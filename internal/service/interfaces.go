package service

import (
	"context"

	"github.com/shopspring/decimal"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=PaymentAuthorizer --dir=. --output=./mocks --outpkg=mocks

// PaymentAuthorizer определяет интерфейс внешнего платёжного шлюза
// Использует доменные типы - это делает service независимым от транспорта
type PaymentAuthorizer interface {
	// Authorize запрашивает авторизацию списания у шлюза
	// Возвращает approved=false, если шлюз отклонил платёж
	// Ошибка означает недоступность шлюза, а не отказ
	Authorize(ctx context.Context, paymentID string, amount decimal.Decimal) (bool, error)
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=OrderEventPublisher --dir=. --output=./mocks --outpkg=mocks

// OrderEventPublisher определяет интерфейс публикации событий жизненного
// цикла заказа. События публикуются после коммита транзакции: сбой
// публикации логируется, но не откатывает заказ
type OrderEventPublisher interface {
	// PublishOrderCreated публикует событие о создании заказа
	PublishOrderCreated(ctx context.Context, event OrderCreatedEvent) error

	// PublishOrderCancelled публикует событие об отмене заказа
	PublishOrderCancelled(ctx context.Context, event OrderCancelledEvent) error
}

// OrderCreatedEvent описывает успешно созданный заказ
type OrderCreatedEvent struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	PaymentID   string          `json:"payment_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// OrderCancelledEvent описывает отменённый заказ
type OrderCancelledEvent struct {
	OrderID   string `json:"order_id"`
	UserID    string `json:"user_id"`
	Restocked bool   `json:"restocked"`
}
