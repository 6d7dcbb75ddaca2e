package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// User представляет доменную модель пользователя
// Это бизнес-сущность, не привязанная к HTTP или БД
type User struct {
	ID        string
	Name      string
	Email     string
	Password  string
	Phone     string
	Address   string
	CreatedAt time.Time
}

// Product представляет доменную модель товара
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CreatedAt   time.Time
}

// Inventory представляет запись остатка для одного товара
// Ровно одна запись на товар; запись - единственный владелец продаваемого количества
type Inventory struct {
	ID        string
	ProductID string
	Quantity  int64
	UpdatedAt time.Time
}

// OrderStatus перечисляет статусы заказа
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusFailed     OrderStatus = "FAILED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// PaymentStatus перечисляет статусы платежа
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// OrderItem представляет одну позицию заказа
// Имя и цена товара фиксируются на момент заказа: последующие изменения
// товара не должны менять исторические суммы
type OrderItem struct {
	ProductID   string
	ProductName string
	Quantity    int64
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Order представляет доменную модель заказа
// Заказ владеет своими позициями и хранит только id пользователя и платежа
// (обратные ссылки делаются отдельными запросами, не указателями)
type Order struct {
	ID          string
	UserID      string
	PaymentID   string
	Status      OrderStatus
	Items       []OrderItem
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}

// Payment представляет доменную модель платежа
// Платёж с статусом FAILED тоже сохраняется - для аудита
type Payment struct {
	ID        string
	OrderID   string
	Amount    decimal.Decimal
	Status    PaymentStatus
	CreatedAt time.Time
}
