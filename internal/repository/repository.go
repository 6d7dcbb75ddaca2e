package repository

import (
	"context"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=UserRepository --dir=. --output=./mocks --outpkg=mocks

// UserRepository определяет интерфейс для работы с хранилищем пользователей
// Service слой зависит от этого интерфейса, а не от конкретной реализации
type UserRepository interface {
	// Create сохраняет нового пользователя
	// Возвращает DuplicateEmailError, если email уже занят
	Create(ctx context.Context, user User) error

	// GetByID получает пользователя по ID
	// Возвращает NotFoundError(user), если пользователь не найден
	GetByID(ctx context.Context, id string) (User, error)

	// Update обновляет данные пользователя
	Update(ctx context.Context, user User) error
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=ProductRepository --dir=. --output=./mocks --outpkg=mocks

// ProductRepository определяет интерфейс для работы с хранилищем товаров
type ProductRepository interface {
	// Create сохраняет новый товар
	// Возвращает DuplicateProductNameError, если имя уже занято
	Create(ctx context.Context, product Product) error

	// GetByID получает товар по ID
	GetByID(ctx context.Context, id string) (Product, error)

	// GetByIDs получает товары по списку ID одним запросом
	// Отсутствующие ID просто не попадают в результат - caller сравнивает размеры
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)

	// List возвращает страницу товаров (нумерация страниц с нуля)
	List(ctx context.Context, page, size int) ([]Product, error)

	// Update обновляет товар
	Update(ctx context.Context, product Product) error

	// Delete удаляет товар
	Delete(ctx context.Context, id string) error
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=InventoryRepository --dir=. --output=./mocks --outpkg=mocks

// InventoryRepository определяет интерфейс для работы с хранилищем остатков
//
// Контракт конкурентности: AdjustByProductID и AdjustByInventoryID сериализуют
// read-check-write для одной записи (per-record mutex, row lock или CAS).
// Мутации разных записей не блокируют друг друга; глобальной блокировки нет
type InventoryRepository interface {
	// Create создаёт запись остатка для товара
	// Возвращает DuplicateProductError, если запись для товара уже существует
	Create(ctx context.Context, inv Inventory) error

	// GetByID получает запись по inventory ID
	// Возвращает NotFoundError(inventory), если запись не найдена
	GetByID(ctx context.Context, id string) (Inventory, error)

	// GetByProductID получает запись по ID товара
	// Возвращает NotFoundError(inventory_for_product), если записи нет
	GetByProductID(ctx context.Context, productID string) (Inventory, error)

	// GetByProductIDs получает записи по списку ID товаров одним запросом
	GetByProductIDs(ctx context.Context, productIDs []string) ([]Inventory, error)

	// AdjustByProductID атомарно применяет операцию к остатку товара
	// Возвращает обновлённый снимок записи
	AdjustByProductID(ctx context.Context, productID string, amount int64, op InventoryOp) (Inventory, error)

	// AdjustByInventoryID атомарно применяет операцию по inventory ID
	// Используется для прямых административных корректировок
	AdjustByInventoryID(ctx context.Context, id string, amount int64, op InventoryOp) (Inventory, error)

	// List возвращает все записи остатков
	List(ctx context.Context) ([]Inventory, error)

	// Delete удаляет запись остатка
	Delete(ctx context.Context, id string) error
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=OrderRepository --dir=. --output=./mocks --outpkg=mocks

// OrderRepository определяет интерфейс для работы с хранилищем заказов
type OrderRepository interface {
	// Save сохраняет заказ вместе с позициями
	Save(ctx context.Context, order Order) error

	// GetByID получает заказ по ID
	// Возвращает NotFoundError(order), если заказ не найден
	GetByID(ctx context.Context, id string) (Order, error)

	// List возвращает страницу заказов (нумерация страниц с нуля)
	List(ctx context.Context, page, size int) ([]Order, error)

	// MarkCancelled атомарно переводит заказ в CANCELLED
	// Проверка "ещё не отменён" и смена статуса неразделимы: из двух
	// конкурентных отмен ровно одна успевает, вторая получает
	// AlreadyCancelledError. Возвращает NotFoundError(order), если заказа нет
	MarkCancelled(ctx context.Context, id string) error
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=PaymentRepository --dir=. --output=./mocks --outpkg=mocks

// PaymentRepository определяет интерфейс для работы с хранилищем платежей
type PaymentRepository interface {
	// Save сохраняет платёж
	Save(ctx context.Context, payment Payment) error

	// GetByID получает платёж по ID
	GetByID(ctx context.Context, id string) (Payment, error)
}
