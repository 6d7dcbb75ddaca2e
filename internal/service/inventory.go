package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// InventoryService содержит бизнес-логику работы с остатками
// Все мутации идут через атомарный Adjust хранилища: проверка и изменение
// количества для одной записи неразделимы
type InventoryService struct {
	inventory repository.InventoryRepository
	logger    *zap.Logger
}

// NewInventoryService создаёт новый экземпляр InventoryService
func NewInventoryService(inventory repository.InventoryRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{inventory: inventory, logger: logger}
}

// CreateInventory создаёт запись остатка для товара
// Возвращает DuplicateProductError, если запись для товара уже есть
func (s *InventoryService) CreateInventory(ctx context.Context, productID string, initialQuantity int64) (repository.Inventory, error) {
	if initialQuantity < 0 {
		return repository.Inventory{}, &errs.InvalidQuantityError{Quantity: initialQuantity}
	}

	inv := repository.Inventory{
		ID:        uuid.NewString(),
		ProductID: productID,
		Quantity:  initialQuantity,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.inventory.Create(ctx, inv); err != nil {
		return repository.Inventory{}, err
	}

	s.logger.Info("inventory created",
		zap.String("inventory_id", inv.ID),
		zap.String("product_id", productID),
		zap.Int64("quantity", initialQuantity))
	return inv, nil
}

// DeleteInventory удаляет запись остатка по её ID
func (s *InventoryService) DeleteInventory(ctx context.Context, id string) error {
	if err := s.inventory.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("inventory deleted", zap.String("inventory_id", id))
	return nil
}

// GetStock получает запись остатка по ID товара
func (s *InventoryService) GetStock(ctx context.Context, productID string) (repository.Inventory, error) {
	return s.inventory.GetByProductID(ctx, productID)
}

// GetByInventoryID получает запись остатка по её собственному ID
func (s *InventoryService) GetByInventoryID(ctx context.Context, id string) (repository.Inventory, error) {
	return s.inventory.GetByID(ctx, id)
}

// ListStock возвращает все записи остатков
func (s *InventoryService) ListStock(ctx context.Context) ([]repository.Inventory, error) {
	return s.inventory.List(ctx)
}

// AddStock увеличивает остаток товара на amount
// Нулевое или отрицательное amount отклоняется
func (s *InventoryService) AddStock(ctx context.Context, productID string, amount int64) (repository.Inventory, error) {
	if amount <= 0 {
		return repository.Inventory{}, &errs.InvalidQuantityError{Quantity: amount}
	}

	inv, err := s.inventory.AdjustByProductID(ctx, productID, amount, repository.OpIncrease)
	if err != nil {
		return repository.Inventory{}, err
	}

	s.logger.Info("stock increased",
		zap.String("product_id", productID),
		zap.Int64("amount", amount),
		zap.Int64("quantity", inv.Quantity))
	return inv, nil
}

// AddStockByInventoryID увеличивает остаток по inventory ID
// Административный вариант AddStock: корректировка конкретной записи
func (s *InventoryService) AddStockByInventoryID(ctx context.Context, id string, amount int64) (repository.Inventory, error) {
	if amount <= 0 {
		return repository.Inventory{}, &errs.InvalidQuantityError{Quantity: amount}
	}

	inv, err := s.inventory.AdjustByInventoryID(ctx, id, amount, repository.OpIncrease)
	if err != nil {
		return repository.Inventory{}, err
	}

	s.logger.Info("stock increased",
		zap.String("inventory_id", id),
		zap.Int64("amount", amount),
		zap.Int64("quantity", inv.Quantity))
	return inv, nil
}

// RemoveStock уменьшает остаток товара на amount
// Возвращает InsufficientStockError, если остатка не хватает
func (s *InventoryService) RemoveStock(ctx context.Context, productID string, amount int64) (repository.Inventory, error) {
	if amount <= 0 {
		return repository.Inventory{}, &errs.InvalidQuantityError{Quantity: amount}
	}

	inv, err := s.inventory.AdjustByProductID(ctx, productID, amount, repository.OpDecrease)
	if err != nil {
		return repository.Inventory{}, err
	}

	s.logger.Info("stock decreased",
		zap.String("product_id", productID),
		zap.Int64("amount", amount),
		zap.Int64("quantity", inv.Quantity))
	return inv, nil
}

// SetStock устанавливает остаток товара в абсолютное значение
// Административная операция: идёт по inventory ID, а не по товару
func (s *InventoryService) SetStock(ctx context.Context, inventoryID string, quantity int64) (repository.Inventory, error) {
	if quantity < 0 {
		return repository.Inventory{}, &errs.InvalidQuantityError{Quantity: quantity}
	}

	inv, err := s.inventory.AdjustByInventoryID(ctx, inventoryID, quantity, repository.OpSet)
	if err != nil {
		return repository.Inventory{}, err
	}

	s.logger.Info("stock set",
		zap.String("inventory_id", inventoryID),
		zap.Int64("quantity", inv.Quantity))
	return inv, nil
}

// SetStockByProduct устанавливает остаток в абсолютное значение по ID товара
func (s *InventoryService) SetStockByProduct(ctx context.Context, productID string, quantity int64) (repository.Inventory, error) {
	if quantity < 0 {
		return repository.Inventory{}, &errs.InvalidQuantityError{Quantity: quantity}
	}

	inv, err := s.inventory.AdjustByProductID(ctx, productID, quantity, repository.OpSet)
	if err != nil {
		return repository.Inventory{}, err
	}

	s.logger.Info("stock set",
		zap.String("product_id", productID),
		zap.Int64("quantity", inv.Quantity))
	return inv, nil
}
