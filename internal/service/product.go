package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// defaultPageSize задаёт размер страницы для списков товаров и заказов
const defaultPageSize = 10

// ProductService содержит бизнес-логику работы с товарами
// Товар и его запись остатка создаются и удаляются вместе, в одной
// атомарной единице работы
type ProductService struct {
	products  repository.ProductRepository
	inventory repository.InventoryRepository
	tx        repository.TxManager
	logger    *zap.Logger
}

// NewProductService создаёт новый экземпляр ProductService
func NewProductService(
	products repository.ProductRepository,
	inventory repository.InventoryRepository,
	tx repository.TxManager,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		products:  products,
		inventory: inventory,
		tx:        tx,
		logger:    logger,
	}
}

// CreateProductInput содержит входные данные для создания товара
type CreateProductInput struct {
	Name            string
	Description     string
	Price           decimal.Decimal
	InitialQuantity int64
}

// CreateProduct создаёт товар вместе с записью остатка
// Начальное количество не может быть отрицательным
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (repository.Product, error) {
	if input.Name == "" {
		return repository.Product{}, fmt.Errorf("product name is required")
	}
	if input.Price.IsNegative() {
		return repository.Product{}, &errs.NegativeAmountError{Amount: input.Price}
	}
	if input.InitialQuantity < 0 {
		return repository.Product{}, &errs.InvalidQuantityError{Quantity: input.InitialQuantity}
	}

	now := time.Now().UTC()
	product := repository.Product{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		CreatedAt:   now,
	}
	inv := repository.Inventory{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		Quantity:  input.InitialQuantity,
		UpdatedAt: now,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.products.Create(ctx, product); err != nil {
			return err
		}
		return s.inventory.Create(ctx, inv)
	})
	if err != nil {
		return repository.Product{}, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("name", product.Name),
		zap.Int64("initial_quantity", inv.Quantity))
	return product, nil
}

// GetProduct получает товар по ID
func (s *ProductService) GetProduct(ctx context.Context, id string) (repository.Product, error) {
	return s.products.GetByID(ctx, id)
}

// ListProducts возвращает страницу товаров (нумерация страниц с нуля)
func (s *ProductService) ListProducts(ctx context.Context, page int) ([]repository.Product, error) {
	if page < 0 {
		page = 0
	}
	return s.products.List(ctx, page, defaultPageSize)
}

// UpdateProductInput содержит входные данные для обновления товара
// Пустые поля не меняются; Price обновляется, только если задана
type UpdateProductInput struct {
	Name        string
	Description string
	Price       *decimal.Decimal
}

// UpdateProduct обновляет товар
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (repository.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return repository.Product{}, err
	}

	if input.Name != "" {
		product.Name = input.Name
	}
	if input.Description != "" {
		product.Description = input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return repository.Product{}, &errs.NegativeAmountError{Amount: *input.Price}
		}
		product.Price = *input.Price
	}

	if err := s.products.Update(ctx, product); err != nil {
		return repository.Product{}, err
	}

	s.logger.Info("product updated", zap.String("product_id", product.ID))
	return product, nil
}

// DeleteProduct удаляет товар вместе с записью остатка
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	inv, err := s.inventory.GetByProductID(ctx, id)
	if err != nil && !errs.IsNotFound(err) {
		return err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if inv.ID != "" {
			if err := s.inventory.Delete(ctx, inv.ID); err != nil {
				return err
			}
		}
		return s.products.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}
