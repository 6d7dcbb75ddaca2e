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

// OrderService содержит бизнес-логику работы с заказами
//
// Создание заказа - одна атомарная единица работы: проверка пользователя
// и товаров, списание остатков, оплата и сохранение заказа либо проходят
// целиком, либо целиком откатываются. Частичных заказов не бывает
type OrderService struct {
	users           repository.UserRepository
	products        repository.ProductRepository
	inventory       repository.InventoryRepository
	orders          repository.OrderRepository
	payments        *PaymentService
	tx              repository.TxManager
	publisher       OrderEventPublisher
	restockOnCancel bool
	logger          *zap.Logger
}

// NewOrderService создаёт новый экземпляр OrderService
// Принимает интерфейсы как зависимости - это позволяет подменять их в тестах
func NewOrderService(
	users repository.UserRepository,
	products repository.ProductRepository,
	inventory repository.InventoryRepository,
	orders repository.OrderRepository,
	payments *PaymentService,
	tx repository.TxManager,
	publisher OrderEventPublisher,
	restockOnCancel bool,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		users:           users,
		products:        products,
		inventory:       inventory,
		orders:          orders,
		payments:        payments,
		tx:              tx,
		publisher:       publisher,
		restockOnCancel: restockOnCancel,
		logger:          logger,
	}
}

// OrderItemInput описывает одну позицию запроса на заказ
type OrderItemInput struct {
	ProductID string
	Quantity  int64
}

// CreateOrderInput содержит входные данные для создания заказа
type CreateOrderInput struct {
	UserID string
	Items  []OrderItemInput
}

// CreateOrder создаёт новый заказ
//
// Порядок шагов фиксирован: пользователь, товары, списание остатков,
// оплата, сохранение. Отказ любого шага откатывает все предыдущие.
// Имя и цена товара фиксируются в позиции на момент заказа
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (repository.Order, error) {
	if len(input.Items) == 0 {
		return repository.Order{}, &errs.InvalidQuantityError{Quantity: 0}
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return repository.Order{}, &errs.InvalidQuantityError{Quantity: item.Quantity}
		}
	}

	if _, err := s.users.GetByID(ctx, input.UserID); err != nil {
		return repository.Order{}, err
	}

	var order repository.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		productByID, err := s.loadProducts(ctx, input.Items)
		if err != nil {
			return err
		}
		if err := s.checkInventories(ctx, productByID); err != nil {
			return err
		}

		// Списание идёт по позициям: атомарный Adjust хранилища гарантирует,
		// что конкурирующие заказы не уведут остаток в минус
		items := make([]repository.OrderItem, 0, len(input.Items))
		total := decimal.Zero
		for _, item := range input.Items {
			product := productByID[item.ProductID]

			if _, err := s.inventory.AdjustByProductID(ctx, item.ProductID, item.Quantity, repository.OpDecrease); err != nil {
				return err
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(item.Quantity))
			items = append(items, repository.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    item.Quantity,
				UnitPrice:   product.Price,
				LineTotal:   lineTotal,
			})
			total = total.Add(lineTotal)
		}

		// ID заказа фиксируется до оплаты, чтобы платёж (включая FAILED
		// запись аудита) ссылался на заказ, за который шло списание
		orderID := uuid.NewString()
		payment, err := s.payments.Charge(ctx, orderID, &total)
		if err != nil {
			return err
		}

		order = repository.Order{
			ID:          orderID,
			UserID:      input.UserID,
			PaymentID:   payment.ID,
			Status:      repository.OrderStatusCompleted,
			Items:       items,
			TotalAmount: total,
			CreatedAt:   time.Now().UTC(),
		}
		return s.orders.Save(ctx, order)
	})
	if err != nil {
		s.logger.Warn("order creation failed",
			zap.String("user_id", input.UserID),
			zap.Error(err))
		return repository.Order{}, err
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.String("total_amount", order.TotalAmount.String()))

	if err := s.publisher.PublishOrderCreated(ctx, OrderCreatedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		PaymentID:   order.PaymentID,
		TotalAmount: order.TotalAmount,
	}); err != nil {
		// заказ уже закоммичен, сбой публикации его не отменяет
		s.logger.Error("failed to publish order created event",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
	return order, nil
}

// GetOrder получает заказ по ID
// Чтение не меняет ни заказ, ни остатки
func (s *OrderService) GetOrder(ctx context.Context, id string) (repository.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// ListOrders возвращает страницу заказов (нумерация страниц с нуля)
func (s *OrderService) ListOrders(ctx context.Context, page int) ([]repository.Order, error) {
	if page < 0 {
		page = 0
	}
	return s.orders.List(ctx, page, defaultPageSize)
}

// CancelOrder отменяет заказ
// Повторная отмена отклоняется с AlreadyCancelledError: сам переход статуса
// атомарен (MarkCancelled), поэтому из двух конкурентных отмен ровно одна
// успевает, а возврат остатков проигравшей откатывается вместе с её
// транзакцией. Возврат остатков управляется конфигурацией
func (s *OrderService) CancelOrder(ctx context.Context, id string) (repository.Order, error) {
	var order repository.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == repository.OrderStatusCancelled {
			return &errs.AlreadyCancelledError{OrderID: id}
		}

		if s.restockOnCancel {
			for _, item := range order.Items {
				if _, err := s.inventory.AdjustByProductID(ctx, item.ProductID, item.Quantity, repository.OpIncrease); err != nil {
					return err
				}
			}
		}

		order.Status = repository.OrderStatusCancelled
		return s.orders.MarkCancelled(ctx, id)
	})
	if err != nil {
		return repository.Order{}, err
	}

	s.logger.Info("order cancelled",
		zap.String("order_id", id),
		zap.Bool("restocked", s.restockOnCancel))

	if err := s.publisher.PublishOrderCancelled(ctx, OrderCancelledEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Restocked: s.restockOnCancel,
	}); err != nil {
		s.logger.Error("failed to publish order cancelled event",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
	return order, nil
}

// loadProducts загружает товары заказа одним запросом и проверяет,
// что все запрошенные ID существуют. Batch сравнивается по размеру,
// конкретный отсутствующий ID находится вторым проходом
func (s *OrderService) loadProducts(ctx context.Context, items []OrderItemInput) (map[string]repository.Product, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item.ProductID] {
			return nil, &errs.DuplicateProductError{ProductID: item.ProductID}
		}
		seen[item.ProductID] = true
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	productByID := make(map[string]repository.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}
	if len(productByID) != len(ids) {
		for _, id := range ids {
			if _, ok := productByID[id]; !ok {
				return nil, &errs.NotFoundError{Entity: errs.EntityProduct, ID: id}
			}
		}
	}
	return productByID, nil
}

// checkInventories проверяет, что у каждого товара заказа есть запись остатка,
// до первого списания. Batch сравнивается по размеру, как и товары
func (s *OrderService) checkInventories(ctx context.Context, productByID map[string]repository.Product) error {
	ids := make([]string, 0, len(productByID))
	for id := range productByID {
		ids = append(ids, id)
	}

	invs, err := s.inventory.GetByProductIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(invs) == len(ids) {
		return nil
	}

	found := make(map[string]bool, len(invs))
	for _, inv := range invs {
		found[inv.ProductID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return &errs.NotFoundError{Entity: errs.EntityInventoryForProduct, ID: id}
		}
	}
	return nil
}
