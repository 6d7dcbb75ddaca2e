package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
	"github.com/f-lab-edu/commerce-core/internal/repository"
	"github.com/f-lab-edu/commerce-core/internal/repository/memory"
	"github.com/f-lab-edu/commerce-core/internal/service"
	"github.com/f-lab-edu/commerce-core/internal/service/mocks"
)

// fixture собирает service слой поверх in-memory хранилища
// Мокаются только внешние границы: платёжный шлюз и publisher событий
type fixture struct {
	store      *memory.Store
	authorizer *mocks.PaymentAuthorizer
	publisher  *mocks.OrderEventPublisher
	orders     *service.OrderService
	payments   *service.PaymentService
}

func newFixture(t *testing.T, restockOnCancel bool) *fixture {
	t.Helper()

	store := memory.NewStore()
	authorizer := mocks.NewPaymentAuthorizer(t)
	publisher := mocks.NewOrderEventPublisher(t)
	logger := zap.NewNop()

	payments := service.NewPaymentService(store.Payments(), authorizer, store, logger)
	orders := service.NewOrderService(
		store.Users(), store.Products(), store.Inventories(), store.Orders(),
		payments, store, publisher, restockOnCancel, logger)

	return &fixture{
		store:      store,
		authorizer: authorizer,
		publisher:  publisher,
		orders:     orders,
		payments:   payments,
	}
}

func (f *fixture) seedUser(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.store.Users().Create(context.Background(), repository.User{
		ID:    id,
		Name:  "User " + id,
		Email: id + "@example.com",
	}))
}

func (f *fixture) seedProduct(t *testing.T, id, name, price string, qty int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Products().Create(ctx, repository.Product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
	}))
	require.NoError(t, f.store.Inventories().Create(ctx, repository.Inventory{
		ID:        "inv-" + id,
		ProductID: id,
		Quantity:  qty,
		UpdatedAt: time.Now().UTC(),
	}))
}

func (f *fixture) stock(t *testing.T, productID string) int64 {
	t.Helper()
	inv, err := f.store.Inventories().GetByProductID(context.Background(), productID)
	require.NoError(t, err)
	return inv.Quantity
}

func amountEquals(expected string) interface{} {
	want := decimal.RequireFromString(expected)
	return mock.MatchedBy(func(amount decimal.Decimal) bool {
		return amount.Equal(want)
	})
}

func TestOrderService_CreateOrder_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.seedUser(t, "user-1")
	f.seedProduct(t, "product-1", "Keyboard", "19.99", 10)
	f.seedProduct(t, "product-2", "Mouse", "5.00", 10)

	// 19.99*2 + 5.00*3 = 54.98
	f.authorizer.On("Authorize", mock.Anything, mock.Anything, amountEquals("54.98")).
		Return(true, nil).Once()
	f.publisher.On("PublishOrderCreated", mock.Anything, mock.MatchedBy(func(e service.OrderCreatedEvent) bool {
		return e.UserID == "user-1" && e.TotalAmount.Equal(decimal.RequireFromString("54.98"))
	})).Return(nil).Once()

	order, err := f.orders.CreateOrder(ctx, service.CreateOrderInput{
		UserID: "user-1",
		Items: []service.OrderItemInput{
			{ProductID: "product-1", Quantity: 2},
			{ProductID: "product-2", Quantity: 3},
		},
	})
	require.NoError(t, err)

	require.Equal(t, repository.OrderStatusCompleted, order.Status)
	require.True(t, order.TotalAmount.Equal(decimal.RequireFromString("54.98")))
	require.Len(t, order.Items, 2)
	require.Equal(t, "Keyboard", order.Items[0].ProductName)
	require.True(t, order.Items[0].LineTotal.Equal(decimal.RequireFromString("39.98")))

	// остатки списаны
	require.Equal(t, int64(8), f.stock(t, "product-1"))
	require.Equal(t, int64(7), f.stock(t, "product-2"))

	// заказ и платёж сохранены
	saved, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, saved.ID)

	payment, err := f.payments.GetPayment(ctx, order.PaymentID)
	require.NoError(t, err)
	require.Equal(t, repository.PaymentStatusCompleted, payment.Status)
	require.Equal(t, order.ID, payment.OrderID)
}

func TestOrderService_CreateOrder_InsufficientStockRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.seedUser(t, "user-1")
	f.seedProduct(t, "product-1", "Keyboard", "19.99", 10)
	f.seedProduct(t, "product-2", "Mouse", "5.00", 1)

	_, err := f.orders.CreateOrder(ctx, service.CreateOrderInput{
		UserID: "user-1",
		Items: []service.OrderItemInput{
			{ProductID: "product-1", Quantity: 2},
			{ProductID: "product-2", Quantity: 3},
		},
	})

	var insufficientErr *errs.InsufficientStockError
	require.ErrorAs(t, err, &insufficientErr)
	require.Equal(t, "product-2", insufficientErr.ProductID)

	// списание первой позиции откатилось
	require.Equal(t, int64(10), f.stock(t, "product-1"))
	require.Equal(t, int64(1), f.stock(t, "product-2"))

	// заказов нет, платёжный шлюз не вызывался
	orders, err := f.orders.ListOrders(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, orders)
	f.authorizer.AssertNotCalled(t, "Authorize")
}

func TestOrderService_CreateOrder_PaymentDeclinedRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.seedUser(t, "user-1")
	f.seedProduct(t, "product-1", "Keyboard", "19.99", 10)

	f.authorizer.On("Authorize", mock.Anything, mock.Anything, mock.Anything).
		Return(false, nil).Once()

	_, err := f.orders.CreateOrder(ctx, service.CreateOrderInput{
		UserID: "user-1",
		Items:  []service.OrderItemInput{{ProductID: "product-1", Quantity: 2}},
	})

	var paymentErr *errs.PaymentFailedError
	require.ErrorAs(t, err, &paymentErr)

	// списание откатилось, заказа нет
	require.Equal(t, int64(10), f.stock(t, "product-1"))
	orders, err := f.orders.ListOrders(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, orders)

	// но отклонённый платёж остался для аудита
	payment, err := f.payments.GetPayment(ctx, paymentErr.PaymentID)
	require.NoError(t, err)
	require.Equal(t, repository.PaymentStatusFailed, payment.Status)
	require.NotEmpty(t, payment.OrderID)
	require.True(t, payment.Amount.Equal(decimal.RequireFromString("39.98")))
}

func TestOrderService_CreateOrder_UnknownUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.seedProduct(t, "product-1", "Keyboard", "19.99", 10)

	_, err := f.orders.CreateOrder(ctx, service.CreateOrderInput{
		UserID: "ghost",
		Items:  []service.OrderItemInput{{ProductID: "product-1", Quantity: 1}},
	})

	require.True(t, errs.IsNotFound(err))
	require.Equal(t, int64(10), f.stock(t, "product-1"))
}

func TestOrderService_CreateOrder_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.seedUser(t, "user-1")
	f.seedProduct(t, "product-1", "Keyboard", "19.99", 10)

	_, err := f.orders.CreateOrder(ctx, service.CreateOrderInput{
		UserID: "user-1",
		Items: []service.OrderItemInput{
			{ProductID: "product-1", Quantity: 1},
			{ProductID: "ghost", Quantity: 1},
		},
	})

	var notFoundErr *errs.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	require.Equal(t, "ghost", notFoundErr.ID)
	require.Equal(t, int64(10), f.stock(t, "product-1"))
}

func TestOrderService_CreateOrder_InvalidQuantity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	tests := []struct {
		name  string
		items []service.OrderItemInput
	}{
		{name: "empty items", items: nil},
		{name: "zero quantity", items: []service.OrderItemInput{{ProductID: "product-1", Quantity: 0}}},
		{name: "negative quantity", items: []service.OrderItemInput{{ProductID: "product-1", Quantity: -2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.CreateOrder(ctx, service.CreateOrderInput{UserID: "user-1", Items: tt.items})
			var invalidErr *errs.InvalidQuantityError
			require.ErrorAs(t, err, &invalidErr)
		})
	}
}

// Чтение заказа не меняет ни заказ, ни остатки
func TestOrderService_GetOrder_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.seedUser(t, "user-1")
	f.seedProduct(t, "product-1", "Keyboard", "19.99", 10)

	f.authorizer.On("Authorize", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Once()
	f.publisher.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil).Once()

	order, err := f.orders.CreateOrder(ctx, service.CreateOrderInput{
		UserID: "user-1",
		Items:  []service.OrderItemInput{{ProductID: "product-1", Quantity: 2}},
	})
	require.NoError(t, err)

	first, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	second, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, int64(8), f.stock(t, "product-1"))
}

func TestOrderService_CancelOrder_RestocksAndRejectsSecondCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.seedUser(t, "user-1")
	f.seedProduct(t, "product-1", "Keyboard", "19.99", 10)

	f.authorizer.On("Authorize", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Once()
	f.publisher.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil).Once()
	f.publisher.On("PublishOrderCancelled", mock.Anything, mock.MatchedBy(func(e service.OrderCancelledEvent) bool {
		return e.Restocked
	})).Return(nil).Once()

	order, err := f.orders.CreateOrder(ctx, service.CreateOrderInput{
		UserID: "user-1",
		Items:  []service.OrderItemInput{{ProductID: "product-1", Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), f.stock(t, "product-1"))

	cancelled, err := f.orders.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, repository.OrderStatusCancelled, cancelled.Status)
	require.Equal(t, int64(10), f.stock(t, "product-1"))

	// повторная отмена отклоняется и не трогает остатки
	_, err = f.orders.CancelOrder(ctx, order.ID)
	var cancelledErr *errs.AlreadyCancelledError
	require.ErrorAs(t, err, &cancelledErr)
	require.Equal(t, order.ID, cancelledErr.OrderID)
	require.Equal(t, int64(10), f.stock(t, "product-1"))
}

// Из конкурирующих отмен одного заказа побеждает ровно одна:
// остаток возвращается один раз, остальные получают AlreadyCancelledError
func TestOrderService_CancelOrder_ConcurrentCancels(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.seedUser(t, "user-1")
	f.seedProduct(t, "product-1", "Keyboard", "19.99", 10)

	f.authorizer.On("Authorize", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Once()
	f.publisher.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil).Once()
	f.publisher.On("PublishOrderCancelled", mock.Anything, mock.Anything).Return(nil).Once()

	order, err := f.orders.CreateOrder(ctx, service.CreateOrderInput{
		UserID: "user-1",
		Items:  []service.OrderItemInput{{ProductID: "product-1", Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), f.stock(t, "product-1"))

	const workers = 10

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orders.CancelOrder(ctx, order.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var cancelledErr *errs.AlreadyCancelledError
		require.ErrorAs(t, err, &cancelledErr)
	}
	require.Equal(t, 1, succeeded)

	// возврат остатка прошёл ровно один раз
	require.Equal(t, int64(10), f.stock(t, "product-1"))
	f.publisher.AssertNumberOfCalls(t, "PublishOrderCancelled", 1)
}

func TestOrderService_CancelOrder_WithoutRestock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.seedUser(t, "user-1")
	f.seedProduct(t, "product-1", "Keyboard", "19.99", 10)

	f.authorizer.On("Authorize", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Once()
	f.publisher.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil).Once()
	f.publisher.On("PublishOrderCancelled", mock.Anything, mock.MatchedBy(func(e service.OrderCancelledEvent) bool {
		return !e.Restocked
	})).Return(nil).Once()

	order, err := f.orders.CreateOrder(ctx, service.CreateOrderInput{
		UserID: "user-1",
		Items:  []service.OrderItemInput{{ProductID: "product-1", Quantity: 3}},
	})
	require.NoError(t, err)

	cancelled, err := f.orders.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, repository.OrderStatusCancelled, cancelled.Status)

	// остаток не возвращается
	require.Equal(t, int64(7), f.stock(t, "product-1"))
}

func TestOrderService_CancelOrder_NotFound(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.orders.CancelOrder(context.Background(), "ghost")
	require.True(t, errs.IsNotFound(err))
}

// Товар без записи остатка отклоняет весь заказ до первого списания
func TestOrderService_CreateOrder_MissingInventoryRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.seedUser(t, "user-1")
	f.seedProduct(t, "product-1", "Keyboard", "19.99", 10)
	// product-2 существует, но записи остатка для него нет
	require.NoError(t, f.store.Products().Create(ctx, repository.Product{
		ID:    "product-2",
		Name:  "Mouse",
		Price: decimal.RequireFromString("5.00"),
	}))

	_, err := f.orders.CreateOrder(ctx, service.CreateOrderInput{
		UserID: "user-1",
		Items: []service.OrderItemInput{
			{ProductID: "product-1", Quantity: 2},
			{ProductID: "product-2", Quantity: 1},
		},
	})
	require.True(t, errs.IsNotFound(err))

	// ни одно списание не сохранилось, платёж не вызывался
	require.Equal(t, int64(10), f.stock(t, "product-1"))
	f.authorizer.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything, mock.Anything)
}
