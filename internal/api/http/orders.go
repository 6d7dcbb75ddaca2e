package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/f-lab-edu/commerce-core/internal/repository"
	"github.com/f-lab-edu/commerce-core/internal/service"
)

// OrderItemRequest представляет одну позицию в запросе на заказ
type OrderItemRequest struct {
	ProductID *string `json:"product_id"`
	Quantity  *int64  `json:"quantity"`
}

// OrderRequest представляет HTTP запрос на создание заказа
type OrderRequest struct {
	UserID *string             `json:"user_id"`
	Items  *[]OrderItemRequest `json:"items"`
}

// OrderItemResponse представляет одну позицию заказа в ответе
type OrderItemResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

// OrderResponse представляет HTTP ответ с информацией о заказе
type OrderResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"user_id"`
	PaymentID   string              `json:"payment_id,omitempty"`
	Status      string              `json:"status"`
	Items       []OrderItemResponse `json:"items"`
	TotalAmount string              `json:"total_amount"`
	CreatedAt   time.Time           `json:"created_at"`
}

func toOrderResponse(o repository.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
			LineTotal:   item.LineTotal.String(),
		})
	}
	return OrderResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		PaymentID:   o.PaymentID,
		Status:      string(o.Status),
		Items:       items,
		TotalAmount: o.TotalAmount.String(),
		CreatedAt:   o.CreatedAt,
	}
}

// PostOrders обрабатывает POST /orders - создание заказа
func (h *Handler) PostOrders(w http.ResponseWriter, r *http.Request) {
	var reqBody OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if reqBody.UserID == nil || reqBody.Items == nil || len(*reqBody.Items) == 0 {
		http.Error(w, "Invalid payload: user_id and items are required", http.StatusBadRequest)
		return
	}

	items := make([]service.OrderItemInput, 0, len(*reqBody.Items))
	for _, item := range *reqBody.Items {
		if item.ProductID == nil || *item.ProductID == "" {
			http.Error(w, "Invalid payload: product_id is required in items", http.StatusBadRequest)
			return
		}
		if item.Quantity == nil || *item.Quantity <= 0 {
			http.Error(w, "Invalid payload: quantity must be > 0 in items", http.StatusBadRequest)
			return
		}
		items = append(items, service.OrderItemInput{
			ProductID: *item.ProductID,
			Quantity:  *item.Quantity,
		})
	}

	order, err := h.orders.CreateOrder(r.Context(), service.CreateOrderInput{
		UserID: *reqBody.UserID,
		Items:  items,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, toOrderResponse(order))
}

// GetOrdersID обрабатывает GET /orders/{id}
func (h *Handler) GetOrdersID(w http.ResponseWriter, r *http.Request, id string) {
	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toOrderResponse(order))
}

// GetOrders обрабатывает GET /orders?page=N
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context(), pageParam(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// PostOrdersCancel обрабатывает POST /orders/{id}/cancel
func (h *Handler) PostOrdersCancel(w http.ResponseWriter, r *http.Request, id string) {
	order, err := h.orders.CancelOrder(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toOrderResponse(order))
}

// PaymentResponse представляет HTTP ответ с данными платежа
type PaymentResponse struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id,omitempty"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// GetPaymentsID обрабатывает GET /payments/{id}
func (h *Handler) GetPaymentsID(w http.ResponseWriter, r *http.Request, id string) {
	payment, err := h.payments.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, PaymentResponse{
		ID:        payment.ID,
		OrderID:   payment.OrderID,
		Amount:    payment.Amount.String(),
		Status:    string(payment.Status),
		CreatedAt: payment.CreatedAt,
	})
}
