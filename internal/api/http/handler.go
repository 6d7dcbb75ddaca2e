// Package httpapi содержит HTTP-обработчики сервиса
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/repository"
	"github.com/f-lab-edu/commerce-core/internal/service"
)

// Handler содержит HTTP-обработчики
// Зависит от service слоя, но не знает о деталях реализации хранилища
type Handler struct {
	users     *service.UserService
	products  *service.ProductService
	inventory *service.InventoryService
	orders    *service.OrderService
	payments  *service.PaymentService
	logger    *zap.Logger
}

// NewHandler создаёт новый HTTP handler
func NewHandler(
	users *service.UserService,
	products *service.ProductService,
	inventory *service.InventoryService,
	orders *service.OrderService,
	payments *service.PaymentService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		users:     users,
		products:  products,
		inventory: inventory,
		orders:    orders,
		payments:  payments,
		logger:    logger,
	}
}

// UserRequest представляет HTTP запрос на создание/обновление пользователя
type UserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

// UserResponse представляет HTTP ответ с данными пользователя
// Пароль наружу не отдаётся
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u repository.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
		CreatedAt: u.CreatedAt,
	}
}

// PostUsers обрабатывает POST /users - регистрацию пользователя
func (h *Handler) PostUsers(w http.ResponseWriter, r *http.Request) {
	var reqBody UserRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if reqBody.Name == nil || *reqBody.Name == "" || reqBody.Email == nil || *reqBody.Email == "" {
		http.Error(w, "Invalid payload: name and email are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.CreateUser(r.Context(), service.CreateUserInput{
		Name:     *reqBody.Name,
		Email:    *reqBody.Email,
		Password: strFromPtr(reqBody.Password),
		Phone:    strFromPtr(reqBody.Phone),
		Address:  strFromPtr(reqBody.Address),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, toUserResponse(user))
}

// GetUsersID обрабатывает GET /users/{id}
func (h *Handler) GetUsersID(w http.ResponseWriter, r *http.Request, id string) {
	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toUserResponse(user))
}

// PutUsersID обрабатывает PUT /users/{id}
func (h *Handler) PutUsersID(w http.ResponseWriter, r *http.Request, id string) {
	var reqBody UserRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.users.UpdateUser(r.Context(), id, service.UpdateUserInput{
		Name:     strFromPtr(reqBody.Name),
		Email:    strFromPtr(reqBody.Email),
		Password: strFromPtr(reqBody.Password),
		Phone:    strFromPtr(reqBody.Phone),
		Address:  strFromPtr(reqBody.Address),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toUserResponse(user))
}

// ProductRequest представляет HTTP запрос на создание/обновление товара
type ProductRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Price           *string `json:"price"`
	InitialQuantity *int64  `json:"initial_quantity"`
}

// ProductResponse представляет HTTP ответ с данными товара
type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       string    `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

func toProductResponse(p repository.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		CreatedAt:   p.CreatedAt,
	}
}

// PostProducts обрабатывает POST /products - создание товара
func (h *Handler) PostProducts(w http.ResponseWriter, r *http.Request) {
	var reqBody ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if reqBody.Name == nil || *reqBody.Name == "" || reqBody.Price == nil {
		http.Error(w, "Invalid payload: name and price are required", http.StatusBadRequest)
		return
	}
	price, err := decimal.NewFromString(*reqBody.Price)
	if err != nil {
		http.Error(w, "Invalid payload: price must be a decimal string", http.StatusBadRequest)
		return
	}

	var initialQty int64
	if reqBody.InitialQuantity != nil {
		initialQty = *reqBody.InitialQuantity
	}

	product, err := h.products.CreateProduct(r.Context(), service.CreateProductInput{
		Name:            *reqBody.Name,
		Description:     strFromPtr(reqBody.Description),
		Price:           price,
		InitialQuantity: initialQty,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, toProductResponse(product))
}

// GetProductsID обрабатывает GET /products/{id}
func (h *Handler) GetProductsID(w http.ResponseWriter, r *http.Request, id string) {
	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toProductResponse(product))
}

// GetProducts обрабатывает GET /products?page=N
func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context(), pageParam(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// PutProductsID обрабатывает PUT /products/{id}
func (h *Handler) PutProductsID(w http.ResponseWriter, r *http.Request, id string) {
	var reqBody ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	input := service.UpdateProductInput{
		Name:        strFromPtr(reqBody.Name),
		Description: strFromPtr(reqBody.Description),
	}
	if reqBody.Price != nil {
		price, err := decimal.NewFromString(*reqBody.Price)
		if err != nil {
			http.Error(w, "Invalid payload: price must be a decimal string", http.StatusBadRequest)
			return
		}
		input.Price = &price
	}

	product, err := h.products.UpdateProduct(r.Context(), id, input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toProductResponse(product))
}

// DeleteProductsID обрабатывает DELETE /products/{id}
func (h *Handler) DeleteProductsID(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pageParam читает query-параметр page; отсутствующий или кривой - нулевая страница
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		return 0
	}
	return page
}

func strFromPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
