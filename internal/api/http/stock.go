package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/f-lab-edu/commerce-core/internal/repository"
)

// StockResponse представляет HTTP ответ с записью остатка
type StockResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toStockResponse(inv repository.Inventory) StockResponse {
	return StockResponse{
		ID:        inv.ID,
		ProductID: inv.ProductID,
		Quantity:  inv.Quantity,
		UpdatedAt: inv.UpdatedAt,
	}
}

// AdjustStockRequest представляет HTTP запрос на изменение остатка
type AdjustStockRequest struct {
	Amount *int64 `json:"amount"`
}

// SetStockRequest представляет HTTP запрос на установку остатка
type SetStockRequest struct {
	Quantity *int64 `json:"quantity"`
}

// CreateStockRequest представляет HTTP запрос на создание записи остатка
type CreateStockRequest struct {
	ProductID       *string `json:"product_id"`
	InitialQuantity *int64  `json:"initial_quantity"`
}

// PostStock обрабатывает POST /inventory - создание записи остатка
func (h *Handler) PostStock(w http.ResponseWriter, r *http.Request) {
	var reqBody CreateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if reqBody.ProductID == nil || *reqBody.ProductID == "" {
		http.Error(w, "Invalid payload: product_id is required", http.StatusBadRequest)
		return
	}

	var quantity int64
	if reqBody.InitialQuantity != nil {
		quantity = *reqBody.InitialQuantity
	}

	inv, err := h.inventory.CreateInventory(r.Context(), *reqBody.ProductID, quantity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, toStockResponse(inv))
}

// DeleteStockID обрабатывает DELETE /inventory/{id}
func (h *Handler) DeleteStockID(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.inventory.DeleteInventory(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStock обрабатывает GET /inventory - список всех остатков
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.inventory.ListStock(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := make([]StockResponse, 0, len(stock))
	for _, inv := range stock {
		resp = append(resp, toStockResponse(inv))
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// GetStockByProduct обрабатывает GET /inventory/products/{productID}
func (h *Handler) GetStockByProduct(w http.ResponseWriter, r *http.Request, productID string) {
	inv, err := h.inventory.GetStock(r.Context(), productID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toStockResponse(inv))
}

// PostStockIncrease обрабатывает POST /inventory/products/{productID}/increase
func (h *Handler) PostStockIncrease(w http.ResponseWriter, r *http.Request, productID string) {
	amount, ok := h.decodeAmount(w, r)
	if !ok {
		return
	}

	inv, err := h.inventory.AddStock(r.Context(), productID, amount)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toStockResponse(inv))
}

// PostStockDecrease обрабатывает POST /inventory/products/{productID}/decrease
func (h *Handler) PostStockDecrease(w http.ResponseWriter, r *http.Request, productID string) {
	amount, ok := h.decodeAmount(w, r)
	if !ok {
		return
	}

	inv, err := h.inventory.RemoveStock(r.Context(), productID, amount)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toStockResponse(inv))
}

// PutStockID обрабатывает PUT /inventory/{id} - установку абсолютного остатка
func (h *Handler) PutStockID(w http.ResponseWriter, r *http.Request, id string) {
	var reqBody SetStockRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if reqBody.Quantity == nil {
		http.Error(w, "Invalid payload: quantity is required", http.StatusBadRequest)
		return
	}

	inv, err := h.inventory.SetStock(r.Context(), id, *reqBody.Quantity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toStockResponse(inv))
}

// PostStockIncreaseByID обрабатывает POST /inventory/{id}/increase
func (h *Handler) PostStockIncreaseByID(w http.ResponseWriter, r *http.Request, id string) {
	amount, ok := h.decodeAmount(w, r)
	if !ok {
		return
	}

	inv, err := h.inventory.AddStockByInventoryID(r.Context(), id, amount)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toStockResponse(inv))
}

// PutStockByProduct обрабатывает PUT /inventory/products/{productID}
func (h *Handler) PutStockByProduct(w http.ResponseWriter, r *http.Request, productID string) {
	var reqBody SetStockRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if reqBody.Quantity == nil {
		http.Error(w, "Invalid payload: quantity is required", http.StatusBadRequest)
		return
	}

	inv, err := h.inventory.SetStockByProduct(r.Context(), productID, *reqBody.Quantity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toStockResponse(inv))
}

func (h *Handler) decodeAmount(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var reqBody AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return 0, false
	}
	if reqBody.Amount == nil {
		http.Error(w, "Invalid payload: amount is required", http.StatusBadRequest)
		return 0, false
	}
	return *reqBody.Amount, true
}
