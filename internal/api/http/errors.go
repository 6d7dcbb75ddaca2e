package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/errs"
)

// errorResponse представляет HTTP ответ с ошибкой
type errorResponse struct {
	Error string `json:"error"`
}

// writeError переводит ошибку доменной таксономии в HTTP статус
//
//	not found           -> 404
//	невалидный ввод     -> 400
//	конфликт состояния  -> 409
//	отклонённый платёж  -> 402
//	временный сбой      -> 503
//	всё остальное       -> 500
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	} else {
		logger.Info("request rejected", zap.Int("status", status), zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func httpStatus(err error) int {
	var (
		notFound      *errs.NotFoundError
		invalidQty    *errs.InvalidQuantityError
		negAmount     *errs.NegativeAmountError
		insufficient  *errs.InsufficientStockError
		dupProduct    *errs.DuplicateProductError
		dupName       *errs.DuplicateProductNameError
		dupEmail      *errs.DuplicateEmailError
		cancelled     *errs.AlreadyCancelledError
		paymentFailed *errs.PaymentFailedError
		integrity     *errs.IntegrityError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalidQty),
		errors.As(err, &negAmount),
		errors.Is(err, errs.ErrAmountMissing):
		return http.StatusBadRequest
	case errors.As(err, &insufficient),
		errors.As(err, &dupProduct),
		errors.As(err, &dupName),
		errors.As(err, &dupEmail),
		errors.As(err, &cancelled),
		errors.As(err, &integrity):
		return http.StatusConflict
	case errors.As(err, &paymentFailed):
		return http.StatusPaymentRequired
	case errs.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON сериализует ответ с указанным статусом
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}
