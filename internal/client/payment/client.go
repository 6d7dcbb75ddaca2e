// Package payment реализует клиенты платёжного шлюза
package payment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// authorizeRequest описывает тело запроса к шлюзу
type authorizeRequest struct {
	PaymentID string `json:"payment_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

// authorizeResponse описывает ответ шлюза
type authorizeResponse struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// GatewayClient реализует service.PaymentAuthorizer поверх HTTP шлюза
type GatewayClient struct {
	client *resty.Client
	logger *zap.Logger
}

// NewGatewayClient создаёт новый клиент платёжного шлюза
func NewGatewayClient(baseURL string, timeout time.Duration, logger *zap.Logger) *GatewayClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &GatewayClient{client: client, logger: logger}
}

// Authorize запрашивает авторизацию списания у шлюза
// Сетевые ошибки и не-2xx ответы возвращаются как ошибки (шлюз недоступен),
// отказ шлюза - как approved=false
func (c *GatewayClient) Authorize(ctx context.Context, paymentID string, amount decimal.Decimal) (bool, error) {
	var result authorizeResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(authorizeRequest{
			PaymentID: paymentID,
			Amount:    amount.String(),
			Currency:  "USD",
		}).
		SetResult(&result).
		Post("/authorize")
	if err != nil {
		return false, fmt.Errorf("payment gateway request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return false, fmt.Errorf("payment gateway returned status %d", resp.StatusCode())
	}

	if !result.Approved {
		c.logger.Info("payment declined by gateway",
			zap.String("payment_id", paymentID),
			zap.String("reason", result.Reason))
	}
	return result.Approved, nil
}

// StaticAuthorizer одобряет все платежи
// Используется для локальной разработки и тестов вместо внешнего шлюза
type StaticAuthorizer struct{}

// NewStaticAuthorizer создаёт новый статический авторизатор
func NewStaticAuthorizer() *StaticAuthorizer {
	return &StaticAuthorizer{}
}

// Authorize всегда одобряет платёж
func (a *StaticAuthorizer) Authorize(_ context.Context, _ string, _ decimal.Decimal) (bool, error) {
	return true, nil
}
