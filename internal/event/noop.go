// Package event содержит публикацию событий жизненного цикла заказа
package event

import (
	"context"

	"github.com/f-lab-edu/commerce-core/internal/service"
)

// NoopPublisher отбрасывает все события
// Используется, когда Kafka не сконфигурирована
type NoopPublisher struct{}

// NewNoopPublisher создаёт новый noop publisher
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

// PublishOrderCreated ничего не делает
func (p *NoopPublisher) PublishOrderCreated(_ context.Context, _ service.OrderCreatedEvent) error {
	return nil
}

// PublishOrderCancelled ничего не делает
func (p *NoopPublisher) PublishOrderCancelled(_ context.Context, _ service.OrderCancelledEvent) error {
	return nil
}
