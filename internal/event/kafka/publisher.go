package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/f-lab-edu/commerce-core/internal/service"
)

// OrderEventPublisher реализует service.OrderEventPublisher используя Kafka
type OrderEventPublisher struct {
	logger *zap.Logger
	writer *kafka.Writer
	topic  string
}

// NewOrderEventPublisher создаёт новый Kafka publisher для событий заказов
func NewOrderEventPublisher(logger *zap.Logger, brokers []string, topic string) *OrderEventPublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &OrderEventPublisher{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

// Close закрывает Kafka writer
func (p *OrderEventPublisher) Close() error {
	return p.writer.Close()
}

// PublishOrderCreated публикует событие о создании заказа
func (p *OrderEventPublisher) PublishOrderCreated(ctx context.Context, event service.OrderCreatedEvent) error {
	payload := map[string]interface{}{
		"event_id":      uuid.New().String(),
		"event_type":    "order.created",
		"event_version": 1,
		"occurred_at":   time.Now().UTC().Format(time.RFC3339),
		"order_id":      event.OrderID,
		"user_id":       event.UserID,
		"payment_id":    event.PaymentID,
		"total_amount":  event.TotalAmount.String(),
	}
	return p.publish(ctx, "order created", event.OrderID, payload)
}

// PublishOrderCancelled публикует событие об отмене заказа
func (p *OrderEventPublisher) PublishOrderCancelled(ctx context.Context, event service.OrderCancelledEvent) error {
	payload := map[string]interface{}{
		"event_id":      uuid.New().String(),
		"event_type":    "order.cancelled",
		"event_version": 1,
		"occurred_at":   time.Now().UTC().Format(time.RFC3339),
		"order_id":      event.OrderID,
		"user_id":       event.UserID,
		"restocked":     event.Restocked,
	}
	return p.publish(ctx, "order cancelled", event.OrderID, payload)
}

// publish сериализует payload и отправляет его в Kafka
// Ключ сообщения - ID заказа: события одного заказа попадают в одну
// партицию и сохраняют порядок
func (p *OrderEventPublisher) publish(ctx context.Context, name, orderID string, payload map[string]interface{}) error {
	valueBytes, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("failed to marshal "+name+" event",
			zap.Error(err),
			zap.String("order_id", orderID),
		)
		return err
	}

	message := kafka.Message{
		Key:   []byte(orderID),
		Value: valueBytes,
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		p.logger.Error("failed to publish "+name+" event",
			zap.Error(err),
			zap.String("topic", p.topic),
			zap.String("order_id", orderID),
		)
		return err
	}

	p.logger.Info(name+" event published",
		zap.String("topic", p.topic),
		zap.String("order_id", orderID),
	)
	return nil
}
