package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mobirepair/mobirepair-api/utils"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Domain event types
const (
	EventTypeBookingCreated       = "booking.created"
	EventTypeBookingStatusChanged = "booking.status_changed"
	EventTypeOrderPlaced          = "order.placed"
	EventTypeOrderCancelled       = "order.cancelled"
)

// Event is the envelope written to the events topic
type Event struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Timestamp time.Time   `json:"timestamp"`
	Key       string      `json:"-"`
	Data      interface{} `json:"data"`
}

// BookingStatusChangedData is the payload of booking.status_changed
type BookingStatusChangedData struct {
	BookingID  string `json:"booking_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ChangedBy  string `json:"changed_by"` // "owner" or "admin"
}

// OrderEventData is the payload of order.placed and order.cancelled
type OrderEventData struct {
	OrderID     uint    `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	UserID      uint    `json:"user_id"`
	Total       float64 `json:"total"`
	Reason      string  `json:"reason,omitempty"`
}

// NewEvent builds an event with a fresh id
func NewEvent(eventType, key string, data interface{}) Event {
	return Event{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Key:       key,
		Data:      data,
	}
}

// EventPublisher publishes domain events to a message broker
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

var eventPublisherInstance EventPublisher

// InitEventPublisher selects the Kafka publisher when brokers are configured
func InitEventPublisher(brokers []string, topic string) EventPublisher {
	if len(brokers) == 0 {
		eventPublisherInstance = NoopEventPublisher{}
	} else {
		eventPublisherInstance = NewKafkaEventPublisher(brokers, topic)
	}
	return eventPublisherInstance
}

// GetEventPublisher returns the global publisher, a no-op one if none was initialized
func GetEventPublisher() EventPublisher {
	if eventPublisherInstance == nil {
		return NoopEventPublisher{}
	}
	return eventPublisherInstance
}

// SetEventPublisher replaces the global publisher (primarily for testing)
func SetEventPublisher(p EventPublisher) {
	eventPublisherInstance = p
}

// publishBestEffort publishes the event and logs any failure instead of returning it
func publishBestEffort(ctx context.Context, publisher EventPublisher, event Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		utils.GetLogger().Warn("failed to publish event",
			zap.String("event_type", event.EventType),
			zap.String("key", event.Key),
			zap.Error(err))
	}
}

// KafkaEventPublisher writes events as JSON messages keyed by aggregate id
type KafkaEventPublisher struct {
	writer *kafka.Writer
}

// NewKafkaEventPublisher creates a publisher for topic
func NewKafkaEventPublisher(brokers []string, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
		},
	}
}

// Publish writes one event
func (p *KafkaEventPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key),
		Value: payload,
		Time:  event.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	utils.GetLogger().Debug("published event", zap.String("event_type", event.EventType), zap.String("key", event.Key))
	return nil
}

// Close flushes and closes the writer
func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}

// NoopEventPublisher drops every event
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(ctx context.Context, event Event) error { return nil }

func (NoopEventPublisher) Close() error { return nil }
