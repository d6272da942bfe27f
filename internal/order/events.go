package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventCreated       = "order.created"
	EventStatusChanged = "order.status_changed"
)

type Event struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	ShopID     string    `json:"shopId"`
	CustomerID string    `json:"customerId"`
	Status     Status    `json:"status"`
	Previous   Status    `json:"previousStatus,omitempty"`
	Total      int64     `json:"total"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}}
}

// Publish keys messages by order id so every event of one order lands on one partition.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

func (s *Server) publish(ctx context.Context, ev Event) {
	if s.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.Events.Publish(ctx, ev); err != nil {
		s.Log.Warn("publish order event failed",
			zap.Error(err),
			zap.String("type", ev.Type),
			zap.String("order_id", ev.OrderID))
	}
}
