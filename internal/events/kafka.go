package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Relay forwards dispatcher events to a kafka topic for downstream
// consumers. Messages are keyed by conversation id so one conversation's
// events stay ordered within a partition.
type Relay struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewRelay builds a relay writing to the given brokers and topic.
func NewRelay(brokers []string, topic string, logger *zap.Logger) *Relay {
	return &Relay{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
		logger: logger,
	}
}

// Attach subscribes the relay to every event type on the dispatcher.
func (r *Relay) Attach(dispatcher Dispatcher) {
	for _, eventType := range AllEventTypes {
		dispatcher.Subscribe(eventType, r.handle)
	}
}

func (r *Relay) handle(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		r.logger.Warn("marshal event for kafka", zap.String("type", string(event.Type)), zap.Error(err))
		return err
	}

	key := event.ConversationID
	if key == "" {
		key = event.TicketID
	}
	msg := kafka.Message{Key: []byte(key), Value: value}
	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		r.logger.Warn("relay event to kafka", zap.String("type", string(event.Type)), zap.Error(err))
		return err
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (r *Relay) Close() error {
	return r.writer.Close()
}
